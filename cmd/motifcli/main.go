/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command motifcli reads an InputMap as JSON from stdin, mines it for
// k-element motifs per the flags given, and writes the emitted Rows
// (optionally trimmed to the top-k by count) as a JSON array to
// stdout -- a thin driver over the motif package, the same "flags in,
// JSON-ish report out" shape as the teacher's own memtest tooling,
// adapted from a live memory-pressure generator into a one-shot batch
// job.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/epicsketch/motif"
)

func main() {
	var (
		caseName = flag.String("case", "ordinary", `motif case: "ordinary" or "convolution"`)
		k        = flag.Int("k", 3, "motif size")
		filter   = flag.Uint("filter-len", 1, "filter length (convolution case only)")
		flags    = flag.String("config", "", `extra config as a SuperFlag string, e.g. "min-count=2; epsilon=0.001"`)
		topK     = flag.Int("top", 0, "if > 0, only print the top-k rows by count")
		partition = flag.Bool("partitioned", false, "use length-partitioned enrichment instead of the exact two-pass engine")
	)
	flag.Parse()

	c, err := parseCase(*caseName)
	if err != nil {
		log.Fatalf("motifcli: %v", err)
	}

	var input motif.InputMap
	dec := json.NewDecoder(os.Stdin)
	if err := dec.Decode(&input); err != nil {
		log.Fatalf("motifcli: decoding input map: %v", err)
	}

	cfg := motif.ParseConfig(c, *k, uint32(*filter), *flags)
	cfg.Metrics = motif.NewMetrics()

	enrich := motif.Enrich
	if *partition {
		enrich = motif.EnrichPartitioned
	}
	rows, err := enrich(input, cfg)
	if err != nil {
		log.Fatalf("motifcli: %v", err)
	}

	if *topK > 0 {
		rows = motif.TopK(rows, *topK)
	}

	fmt.Fprintf(os.Stderr, "motifcli: %s\n", cfg.Metrics)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		log.Fatalf("motifcli: encoding rows: %v", err)
	}
}

func parseCase(s string) (motif.Case, error) {
	switch s {
	case "ordinary":
		return motif.Ordinary, nil
	case "convolution":
		return motif.Convolution, nil
	default:
		return 0, fmt.Errorf("unknown case %q (want \"ordinary\" or \"convolution\")", s)
	}
}
