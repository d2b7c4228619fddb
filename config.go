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

package motif

import "github.com/epicsketch/motif/z"

// configDefaults mirrors the knobs spec section 6 enumerates, in the
// same "key=val; key=val" shape the teacher's own binaries pass to
// z.SuperFlag for cache sizing (see badger's ristretto config string
// in its own documentation).
const configDefaults = `delta=0.0001; epsilon=0.00005; k=3; min-count=1; ` +
	`batch-policy=auto; batch-size=500; safety-factor=0.8; min-batch=10; ` +
	`max-batch=10000; window=10; use-accel=true; workers=0;`

// Config carries every knob the Enrich/EnrichPartitioned entry points
// need (spec section 6). Zero value is not valid; build one with
// DefaultConfig or ParseConfig.
type Config struct {
	Case      Case
	K         int
	FilterLen uint32
	MinCount  uint32

	Delta   float64
	Epsilon float64
	Seed    *int64

	Batch        BatchPolicy
	SafetyFactor float64
	MinBatch     int
	MaxBatch     int
	UseAccel     bool

	// Window is omega, the partition length-bucket width used by
	// EnrichPartitioned (spec section 4.H).
	Window int

	// Workers caps goroutines per pass; 0 selects runtime.GOMAXPROCS.
	Workers int

	// Metrics, if non-nil, accumulates pass-level counters across
	// every Record this call processes (spec section 4.E-G). Callers
	// share one *Metrics with the Config that created it; Enrich and
	// EnrichPartitioned never allocate their own.
	Metrics *Metrics
}

// DefaultConfig returns the spec-mandated defaults for case c, motif
// size k, and (Convolution only) filterLen.
func DefaultConfig(c Case, k int, filterLen uint32) Config {
	sf := z.NewSuperFlag(configDefaults)
	return Config{
		Case:         c,
		K:            k,
		FilterLen:    filterLen,
		MinCount:     uint32(sf.GetUint64("min-count")),
		Delta:        sf.GetFloat64("delta"),
		Epsilon:      sf.GetFloat64("epsilon"),
		Batch:        AutoBatch(),
		SafetyFactor: sf.GetFloat64("safety-factor"),
		MinBatch:     int(sf.GetUint64("min-batch")),
		MaxBatch:     int(sf.GetUint64("max-batch")),
		UseAccel:     sf.GetBool("use-accel"),
		Window:       int(sf.GetUint64("window")),
		Workers:      0,
	}
}

// ParseConfig builds a Config from a SuperFlag string, starting from
// the same defaults DefaultConfig uses and overriding only the keys
// present in flag. Unknown keys panic via SuperFlag.MergeAndCheckDefault,
// the same validation the teacher applies to cache construction flags.
// K and FilterLen always come from the k and filterLen arguments; a "k"
// key in flag is accepted but does not change K.
func ParseConfig(c Case, k int, filterLen uint32, flag string) Config {
	sf := z.NewSuperFlag(flag).MergeAndCheckDefault(configDefaults)
	cfg := Config{
		Case:         c,
		K:            k,
		FilterLen:    filterLen,
		MinCount:     uint32(sf.GetUint64("min-count")),
		Delta:        sf.GetFloat64("delta"),
		Epsilon:      sf.GetFloat64("epsilon"),
		SafetyFactor: sf.GetFloat64("safety-factor"),
		MinBatch:     int(sf.GetUint64("min-batch")),
		MaxBatch:     int(sf.GetUint64("max-batch")),
		UseAccel:     sf.GetBool("use-accel"),
		Window:       int(sf.GetUint64("window")),
		Workers:      int(sf.GetUint64("workers")),
	}
	if sf.GetString("batch-policy") == "fixed" {
		cfg.Batch = FixedBatch(int(sf.GetUint64("batch-size")))
	} else {
		cfg.Batch = AutoBatch()
	}
	return cfg
}

// plannerOptions projects the memory-planning fields of cfg into a
// PlannerOptions for PlanBatch/resolveBatchSize.
func (cfg Config) plannerOptions() PlannerOptions {
	return PlannerOptions{
		SafetyFactor: cfg.SafetyFactor,
		MinBatch:     cfg.MinBatch,
		MaxBatch:     cfg.MaxBatch,
		UseAccel:     cfg.UseAccel,
	}
}

// validate checks the parts of Config that are cheap to check up
// front, before any batching or allocation work begins.
func (cfg Config) validate() error {
	if cfg.K <= 0 {
		return newConfigError("k must be >= 1, got %d", cfg.K)
	}
	if cfg.Case == Convolution && cfg.FilterLen == 0 {
		return newConfigError("filter_len must be > 0 for Convolution case")
	}
	if cfg.Delta <= 0 || cfg.Delta >= 1 {
		return newConfigError("delta must be in (0,1), got %v", cfg.Delta)
	}
	if cfg.Epsilon <= 0 || cfg.Epsilon >= 1 {
		return newConfigError("epsilon must be in (0,1), got %v", cfg.Epsilon)
	}
	if cfg.MinCount == 0 {
		return newConfigError("min_count must be >= 1, got %d", cfg.MinCount)
	}
	if cfg.Window <= 0 {
		return newConfigError("window must be >= 1, got %d", cfg.Window)
	}
	return nil
}
