/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
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

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/epicsketch/motif/z"
)

// defaultDeviceMemory is the conservative device-memory figure used
// whenever UseAccel is false, and when UseAccel is true but the host
// free-memory query fails (spec section 4.D).
const defaultDeviceMemory = 4 * 1 << 30 // 4 GiB

// PlannerOptions carries the knobs spec section 4.D and section 6's
// plan_batch operation accept, with defaults matching the spec.
type PlannerOptions struct {
	TargetBytes  int64 // 0 means "unset": use device-available memory alone.
	SafetyFactor float64
	MinBatch     int
	MaxBatch     int
	UseAccel     bool
}

// DefaultPlannerOptions returns the spec-mandated defaults: safety
// factor 0.8, min_batch 10, max_batch 10000.
func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{
		SafetyFactor: 0.8,
		MinBatch:     10,
		MaxBatch:     10000,
		UseAccel:     true,
	}
}

// MemoryReport is the MemoryPlanner's return value: the chosen batch
// size plus the byte breakdown "for the caller's diagnostics" (spec
// section 4.D, "Reporting").
type MemoryReport struct {
	BatchSize     int
	NumBatches    int
	FixedBytes    int64
	PerPointBytes int64
	PeakBytes     int64
}

// String renders the breakdown in human IEC byte units, the same way
// the teacher's contrib/memtest and contrib/demo report memory usage
// via humanize.IBytes.
func (r MemoryReport) String() string {
	return fmt.Sprintf(
		"batch_size=%d num_batches=%d fixed=%s per_point=%s peak=%s",
		r.BatchSize, r.NumBatches,
		humanize.IBytes(uint64(r.FixedBytes)),
		humanize.IBytes(uint64(r.PerPointBytes)),
		humanize.IBytes(uint64(r.PeakBytes)),
	)
}

// perPointBytes implements spec section 4.D's "Per-data-point memory"
// formula for the given case: refArray + contribArray + selection
// bitmap bytes, per retained sequence.
func perPointBytes(c Case, l, m int) int64 {
	switch c {
	case Convolution:
		return int64(3*l*4 + l*4 + m)
	default:
		return int64(2*l*4 + l*4 + m)
	}
}

// fixedBytes implements spec section 4.D's "Fixed memory" formula:
// k*m*4 (combs) + d*w*4 (sketch) + d*h*4 (hash coeffs).
func fixedBytes(k, d, w, h, m int) int64 {
	return int64(k*m*4) + int64(d*w*4) + int64(d*h*4)
}

// deviceAvailableMemory implements the "device-available-memory
// query" of spec section 4.D: GPU-free-memory if GPU enabled, else a
// conservative default. No GPU backend ships with this engine (see
// DESIGN.md), so useAccel here only selects between a host free-RAM
// query (via z.AvailableMemory, itself backed by unix.Sysinfo on
// Linux) and the fixed 4 GiB default.
func deviceAvailableMemory(useAccel bool) int64 {
	if useAccel {
		if free, ok := z.AvailableMemory(); ok && free > 0 {
			return int64(free)
		}
	}
	return defaultDeviceMemory
}

// PlanBatch is the MemoryPlanner (spec section 4.D and the
// entry-point API's plan_batch). totalPoints is the number of
// retained sequences to be batched; l is max_active_len; k, c select
// the motif shape; delta/epsilon size the shared CMS.
func PlanBatch(totalPoints, l, k int, c Case, delta, epsilon float64, opts PlannerOptions) (MemoryReport, error) {
	if totalPoints <= 0 {
		return MemoryReport{}, newConfigError("total_points must be > 0, got %d", totalPoints)
	}
	if k <= 0 || k > l {
		return MemoryReport{}, newConfigError("k must satisfy 1 <= k <= L (k=%d, L=%d)", k, l)
	}
	if opts.SafetyFactor <= 0 || opts.SafetyFactor > 1 {
		return MemoryReport{}, newConfigError("safety_factor must be in (0,1], got %v", opts.SafetyFactor)
	}
	if opts.MinBatch <= 0 || opts.MaxBatch < opts.MinBatch {
		return MemoryReport{}, newConfigError("invalid min_batch/max_batch: %d/%d", opts.MinBatch, opts.MaxBatch)
	}

	d := int(math.Ceil(math.Log(1 / delta)))
	if d < 1 {
		d = 1
	}
	w := int(math.Ceil(math.E / epsilon))
	if w < 1 {
		w = 1
	}
	h := k
	if c == Convolution {
		h = 2*k - 1
	}

	comb := globalCombCache.Get(k, l, c)
	m := comb.M

	fixed := fixedBytes(k, d, w, h, m)
	perPoint := perPointBytes(c, l, m)

	device := deviceAvailableMemory(opts.UseAccel)
	target := int64(float64(device) * opts.SafetyFactor)
	if opts.TargetBytes > 0 && opts.TargetBytes < target {
		target = opts.TargetBytes
	}

	room := target - fixed
	if room <= 0 {
		return MemoryReport{}, newMemoryError(
			"fixed memory (%s) leaves no room under target (%s); reduce k, L, delta, or epsilon",
			humanize.IBytes(uint64(fixed)), humanize.IBytes(uint64(target)))
	}

	batch := int64(0)
	if perPoint > 0 {
		batch = room / perPoint
	} else {
		batch = int64(opts.MaxBatch)
	}

	if batch < int64(opts.MinBatch) {
		return MemoryReport{}, newMemoryError(
			"per-point memory (%s) leaves less than min_batch=%d room under target (%s)",
			humanize.IBytes(uint64(perPoint)), opts.MinBatch, humanize.IBytes(uint64(target)))
	}
	if batch > int64(opts.MaxBatch) {
		batch = int64(opts.MaxBatch)
	}
	if batch > int64(totalPoints) {
		batch = int64(totalPoints)
	}

	numBatches := (totalPoints + int(batch) - 1) / int(batch)
	peak := fixed + perPoint*batch

	return MemoryReport{
		BatchSize:     int(batch),
		NumBatches:    numBatches,
		FixedBytes:    fixed,
		PerPointBytes: perPoint,
		PeakBytes:     peak,
	}, nil
}

// resolveBatchSize implements spec section 4.C step 4: if the caller
// asked for "auto", delegate to PlanBatch; otherwise use the supplied
// positive integer as-is (a batch_size of 0 or negative is a config
// error handled by the caller).
func resolveBatchSize(totalPoints, l, k int, c Case, delta, epsilon float64, policy BatchPolicy, opts PlannerOptions) (int, error) {
	if policy.Auto {
		report, err := PlanBatch(totalPoints, l, k, c, delta, epsilon, opts)
		if err != nil {
			return 0, err
		}
		return report.BatchSize, nil
	}
	if policy.Size <= 0 {
		return 0, newConfigError("batch_size must be > 0, got %d", policy.Size)
	}
	return policy.Size, nil
}

// BatchPolicy is either "auto" (delegate to the MemoryPlanner) or a
// fixed positive batch size (spec section 6, batch_policy knob). The
// zero value is NOT auto -- use AutoBatch() or FixedBatch(n).
type BatchPolicy struct {
	Auto bool
	Size int
}

// AutoBatch requests the MemoryPlanner choose the batch size.
func AutoBatch() BatchPolicy { return BatchPolicy{Auto: true} }

// FixedBatch pins the batch size to n. FixedBatch(500) reproduces the
// legacy constant mentioned in spec section 6.
func FixedBatch(n int) BatchPolicy { return BatchPolicy{Size: n} }
