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

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// The engine's error taxonomy (spec section 7). Each kind is a
// distinct Go type so callers can discriminate with errors.As, the
// same way they would against a third-party library's own error
// types.
type (
	// ConfigError reports an invalid combination of knobs: bad delta/
	// epsilon, k<=0, k>L, missing filter_len for Convolution, mixed
	// feature variants, bad batch_size, etc.
	ConfigError struct{ msg string }
	// InputError reports an input map that is empty after dropping
	// empty sequences.
	InputError struct{ msg string }
	// MemoryError reports that the memory planner could not fit the
	// fixed and per-point costs under the requested budget.
	MemoryError struct{ msg string }
	// AcceleratorError reports that GPU execution was requested but no
	// accelerator backend is available.
	AcceleratorError struct{ msg string }
	// InternalInvariantError reports a check that should never fail
	// given a correctly validated Record. Its presence signals an
	// engine bug, not a caller mistake.
	InternalInvariantError struct{ msg string }
)

func (e *ConfigError) Error() string              { return "motif: config: " + e.msg }
func (e *InputError) Error() string                { return "motif: input: " + e.msg }
func (e *MemoryError) Error() string               { return "motif: memory: " + e.msg }
func (e *AcceleratorError) Error() string          { return "motif: accelerator: " + e.msg }
func (e *InternalInvariantError) Error() string    { return "motif: internal invariant violated: " + e.msg }

func newConfigError(format string, args ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

func newInputError(format string, args ...interface{}) error {
	return &InputError{msg: fmt.Sprintf(format, args...)}
}

func newMemoryError(format string, args ...interface{}) error {
	return &MemoryError{msg: fmt.Sprintf(format, args...)}
}

func newAcceleratorError(format string, args ...interface{}) error {
	return &AcceleratorError{msg: fmt.Sprintf(format, args...)}
}

func newInternalInvariantError(format string, args ...interface{}) error {
	return &InternalInvariantError{msg: fmt.Sprintf(format, args...)}
}

// wrap attaches additional context to an error without losing its
// underlying type for errors.As, matching the way the teacher's z
// package uses github.com/pkg/errors for layered context.
func wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.WithMessage(err, context)
}

func isConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
