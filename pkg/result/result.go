// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package result implements the railway-style control flow used by the
// pipeline packages. A pipeline threads a context value through a chain of
// stages; each stage either extends the context (Map) or may fail it
// (AndThen). Once a chain carries an error, all later stages are skipped and
// the error travels to the end unchanged.
//
// Expected failures are values, never panics. The only panic in this package
// is MustMatch, the guard against a pipeline outcome nobody wrote a handler
// for - that is a programming error and must crash loudly instead of being
// swallowed.
package result

import "fmt"

// Result is a tagged union: either a success value or an *Error.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a success value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure.
func Err[T any](err *Error) Result[T] {
	if err == nil {
		// An Err without an error is a bug in the calling stage.
		panic("result: Err called with nil error")
	}
	return Result[T]{err: err}
}

// IsOk reports whether the result carries a success value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr reports whether the result carries an error.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Unwrap returns the success value and the error; exactly one is meaningful.
func (r Result[T]) Unwrap() (T, *Error) {
	return r.value, r.err
}

// AndThen runs fn on a success value. fn may fail the chain. On an error
// result fn is not invoked and the error is passed through.
func (r Result[T]) AndThen(fn func(T) Result[T]) Result[T] {
	if r.err != nil {
		return r
	}
	return fn(r.value)
}

// Map runs fn on a success value. fn cannot fail; stages invoked via Map must
// handle partial failures internally (skip and log) so that one bad entry
// never aborts the whole pipeline. On an error result fn is not invoked.
func (r Result[T]) Map(fn func(T) T) Result[T] {
	if r.err != nil {
		return r
	}
	return Ok(fn(r.value))
}

// MapTo converts a success value into a different type at the end of a chain.
func MapTo[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// MustMatch panics with an "unmatched result" error. Callers pattern-match a
// finished pipeline against the known success and error variants and call
// this in the default branch.
func MustMatch[T any](r Result[T]) {
	panic(fmt.Sprintf("unmatched result: %+v", r))
}
