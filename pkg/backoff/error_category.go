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

package backoff

import "errors"

// ErrorCategory indicates how a retrying caller should respond to an error.
type ErrorCategory int

const (
	// CategoryIgnored indicates an error that is expected or benign in the
	// current context and should NOT trigger any backoff.
	// Example: config file not present yet on first startup.
	CategoryIgnored ErrorCategory = iota

	// CategoryTransient indicates an error that is unexpected but recoverable.
	// The caller keeps retrying with backoff. If the same error repeats too
	// many times (max retries), we escalate to permanent failure.
	CategoryTransient

	// CategoryPermanent indicates a fatal, unrecoverable error. The caller
	// stops retrying and surfaces the failure, typically aborting startup.
	// Example: config file present but structurally invalid.
	CategoryPermanent
)

// CategorizedError is a wrapper that includes the underlying error plus a Category.
type CategorizedError struct {
	Err      error
	Category ErrorCategory
}

// Error returns the original error message.
func (ce *CategorizedError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying wrapped error.
func (ce *CategorizedError) Unwrap() error {
	return ce.Err
}

// IsCategory checks if the CategorizedError has the specified category.
func (ce *CategorizedError) IsCategory(category ErrorCategory) bool {
	return ce.Category == category
}

// NewIgnoredError wraps err as CategoryIgnored.
func NewIgnoredError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryIgnored}
}

// NewTransientError wraps err as CategoryTransient.
func NewTransientError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryTransient}
}

// NewPermanentError wraps err as CategoryPermanent.
func NewPermanentError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryPermanent}
}

// CategorizeError ensures that every error is at least Transient if not already a CategorizedError.
func CategorizeError(err error) error {
	if err == nil {
		return nil
	}
	var ce *CategorizedError
	if errors.As(err, &ce) {
		// Already categorized, so keep it as is.
		return err
	}
	// Otherwise, treat it as Transient by default.
	return NewTransientError(err)
}

// IsIgnoredError is a convenience checker for CategoryIgnored.
func IsIgnoredError(err error) bool {
	var ce *CategorizedError
	return errors.As(err, &ce) && ce.IsCategory(CategoryIgnored)
}

// IsTransientError is a convenience checker for CategoryTransient.
func IsTransientError(err error) bool {
	var ce *CategorizedError
	return errors.As(err, &ce) && ce.IsCategory(CategoryTransient)
}

// IsPermanentError is a convenience checker for CategoryPermanent.
func IsPermanentError(err error) bool {
	var ce *CategorizedError
	return errors.As(err, &ce) && ce.IsCategory(CategoryPermanent)
}
