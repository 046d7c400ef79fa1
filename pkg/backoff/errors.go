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

import (
	"errors"
	"strings"
)

// IsTemporaryBackoffError reports whether err was produced while an
// operation is suppressed but will still be retried.
func IsTemporaryBackoffError(err error) bool {
	return err != nil && strings.Contains(err.Error(), TemporaryBackoffError)
}

// IsPermanentFailureError reports whether err marks an exhausted retry budget.
func IsPermanentFailureError(err error) bool {
	return err != nil && strings.Contains(err.Error(), PermanentFailureError)
}

// IsBackoffError reports whether err is either kind of backoff error.
func IsBackoffError(err error) bool {
	return IsTemporaryBackoffError(err) || IsPermanentFailureError(err)
}

// ExtractOriginalError unwraps err down to the root cause.
func ExtractOriginalError(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}

		err = next
	}

	return nil
}
