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

package constants

import "time"

const (
	// APIShutdownTimeout is how long in-flight requests get to finish after
	// a termination signal before the server is torn down.
	APIShutdownTimeout = 10 * time.Second

	// APIReadHeaderTimeout guards against slow-header clients holding
	// connections open.
	APIReadHeaderTimeout = 5 * time.Second

	// ReconcileRequestTimeout bounds a single reconcile round trip,
	// including all persistence work.
	ReconcileRequestTimeout = 30 * time.Second
)
