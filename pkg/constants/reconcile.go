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
	// DefaultFullReconciliationIntervalSeconds is how often agents are told
	// to send a full report of every workspace they manage.
	DefaultFullReconciliationIntervalSeconds = 3600

	// DefaultPartialReconciliationIntervalSeconds is how often agents are
	// told to send a partial report of changed workspaces.
	DefaultPartialReconciliationIntervalSeconds = 10

	// DefaultOrphanGraceThreshold is how long a workspace may go unreported
	// before it is flagged as orphaned. It must comfortably exceed the full
	// reconciliation interval so a healthy agent never trips it.
	DefaultOrphanGraceThreshold = 2 * time.Hour

	// DefaultMaxConcurrentUpdates bounds the per-request worker pool that
	// persists actual state updates.
	DefaultMaxConcurrentUpdates = 8
)
