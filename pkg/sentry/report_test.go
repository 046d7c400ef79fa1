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

package sentry

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("ReportIssueWithContext", func() {
	var (
		store *eventStore
		log   *zap.SugaredLogger
	)

	BeforeEach(func() {
		store = newEventStore()

		err := sentry.Init(sentry.ClientOptions{
			Dsn:       "https://test@sentry.io/123",
			Transport: &mockTransport{store: store},
		})
		Expect(err).NotTo(HaveOccurred())

		// Bypass the per-severity rate limit so every spec sees its event.
		EnableTestMode()

		log = zap.NewNop().Sugar()
	})

	AfterEach(func() {
		DisableTestMode()
		sentry.Flush(time.Second)
	})

	It("sends a warning event carrying the context as tags", func() {
		ReportIssueWithContext(errors.New("workspace missing from reports"), IssueTypeWarning, log,
			map[string]interface{}{
				"pipeline":     "reconcile",
				"stage":        "orphan_observer",
				"agent_id":     "agent-1",
				"workspace_id": "ws-1",
			})

		events := store.GetAll()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Level).To(Equal(sentry.LevelWarning))
		Expect(events[0].Tags).To(HaveKeyWithValue("agent_id", "agent-1"))
		Expect(events[0].Tags).To(HaveKeyWithValue("workspace_id", "ws-1"))
		Expect(events[0].Fingerprint).To(ContainElement("pipeline: reconcile"))
		Expect(events[0].Fingerprint).To(ContainElement("stage: orphan_observer"))
	})

	It("sends an error event carrying the context as tags", func() {
		ReportIssueWithContext(errors.New("update failed"), IssueTypeError, log,
			map[string]interface{}{"operation": "workspace_update"})

		events := store.GetAll()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Level).To(Equal(sentry.LevelError))
		Expect(events[0].Tags).To(HaveKeyWithValue("operation", "workspace_update"))
		Expect(events[0].Fingerprint).To(ContainElement("operation: workspace_update"))
	})

	It("formats the message via ReportIssuefWithContext", func() {
		ReportIssuefWithContext(IssueTypeWarning, log,
			map[string]interface{}{"agent_id": "agent-2"},
			"workspace %s missing from agent %s reports", "ws-9", "agent-2")

		events := store.GetAll()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Message).To(Equal("workspace ws-9 missing from agent agent-2 reports"))
	})

	It("debounces repeated warnings when test mode is off", func() {
		warningLastSentMutex.Lock()
		warningLastSent = time.Now().Add(-time.Hour * 24)
		warningLastSentMutex.Unlock()

		DisableTestMode()

		ReportIssueWithContext(errors.New("first"), IssueTypeWarning, log, nil)
		ReportIssueWithContext(errors.New("second"), IssueTypeWarning, log, nil)

		Expect(store.Len()).To(Equal(1))
	})
})
