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
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// reportFatal sends a fatal error to Sentry, logs it with a full stack trace
// and panics. It never returns.
func reportFatal(err error, log *zap.SugaredLogger) {
	log.Error("The workspace server has encountered a fatal error and will now terminate.")
	log.Errorf("Error: %s", err)
	log.Errorf("Stack trace: %s", string(debug.Stack()))

	event := createSentryEvent(sentry.LevelFatal, err)
	sendSentryEvent(event)
	sentry.Flush(time.Second * 5)

	log.Panic("Fatal error")
}

// Non-fatal reports are rate limited to one per two hours per severity so a
// recurring failure does not flood the project.
var (
	errorLastSent      = time.Now().Add(-time.Hour * 24)
	errorLastSentMutex sync.Mutex

	warningLastSent      = time.Now().Add(-time.Hour * 24)
	warningLastSentMutex sync.Mutex
)

// reportError logs err and forwards it to Sentry, subject to rate limiting.
func reportError(err error, log *zap.SugaredLogger) {
	errorLastSentMutex.Lock()
	defer errorLastSentMutex.Unlock()

	if shouldDebounceErrors && time.Since(errorLastSent) < time.Hour*2 {
		return
	}

	log.Error(err)
	event := createSentryEvent(sentry.LevelError, err)
	sendSentryEvent(event)
	errorLastSent = time.Now()
}

// reportWarning logs err as a warning and forwards it to Sentry, subject to
// rate limiting.
func reportWarning(err error, log *zap.SugaredLogger) {
	warningLastSentMutex.Lock()
	defer warningLastSentMutex.Unlock()

	if shouldDebounceErrors && time.Since(warningLastSent) < time.Hour*2 {
		return
	}

	log.Warn(err)
	event := createSentryEvent(sentry.LevelWarning, err)
	sendSentryEvent(event)
	warningLastSent = time.Now()
}

// reportFatalWithContext is reportFatal with context tags attached to the
// event. It never returns.
func reportFatalWithContext(err error, log *zap.SugaredLogger, context map[string]interface{}) {
	log.Error("The workspace server has encountered a fatal error and will now terminate.")
	log.Errorf("Error: %s", err)
	log.Errorf("Stack trace: %s", string(debug.Stack()))

	event := createSentryEventWithContext(sentry.LevelFatal, err, context)
	sendSentryEvent(event)
	sentry.Flush(time.Second * 5)

	log.Panic("Fatal error")
}

// reportErrorWithContext is reportError with context tags attached to the
// event. It shares the error rate limit with reportError.
func reportErrorWithContext(err error, log *zap.SugaredLogger, context map[string]interface{}) {
	errorLastSentMutex.Lock()
	defer errorLastSentMutex.Unlock()

	if shouldDebounceErrors && time.Since(errorLastSent) < time.Hour*2 {
		return
	}

	log.Error(err)
	event := createSentryEventWithContext(sentry.LevelError, err, context)
	sendSentryEvent(event)
	errorLastSent = time.Now()
}

// reportWarningWithContext is reportWarning with context tags attached to the
// event. It shares the warning rate limit with reportWarning.
func reportWarningWithContext(err error, log *zap.SugaredLogger, context map[string]interface{}) {
	warningLastSentMutex.Lock()
	defer warningLastSentMutex.Unlock()

	if shouldDebounceErrors && time.Since(warningLastSent) < time.Hour*2 {
		return
	}

	log.Warn(err)
	event := createSentryEventWithContext(sentry.LevelWarning, err, context)
	sendSentryEvent(event)
	warningLastSent = time.Now()
}
