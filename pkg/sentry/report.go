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
	"fmt"

	"go.uber.org/zap"
)

type IssueType string

const (
	IssueTypeWarning IssueType = "warning"
	IssueTypeError   IssueType = "error"
	IssueTypeFatal   IssueType = "fatal"
)

func ReportIssue(err error, issueType IssueType, log *zap.SugaredLogger) {
	if log == nil {
		// If logger initialization failed somehow, create a no-op logger to avoid nil panics
		log = zap.NewNop().Sugar()
	}

	switch issueType {
	case IssueTypeFatal:
		reportFatal(err, log)
	case IssueTypeError:
		reportError(err, log)
	case IssueTypeWarning:
		reportWarning(err, log)
	}
}

func ReportIssuef(issueType IssueType, log *zap.SugaredLogger, template string, args ...interface{}) {
	ReportIssue(fmt.Errorf(template, args...), issueType, log)
}

// ReportIssueWithContext reports an issue with additional context data that will be included in Sentry.
func ReportIssueWithContext(err error, issueType IssueType, log *zap.SugaredLogger, context map[string]interface{}) {
	if log == nil {
		// If logger initialization failed somehow, create a no-op logger to avoid nil panics
		log = zap.NewNop().Sugar()
	}

	switch issueType {
	case IssueTypeFatal:
		reportFatalWithContext(err, log, context)
	case IssueTypeError:
		reportErrorWithContext(err, log, context)
	case IssueTypeWarning:
		reportWarningWithContext(err, log, context)
	}
}

// ReportIssuefWithContext formats an error message and reports it with additional context data.
func ReportIssuefWithContext(issueType IssueType, log *zap.SugaredLogger, context map[string]interface{}, template string, args ...interface{}) {
	ReportIssueWithContext(fmt.Errorf(template, args...), issueType, log, context)
}

// Helper functions for common error patterns

// ReportPipelineError reports a pipeline stage failure with proper context.
func ReportPipelineError(log *zap.SugaredLogger, pipeline string, stage string, operation string, err error) {
	context := map[string]interface{}{
		"pipeline":  pipeline,
		"stage":     stage,
		"operation": operation,
	}
	ReportIssueWithContext(err, IssueTypeError, log, context)
}

// ReportPipelineErrorf formats a pipeline stage failure message and reports it with proper context.
func ReportPipelineErrorf(log *zap.SugaredLogger, pipeline string, stage string, operation string, template string, args ...interface{}) {
	context := map[string]interface{}{
		"pipeline":  pipeline,
		"stage":     stage,
		"operation": operation,
	}
	ReportIssuefWithContext(IssueTypeError, log, context, template, args...)
}

// ReportWorkspaceError reports a workspace-scoped error with proper context.
func ReportWorkspaceError(log *zap.SugaredLogger, agentID string, workspaceID string, operation string, err error) {
	context := map[string]interface{}{
		"agent_id":     agentID,
		"workspace_id": workspaceID,
		"operation":    operation,
	}
	ReportIssueWithContext(err, IssueTypeError, log, context)
}

// ReportWorkspaceErrorf formats a workspace-scoped error message and reports it with proper context.
func ReportWorkspaceErrorf(log *zap.SugaredLogger, agentID string, workspaceID string, operation string, template string, args ...interface{}) {
	context := map[string]interface{}{
		"agent_id":     agentID,
		"workspace_id": workspaceID,
		"operation":    operation,
	}
	ReportIssuefWithContext(IssueTypeError, log, context, template, args...)
}
