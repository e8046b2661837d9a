// Copyright Ad Astra Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package analysis

import (
	"fmt"

	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// IssueSeverity classifies how serious an Issue is.
type IssueSeverity uint8

const (
	SeverityError IssueSeverity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// IssueCode is a stable numeric diagnostic code "Issues have
// stable numeric codes".
type IssueCode uint32

const (
	CodeParseError IssueCode = 1000 + iota
	CodeUnresolvedName
	CodeTypeFlowConflict
	CodeUnreachableCode
)

// DiagnosticsDepth selects which checks run.
type DiagnosticsDepth uint8

const (
	// DepthShallow runs only parser-level and name-resolution checks.
	DepthShallow DiagnosticsDepth = iota
	// DepthDeep additionally runs type-flow checks on expressions.
	DepthDeep
)

// TextEdit is a single quickfix replacement over a byte span.
type TextEdit struct {
	Span syntax.Span
	Text string
}

// Quickfix is a named, applicable fix for an Issue.
type Quickfix struct {
	Title string
	Edits []TextEdit
}

// Issue is one diagnostic finding.
type Issue struct {
	Severity  IssueSeverity
	Code      IssueCode
	Span      syntax.Span
	Message   string
	Quickfixes []Quickfix
}

// Diagnostics runs the checks selected by depth over res, grounded on the
// issue taxonomy: ParseError (handled upstream by syntax.Document.Edit
// returning an error instead of a Resolution), UnresolvedName (shallow),
// TypeFlowConflict and UnreachableCode (deep).
func Diagnostics(res *Resolution, depth DiagnosticsDepth) []Issue {
	var issues []Issue

	for _, ref := range res.Unresolved {
		n, ok := res.doc.Node(ref)
		if !ok {
			continue
		}

		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeUnresolvedName,
			Span:     n.Span,
			Message:  fmt.Sprintf("cannot resolve name %q", n.Text),
			Quickfixes: []Quickfix{
				{
					Title: fmt.Sprintf("Import %q", n.Text),
					Edits: []TextEdit{{Span: syntax.Span{Start: 0, End: 0}, Text: fmt.Sprintf("(import %s)\n", n.Text)}},
				},
			},
		})
	}

	if depth == DepthDeep {
		issues = append(issues, deepIssues(res)...)
	}

	return issues
}

// deepIssues runs checks that require more than name resolution. This
// analyzer carries no static type checker, so "type flow" is limited to one
// structural fact it can prove without one: a call form whose head position
// is a literal can never be callable, so it is always a TypeFlowConflict.
func deepIssues(res *Resolution) []Issue {
	var issues []Issue

	for i := 0; i < res.doc.NodeCount(); i++ {
		n, ok := res.doc.Node(syntax.NodeRef(i))
		if !ok || n.Kind != syntax.NodeCall || len(n.Children) == 0 {
			continue
		}

		head, ok := res.doc.Node(n.Children[0])
		if !ok {
			continue
		}

		switch head.Kind {
		case syntax.NodeNumberLit, syntax.NodeStringLit, syntax.NodeBoolLit, syntax.NodeNilLit:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     CodeTypeFlowConflict,
				Span:     head.Span,
				Message:  fmt.Sprintf("%q is a literal and cannot be called", head.Text),
			})
		}
	}

	return issues
}
