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
	"testing"

	"github.com/ad-astra-go/adastra/pkg/syntax"
)

func TestDiagnosticsReportsUnresolvedName(t *testing.T) {
	doc, err := syntax.Open(1, `(+ missing 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)
	issues := Diagnostics(res, DepthShallow)

	if len(issues) != 1 || issues[0].Code != CodeUnresolvedName {
		t.Fatalf("got %+v, want one UnresolvedName issue", issues)
	}

	if len(issues[0].Quickfixes) != 1 {
		t.Fatalf("expected an import quickfix to be offered")
	}
}

func TestDiagnosticsDeepFlagsCallingALiteral(t *testing.T) {
	doc, err := syntax.Open(1, `(1 2 3)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if len(Diagnostics(res, DepthShallow)) != 0 {
		t.Fatalf("shallow diagnostics should not flag call-of-literal")
	}

	deep := Diagnostics(res, DepthDeep)
	if len(deep) != 1 || deep[0].Code != CodeTypeFlowConflict {
		t.Fatalf("got %+v, want one TypeFlowConflict issue", deep)
	}
}

func TestDiagnosticsCleanDocumentHasNoIssues(t *testing.T) {
	doc, err := syntax.Open(1, `(let x 1) (+ x x)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if issues := Diagnostics(res, DepthDeep); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}
