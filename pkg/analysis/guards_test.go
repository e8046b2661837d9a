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
	"math"
	"testing"

	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// TestIncrementalEditRefreshesDiagnosticsAndCompletions exercises an
// UnresolvedName diagnostic becoming resolved after an edit introduces the
// missing binding, with a completion request against the new text scoring
// the prefix match "tot" of "total" at 0.9·3/5.
func TestIncrementalEditRefreshesDiagnosticsAndCompletions(t *testing.T) {
	doc, err := syntax.Open(1, `(+ total 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := OpenModule(doc)

	g := ModuleRead(m)
	issues := g.Diagnostics(DepthShallow)
	g.Release()

	if len(issues) != 1 || issues[0].Code != CodeUnresolvedName {
		t.Fatalf("got %+v, want one UnresolvedName issue before the fix", issues)
	}

	w := ModuleWrite(m)
	if _, err := w.Edit(`(let total 0) (+ total 1)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Release()

	g = ModuleRead(m)
	defer g.Release()

	if issues := g.Diagnostics(DepthShallow); len(issues) != 0 {
		t.Fatalf("expected no issues after binding total, got %+v", issues)
	}

	items := g.Completions(len(doc.Text()), "tot")
	if len(items) == 0 || items[0].Label != "total" {
		t.Fatalf("got %+v, want total ranked first", items)
	}

	if want := 0.9 * 3 / 5; math.Abs(items[0].Score-want) > 1e-9 {
		t.Fatalf("got score %v for a prefix match, want %v", items[0].Score, want)
	}
}

// TestApplyQuickfixInsertsImportAndResolves exercises its "a quickfix
// that can be applied to the document": fixing an UnresolvedName by
// inserting the offered import.
func TestApplyQuickfixInsertsImportAndResolves(t *testing.T) {
	doc, err := syntax.Open(1, `(math.sqrt 4)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := OpenModule(doc)

	g := ModuleRead(m)
	issues := g.Diagnostics(DepthShallow)
	g.Release()

	if len(issues) != 1 {
		t.Fatalf("got %+v, want one UnresolvedName issue", issues)
	}

	fix := issues[0].Quickfixes[0]

	w := ModuleWrite(m)
	if _, err := w.ApplyQuickfix(fix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Release()

	g = ModuleRead(m)
	defer g.Release()

	if issues := g.Diagnostics(DepthShallow); len(issues) != 0 {
		t.Fatalf("expected the quickfix to resolve math, got %+v", issues)
	}
}
