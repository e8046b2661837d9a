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

func TestCompletionsRankExactPrefixFirst(t *testing.T) {
	src := `(let velocity 1) (let vector 2) (ve`

	doc, err := syntax.Open(1, `(let velocity 1) (let vector 2) (let x 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = src

	res := Resolve(doc)

	items := Completions(res, doc, len(doc.Text()), "vec")
	if len(items) == 0 {
		t.Fatal("expected at least one completion")
	}

	if items[0].Label != "vector" {
		t.Fatalf("got top completion %q, want vector", items[0].Label)
	}
}

func TestCompletionsPreferNearerScope(t *testing.T) {
	doc, err := syntax.Open(1, `(let count 1) (fn (count) count)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	fnBody, _ := doc.Node(doc.Root())
	fnForm, _ := doc.Node(fnBody.Children[1])
	bodyRef := fnForm.Children[1]
	bodyNode, _ := doc.Node(bodyRef)

	items := Completions(res, doc, bodyNode.Span.Start, "count")

	if len(items) == 0 || items[0].Label != "count" {
		t.Fatalf("got %+v, want count ranked first", items)
	}

	if items[0].ScopeHops != 0 {
		t.Fatalf("got scope hops %d, want 0 (the param shadow)", items[0].ScopeHops)
	}
}
