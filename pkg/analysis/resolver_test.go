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

func TestResolveLetVisibleToLaterSiblings(t *testing.T) {
	doc, err := syntax.Open(1, `(let x 1) (+ x x)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if len(res.Unresolved) != 0 {
		t.Fatalf("expected no unresolved names, got %v", res.Unresolved)
	}

	if len(res.UseSites) != 2 {
		t.Fatalf("expected 2 use-sites for x, got %d", len(res.UseSites))
	}
}

func TestResolveLetCannotSeeItself(t *testing.T) {
	doc, err := syntax.Open(1, `(let x x)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if len(res.Unresolved) != 1 {
		t.Fatalf("expected the init x to be unresolved, got %v", res.Unresolved)
	}
}

func TestResolveFnParamsShadowOuterScope(t *testing.T) {
	doc, err := syntax.Open(1, `(let x 1) (fn (x) x)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if len(res.Unresolved) != 0 {
		t.Fatalf("expected no unresolved names, got %v", res.Unresolved)
	}

	for ref, b := range res.UseSites {
		n, _ := doc.Node(ref)
		if n.Text == "x" && b.Kind != BindParam {
			t.Fatalf("expected body x to resolve to the param, got %v", b.Kind)
		}
	}
}

func TestResolveImportBinding(t *testing.T) {
	doc, err := syntax.Open(1, `(import math) (math.sqrt 4)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if len(res.Unresolved) != 0 {
		t.Fatalf("expected math to resolve via import, got unresolved: %v", res.Unresolved)
	}
}

func TestResolveUndeclaredNameIsUnresolved(t *testing.T) {
	doc, err := syntax.Open(1, `(+ y 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(doc)

	if len(res.Unresolved) != 1 {
		t.Fatalf("expected y to be unresolved, got %v", res.Unresolved)
	}
}
