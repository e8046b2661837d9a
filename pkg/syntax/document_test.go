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
package syntax

import "testing"

func TestParseSimpleCall(t *testing.T) {
	doc, err := Open(1, `(vec 1.0 2.0)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root, ok := doc.Node(doc.Root())
	if !ok {
		t.Fatal("root should resolve")
	}

	if len(root.Children) != 1 {
		t.Fatalf("got %d top-level forms, want 1", len(root.Children))
	}

	call, ok := doc.Node(root.Children[0])
	if !ok || call.Kind != NodeCall {
		t.Fatalf("got %v, want NodeCall", call)
	}

	if call.Text != "vec" {
		t.Fatalf("got call target %q, want vec", call.Text)
	}
}

func TestParseLetFnIfImport(t *testing.T) {
	src := `
		(import math)
		(let x 1)
		(fn (y) (if x y x))
	`

	doc, err := Open(1, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root, _ := doc.Node(doc.Root())

	wantKinds := []NodeKind{NodeImport, NodeLet, NodeFn}
	if len(root.Children) != len(wantKinds) {
		t.Fatalf("got %d forms, want %d", len(root.Children), len(wantKinds))
	}

	for i, want := range wantKinds {
		n, _ := doc.Node(root.Children[i])
		if n.Kind != want {
			t.Fatalf("form %d: got %v, want %v", i, n.Kind, want)
		}
	}
}

func TestDottedFieldAccessSugar(t *testing.T) {
	doc, err := Open(1, `obj.x`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root, _ := doc.Node(doc.Root())
	field, _ := doc.Node(root.Children[0])

	if field.Kind != NodeField || field.Text != "x" {
		t.Fatalf("got %+v, want Field(x)", field)
	}

	base, _ := doc.Node(field.Children[0])
	if base.Kind != NodeIdent || base.Text != "obj" {
		t.Fatalf("got %+v, want Ident(obj)", base)
	}
}

func TestUnterminatedListIsSyntaxError(t *testing.T) {
	if _, err := Open(1, `(vec 1.0 2.0`); err == nil {
		t.Fatal("expected a syntax error for an unterminated list")
	}
}

func TestClassIndexTracksIdentsByName(t *testing.T) {
	doc, err := Open(1, `(let x 1) (+ x x)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members := doc.ClassIndex().Members(Ident("x"))
	if len(members) != 3 {
		t.Fatalf("got %d occurrences of x, want 3", len(members))
	}
}

func TestEditReportsChangedClasses(t *testing.T) {
	doc, err := Open(1, `(let x 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed, err := doc.Edit(`(let x 1) (let y 2)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false

	for _, c := range changed {
		if c.Tag == ClassIdent && c.Name == "y" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected Ident(y) to be reported changed, got %+v", changed)
	}

	if doc.Revision() != 1 {
		t.Fatalf("got revision %d, want 1", doc.Revision())
	}
}

func TestEditWithSyntaxErrorLeavesDocumentUnchanged(t *testing.T) {
	doc, err := Open(1, `(let x 1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := doc.Edit(`(let x 1`); err == nil {
		t.Fatal("expected a syntax error")
	}

	if doc.Revision() != 0 {
		t.Fatalf("got revision %d, want 0 (edit should not have committed)", doc.Revision())
	}

	if doc.Text() != `(let x 1)` {
		t.Fatalf("text should be unchanged after a failed edit")
	}
}
