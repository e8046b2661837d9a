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

// Package analysis implements the Semantic Analyzer: scope/binding
// resolution, diagnostics, completions, hover descriptions, and references,
// over a package syntax.Document.
//
// Scope and binding resolution are grounded on go-corset's
// pkg/corset/{scope,environment,resolver,binding,symbol}.go, generalized
// from Corset's module/column name space to Ad Astra's lexical scope tree
// of let-bindings, function parameters, and host package imports.
package analysis

import (
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// BindingKind distinguishes what introduced a binding.
type BindingKind uint8

const (
	BindLet BindingKind = iota
	BindParam
	BindImport
)

func (k BindingKind) String() string {
	switch k {
	case BindLet:
		return "let"
	case BindParam:
		return "param"
	case BindImport:
		return "import"
	default:
		return "unknown"
	}
}

// Binding records one name introduced into a Scope.
type Binding struct {
	Name string
	Kind BindingKind
	Decl syntax.NodeRef
}

// Scope is one lexical region of the scope tree, grounded on
// pkg/corset/scope.go's ModuleScope: a parent pointer plus a name-to-binding
// map, searched outward on miss.
type Scope struct {
	parent   *Scope
	bindings map[string]*Binding
	// Introducer is the CST node that opened this scope (NodeRoot or
	// NodeFn); NodeLet does not open a new Scope value, it adds a binding
	// to the enclosing one, since let-bindings are visible to the rest of
	// their enclosing block rather than nesting indefinitely.
	Introducer syntax.NodeRef
}

func newScope(parent *Scope, introducer syntax.NodeRef) *Scope {
	return &Scope{parent: parent, bindings: make(map[string]*Binding), Introducer: introducer}
}

// Bind attempts to introduce name into this scope, returning false if the
// name is already bound in this exact scope (shadowing an outer scope's
// binding of the same name is permitted, per Scope.Bind in pkg/corset's
// design: only same-scope redeclaration is rejected). The resolver ignores
// the result, so the first binding of a name in a scope is the one kept.
func (s *Scope) Bind(b *Binding) bool {
	if _, exists := s.bindings[b.Name]; exists {
		return false
	}

	s.bindings[b.Name] = b

	return true
}

// Resolve looks up name in this scope, then recursively in enclosing
// scopes, mirroring pkg/corset/resolver.go's outward search.
func (s *Scope) Resolve(name string) (*Binding, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if b, ok := scope.bindings[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// Depth returns the number of parent hops from s to the scope that bound
// name, or -1 if unresolved. Used by the closeness scorer's scope-distance
// term.
func (s *Scope) Depth(name string) int {
	depth := 0

	for scope := s; scope != nil; scope = scope.parent {
		if _, ok := scope.bindings[name]; ok {
			return depth
		}

		depth++
	}

	return -1
}

// Owns reports whether b was bound directly in this scope (not an ancestor),
// used by the compiler to tell a routine's own bindings apart from values it
// must capture from an enclosing scope.
func (s *Scope) Owns(b *Binding) bool {
	return s.bindings[b.Name] == b
}

// Names returns every name visible from this scope (including enclosing
// scopes), nearest first, used to enumerate completion candidates.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)

	var names []string

	for scope := s; scope != nil; scope = scope.parent {
		for name := range scope.bindings {
			if !seen[name] {
				seen[name] = true

				names = append(names, name)
			}
		}
	}

	return names
}
