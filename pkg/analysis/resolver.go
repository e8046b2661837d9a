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
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// Resolution is the result of a single resolve pass over a document: every
// identifier use-site's resolved Binding (or its absence), and the scope
// enclosing every node, keyed by the node that needed one to be resolved.
type Resolution struct {
	doc *syntax.Document
	// UseSites maps an Ident node to the Binding it resolved to.
	UseSites map[syntax.NodeRef]*Binding
	// Unresolved lists Ident nodes that failed to resolve against any
	// enclosing scope.
	Unresolved []syntax.NodeRef
	// ScopeAt maps every node to the Scope enclosing it, used by
	// completions to find the candidate list at a cursor position.
	ScopeAt map[syntax.NodeRef]*Scope
	// Root is the top-level scope of the document.
	Root *Scope
}

type resolver struct {
	doc *syntax.Document
	res *Resolution
}

// Resolve walks doc's CST, building its scope tree and resolving every
// identifier reference against it, grounded on pkg/corset/resolver.go's
// single-pass resolve-and-bind traversal.
func Resolve(doc *syntax.Document) *Resolution {
	r := &resolver{
		doc: doc,
		res: &Resolution{
			doc:      doc,
			UseSites: make(map[syntax.NodeRef]*Binding),
			ScopeAt:  make(map[syntax.NodeRef]*Scope),
		},
	}

	root := newScope(nil, doc.Root())
	r.res.Root = root
	r.walkBlock(childrenOf(doc, doc.Root()), root)

	return r.res
}

func childrenOf(doc *syntax.Document, ref syntax.NodeRef) []syntax.NodeRef {
	n, ok := doc.Node(ref)
	if !ok {
		return nil
	}

	return n.Children
}

// walkBlock processes a sequence of sibling forms left-to-right, allowing
// each `let` to extend scope for the remainder of the sequence, matching
// the "let-bindings are visible to the rest of their enclosing block"
// contract documented on Scope.
func (r *resolver) walkBlock(forms []syntax.NodeRef, scope *Scope) {
	for _, ref := range forms {
		r.res.ScopeAt[ref] = scope

		n, ok := r.doc.Node(ref)
		if !ok {
			continue
		}

		switch n.Kind {
		case syntax.NodeLet:
			r.walkLet(ref, n, scope)
		case syntax.NodeFn:
			r.walkFn(ref, n, scope)
		case syntax.NodeImport:
			r.walkImport(n, scope)
		case syntax.NodeWhile:
			r.walkWhile(n, scope)
		case syntax.NodeSet:
			for _, c := range n.Children {
				r.walkExpr(c, scope)
			}
		default:
			r.walkExpr(ref, scope)
		}
	}
}

func (r *resolver) walkLet(ref syntax.NodeRef, n *syntax.Node, scope *Scope) {
	// (let <name> <init>): resolve init against the scope *before* binding
	// the name, so `let x = x` refers to an outer x, never itself.
	if len(n.Children) < 2 {
		return
	}

	r.walkExpr(n.Children[1], scope)

	nameNode, ok := r.doc.Node(n.Children[0])
	if !ok || nameNode.Kind != syntax.NodeIdent {
		return
	}

	scope.Bind(&Binding{Name: nameNode.Text, Kind: BindLet, Decl: ref})
}

func (r *resolver) walkFn(ref syntax.NodeRef, n *syntax.Node, scope *Scope) {
	// (fn (<params...>) <body...>)
	if len(n.Children) < 1 {
		return
	}

	fnScope := newScope(scope, ref)

	paramList, ok := r.doc.Node(n.Children[0])
	if ok {
		for _, p := range paramList.Children {
			pn, ok := r.doc.Node(p)
			if !ok || pn.Kind != syntax.NodeIdent {
				continue
			}

			fnScope.Bind(&Binding{Name: pn.Text, Kind: BindParam, Decl: p})
		}
	}

	r.res.ScopeAt[n.Children[0]] = fnScope
	r.walkBlock(n.Children[1:], fnScope)
}

// walkWhile resolves (while <cond> <body...>) in the enclosing scope;
// a loop body introduces no new lexical scope of its own, matching
// the grammar's other non-binding forms.
func (r *resolver) walkWhile(n *syntax.Node, scope *Scope) {
	if len(n.Children) < 1 {
		return
	}

	r.walkExpr(n.Children[0], scope)
	r.walkBlock(n.Children[1:], scope)
}

func (r *resolver) walkImport(n *syntax.Node, scope *Scope) {
	for _, c := range n.Children {
		cn, ok := r.doc.Node(c)
		if !ok || cn.Kind != syntax.NodeIdent {
			continue
		}

		scope.Bind(&Binding{Name: cn.Text, Kind: BindImport, Decl: c})
	}
}

// walkExpr resolves every Ident reachable from ref against scope, recording
// hits in UseSites and misses in Unresolved. Field bases are resolved the
// same way; the field name itself is a structural member, not a lexical
// binding, and is not resolved here or checked by any diagnostic.
func (r *resolver) walkExpr(ref syntax.NodeRef, scope *Scope) {
	n, ok := r.doc.Node(ref)
	if !ok {
		return
	}

	r.res.ScopeAt[ref] = scope

	switch n.Kind {
	case syntax.NodeIdent:
		if b, found := scope.Resolve(n.Text); found {
			r.res.UseSites[ref] = b
		} else {
			r.res.Unresolved = append(r.res.Unresolved, ref)
		}
	case syntax.NodeIf:
		for _, c := range n.Children {
			r.walkExpr(c, scope)
		}
	case syntax.NodeCall:
		if len(n.Children) > 0 {
			r.walkCallHead(n.Children[0], scope)

			for _, c := range n.Children[1:] {
				r.walkExpr(c, scope)
			}
		}
	case syntax.NodeList, syntax.NodeField:
		for _, c := range n.Children {
			r.walkExpr(c, scope)
		}
	default:
		// This, Crate, and literal nodes carry no nested references.
	}
}

// walkCallHead resolves a call's head position. A bare identifier head that
// misses lexical scope is not a resolver error: compileCall treats any
// call head absent from UseSites as a reference to a global/prelude
// component (vec, +, and, ...) resolved at compile time, so it is left out
// of Unresolved rather than flagged. A non-identifier head (a dotted field
// access, or another call/expression producing a callable) still walks
// through the normal Ident rules for its own nested references.
func (r *resolver) walkCallHead(ref syntax.NodeRef, scope *Scope) {
	n, ok := r.doc.Node(ref)
	if !ok {
		return
	}

	if n.Kind != syntax.NodeIdent {
		r.walkExpr(ref, scope)
		return
	}

	r.res.ScopeAt[ref] = scope

	if b, found := scope.Resolve(n.Text); found {
		r.res.UseSites[ref] = b
	}
}
