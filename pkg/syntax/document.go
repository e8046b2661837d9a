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

import (
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// Revision is a committed version identifier of a document's text buffer.
// Revisions are strictly increasing per Document.
type Revision int

// ModuleSymbol tags one node of the CST with the class the analyzer should
// treat it as, the entry point its `symbols` operation returns.
type ModuleSymbol struct {
	Ref  NodeRef
	Kind NodeKind
}

// Document is the incrementally maintained (text, CST, class index) triple
//. Document re-parses in full on each Edit (a "pull-based"
// incremental strategy, explicitly admissible so long as
// determinism holds) but retains the prior ClassIndex so callers can learn
// exactly which classes changed.
type Document struct {
	id       runtime.DocumentID
	text     string
	nodes    []Node
	root     NodeRef
	classIdx *ClassIndex
	revision Revision
}

// Open parses text into a fresh Document at revision 0.
func Open(id runtime.DocumentID, text string) (*Document, error) {
	nodes, root, err := ParseModule(text)
	if err != nil {
		return nil, err
	}

	return &Document{
		id:       id,
		text:     text,
		nodes:    nodes,
		root:     root,
		classIdx: BuildClassIndex(nodes),
	}, nil
}

// ID returns this document's identity, used to construct Origins for Cells
// produced while analyzing or executing it.
func (d *Document) ID() runtime.DocumentID { return d.id }

// Text returns the full current source text.
func (d *Document) Text() string { return d.text }

// Root returns the reference to the document's root node.
func (d *Document) Root() NodeRef { return d.root }

// Revision returns the currently committed revision.
func (d *Document) Revision() Revision { return d.revision }

// ClassIndex returns the class index as of the current revision.
func (d *Document) ClassIndex() *ClassIndex { return d.classIdx }

// Node resolves ref against this document's node arena.
func (d *Document) Node(ref NodeRef) (*Node, bool) {
	return ref.Deref(d)
}

// NodeCount returns the number of nodes in the current revision's arena,
// letting callers enumerate every NodeRef from 0 to NodeCount()-1.
func (d *Document) NodeCount() int { return len(d.nodes) }

// NodeAt returns the innermost node whose span contains offset, used by the
// analyzer to map a cursor position to a CST node for hover/completion.
func (d *Document) NodeAt(offset int) NodeRef {
	best := d.root
	bestLen := d.nodes[d.root].Span.Len()

	for i, n := range d.nodes {
		if n.Span.Contains(offset) && n.Span.Len() <= bestLen {
			best = NodeRef(i)
			bestLen = n.Span.Len()
		}
	}

	return best
}

// Edit replaces the entire text buffer and re-parses it, returning the set
// of ScriptClasses whose membership changed relative to the prior revision
// (for cache invalidation) and advancing Revision. A syntax error
// leaves the document at its prior revision unchanged, matching
// "the semantic graph is a pure function of the text buffer at a committed
// revision": an uncommitted, invalid edit must not corrupt that
// function's domain.
//
// Host adapters implementing the LSP query surface's incremental `change`
// operation are expected to apply a range-edit to their own copy of the
// text and call Edit with the resulting full buffer; Document itself has no
// notion of a byte-range patch.
func (d *Document) Edit(newText string) ([]ScriptClass, error) {
	nodes, root, err := ParseModule(newText)
	if err != nil {
		return nil, err
	}

	newIdx := BuildClassIndex(nodes)
	changed := d.classIdx.Changed(newIdx)

	d.text = newText
	d.nodes = nodes
	d.root = root
	d.classIdx = newIdx
	d.revision++

	return changed, nil
}

// Symbols returns every node tagged with a script-visible class, backing
// the `symbols(revision)` query. It takes no revision argument and always
// reports the current revision's symbols; ModuleReadGuard (package
// analysis) is what pins a revision across a sequence of queries.
func (d *Document) Symbols() []ModuleSymbol {
	symbols := make([]ModuleSymbol, 0, len(d.nodes))

	for i, n := range d.nodes {
		switch n.Kind {
		case NodeIdent, NodeField, NodeThis, NodeCrate, NodeNumberLit, NodeStringLit, NodeBoolLit, NodeNilLit:
			symbols = append(symbols, ModuleSymbol{Ref: NodeRef(i), Kind: n.Kind})
		default:
			if n.IsScope() {
				symbols = append(symbols, ModuleSymbol{Ref: NodeRef(i), Kind: n.Kind})
			}
		}
	}

	return symbols
}
