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
package lsp

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/protocol"
	lspuri "go.lsp.dev/uri"

	"github.com/ad-astra-go/adastra/pkg/analysis"
	"github.com/ad-astra-go/adastra/pkg/prototype"
	"github.com/ad-astra-go/adastra/pkg/runtime"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

var log = logrus.WithField("component", "lsp")

// InlayHint is the out-of-band payload its `inlay_hint(origin, label,
// tooltip)` channel carries from a running script back to the editor. It is
// a local shape rather than protocol.InlayHint: only Range, Position,
// Diagnostic, DiagnosticSeverity, CompletionItem, Hover, and Location are
// committed protocol wire types here (per the domain stack), and this
// value is built from a runtime.Origin the adapter has not yet mapped to a
// document URI.
type InlayHint struct {
	URI     lspuri.URI
	Range   protocol.Range
	Label   string
	Tooltip string
}

// Server holds every open ScriptModule and answers the LSP query surface in
// go.lsp.dev/protocol wire types, translating offsets and NodeRefs to and
// from Positions and Ranges. It is safe for concurrent use.
type Server struct {
	mu      sync.RWMutex
	modules map[lspuri.URI]*analysis.ScriptModule
	docURIs map[runtime.DocumentID]lspuri.URI
	pkgs    []*prototype.Package
	nextDoc uint64

	hints chan InlayHint
}

// NewServer constructs a Server exposing pkgs to every module's completion
// and hover queries, the way a host process registers its packages once at
// startup and shares them across every document it opens.
func NewServer(pkgs ...*prototype.Package) *Server {
	return &Server{
		modules: make(map[lspuri.URI]*analysis.ScriptModule),
		docURIs: make(map[runtime.DocumentID]lspuri.URI),
		pkgs:    pkgs,
		hints:   make(chan InlayHint, 64),
	}
}

// Open implements `open(uri, text)`.
func (s *Server) Open(rawURI, text string) error {
	u, err := normalizeURI(rawURI)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	id := runtime.DocumentID(atomic.AddUint64(&s.nextDoc, 1))

	doc, err := syntax.Open(id, text)
	if err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}

	module := analysis.OpenModule(doc, s.pkgs...)

	s.mu.Lock()
	s.modules[u] = module
	s.docURIs[id] = u
	s.mu.Unlock()

	log.WithField("uri", u).Debug("opened document")

	return nil
}

// Change implements `change(uri, edits)`. Per syntax.Document's own
// contract, a host adapter applies edits to its own text copy and commits
// the resulting full buffer; this mirrors that by taking the post-edit text
// directly rather than a range-patch.
func (s *Server) Change(rawURI, text string) error {
	u, err := normalizeURI(rawURI)
	if err != nil {
		return fmt.Errorf("change: %w", err)
	}

	module, ok := s.lookup(u)
	if !ok {
		return fmt.Errorf("change: %s is not open", u)
	}

	if _, err := module.Edit(text); err != nil {
		return fmt.Errorf("change %s: %w", u, err)
	}

	return nil
}

// Close implements `close(uri)`.
func (s *Server) Close(rawURI string) error {
	u, err := normalizeURI(rawURI)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	module, ok := s.modules[u]
	if !ok {
		return nil
	}

	delete(s.docURIs, module.DocumentID())
	delete(s.modules, u)

	log.WithField("uri", u).Debug("closed document")

	return nil
}

func (s *Server) lookup(u lspuri.URI) (*analysis.ScriptModule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[u]

	return m, ok
}

// Diagnostics implements `diagnostics(uri, depth) → [Issue]`.
func (s *Server) Diagnostics(rawURI string, depth analysis.DiagnosticsDepth) ([]protocol.Diagnostic, error) {
	u, module, guard, li, err := s.read(rawURI)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	issues := guard.Diagnostics(depth)
	diags := make([]protocol.Diagnostic, 0, len(issues))

	for _, issue := range issues {
		diags = append(diags, protocol.Diagnostic{
			Range:    li.rangeOf(issue.Span),
			Severity: issueSeverity(issue.Severity),
			Source:   "adastra",
			Message:  issue.Message,
		})
	}

	log.WithFields(logrus.Fields{"uri": u, "count": len(diags), "module": module.DocumentID()}).Trace("diagnostics")

	return diags, nil
}

// Completions implements `completions(uri, pos) → [CompletionItem]`.
func (s *Server) Completions(rawURI string, pos protocol.Position) ([]protocol.CompletionItem, error) {
	_, _, guard, li, err := s.read(rawURI)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	offset := li.offset(pos)
	query := wordBefore(guard.Document().Text(), offset)

	items := guard.Completions(offset, query)
	out := make([]protocol.CompletionItem, 0, len(items))

	for _, item := range items {
		out = append(out, protocol.CompletionItem{
			Label:  item.Label,
			Kind:   completionKind(item),
			Detail: item.Kind.String(),
		})
	}

	return out, nil
}

// Hover implements `hover(uri, pos) → Description?`.
func (s *Server) Hover(rawURI string, pos protocol.Position) (*protocol.Hover, error) {
	_, _, guard, li, err := s.read(rawURI)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	offset := li.offset(pos)
	ref := guard.Document().NodeAt(offset)
	node, ok := guard.Document().Node(ref)
	if !ok {
		return nil, nil
	}

	desc := guard.Describe(ref)
	value := desc.Signature
	if desc.Doc != "" {
		value = value + "\n\n" + desc.Doc
	}

	rng := li.rangeOf(node.Span)

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.PlainText, Value: value},
		Range:    &rng,
	}, nil
}

// References implements `references(uri, pos) → [Range]`.
func (s *Server) References(rawURI string, pos protocol.Position) ([]protocol.Location, error) {
	u, _, guard, li, err := s.read(rawURI)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	offset := li.offset(pos)
	ref := guard.Document().NodeAt(offset)

	refs := guard.References(ref)
	out := make([]protocol.Location, 0, len(refs))

	for _, r := range refs {
		n, ok := guard.Document().Node(r)
		if !ok {
			continue
		}

		out = append(out, protocol.Location{URI: protocol.DocumentURI(u.Filename()), Range: li.rangeOf(n.Span)})
	}

	return out, nil
}

// Symbols implements `symbols(uri) → [ModuleSymbol]`.
func (s *Server) Symbols(rawURI string) ([]protocol.DocumentSymbol, error) {
	_, _, guard, li, err := s.read(rawURI)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	symbols := guard.Document().Symbols()
	out := make([]protocol.DocumentSymbol, 0, len(symbols))

	for _, sym := range symbols {
		n, ok := guard.Document().Node(sym.Ref)
		if !ok {
			continue
		}

		name := n.Text
		if name == "" {
			name = sym.Kind.String()
		}

		rng := li.rangeOf(n.Span)

		out = append(out, protocol.DocumentSymbol{
			Name:           name,
			Kind:           symbolKind(sym.Kind),
			Range:          rng,
			SelectionRange: rng,
		})
	}

	return out, nil
}

// PublishInlayHint implements its `inlay_hint(origin, label, tooltip)`
// out-of-band channel: a running script (pkg/interpreter) reports a value
// back at its own origin, and the adapter resolves that origin to the
// document/position an editor overlay anchors to.
func (s *Server) PublishInlayHint(origin runtime.Origin, label, tooltip string) {
	if origin.IsSynthetic() {
		return
	}

	s.mu.RLock()
	u, ok := s.docURIs[origin.Document()]
	module := s.modules[u]
	s.mu.RUnlock()

	if !ok || module == nil {
		return
	}

	guard := analysis.ModuleRead(module)
	defer guard.Release()

	li := newLineIndex(guard.Document().Text())
	start, end := origin.Span()

	hint := InlayHint{
		URI:     u,
		Range:   li.rangeOf(syntax.Span{Start: start, End: end}),
		Label:   label,
		Tooltip: tooltip,
	}

	select {
	case s.hints <- hint:
	default:
		log.WithField("uri", u).Warn("inlay hint channel full, dropping hint")
	}
}

// InlayHints returns the read-only stream an LSP transport drains to push
// textDocument/inlayHint refresh notifications to the editor.
func (s *Server) InlayHints() <-chan InlayHint { return s.hints }

func (s *Server) read(rawURI string) (lspuri.URI, *analysis.ScriptModule, *analysis.ModuleReadGuard, *lineIndex, error) {
	u, err := normalizeURI(rawURI)
	if err != nil {
		return "", nil, nil, nil, err
	}

	module, ok := s.lookup(u)
	if !ok {
		return "", nil, nil, nil, fmt.Errorf("%s is not open", u)
	}

	guard := analysis.ModuleRead(module)

	return u, module, guard, newLineIndex(guard.Document().Text()), nil
}

func issueSeverity(sev analysis.IssueSeverity) protocol.DiagnosticSeverity {
	switch sev {
	case analysis.SeverityError:
		return protocol.DiagnosticSeverityError
	case analysis.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case analysis.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case analysis.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

func completionKind(item analysis.CompletionItem) protocol.CompletionItemKind {
	if item.ScopeHops < 0 {
		return protocol.CompletionItemKindFunction
	}

	switch item.Kind.String() {
	case "fn":
		return protocol.CompletionItemKindFunction
	case "param":
		return protocol.CompletionItemKindVariable
	case "import":
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindVariable
	}
}

func symbolKind(kind syntax.NodeKind) protocol.SymbolKind {
	switch kind {
	case syntax.NodeFn:
		return protocol.SymbolKindFunction
	case syntax.NodeLet:
		return protocol.SymbolKindVariable
	case syntax.NodeImport:
		return protocol.SymbolKindModule
	case syntax.NodeField:
		return protocol.SymbolKindField
	case syntax.NodeNumberLit, syntax.NodeStringLit, syntax.NodeBoolLit, syntax.NodeNilLit:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindVariable
	}
}

// wordBefore returns the maximal run of non-whitespace, non-parenthesis
// runes immediately preceding offset, the partial word a completion request
// is usually triggered on.
func wordBefore(text string, offset int) string {
	runes := []rune(text)
	if offset > len(runes) {
		offset = len(runes)
	}

	start := offset
	for start > 0 {
		r := runes[start-1]
		if r == '(' || r == ')' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			break
		}

		start--
	}

	return string(runes[start:offset])
}
