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

// ModuleReadGuard pins a ScriptModule at the revision observed when the
// guard was acquired, letting a caller run a sequence of queries (hover,
// then references, then completions) against one consistent semantic graph
// even if another goroutine commits an Edit in between.
type ModuleReadGuard struct {
	m        *ScriptModule
	revision syntax.Revision
}

// ModuleRead acquires a read guard, blocking concurrent writers (but not
// other readers) for its lifetime.
func ModuleRead(m *ScriptModule) *ModuleReadGuard {
	m.mu.RLock()

	if m.resolution == nil || m.revision != m.doc.Revision() {
		m.mu.RUnlock()
		m.mu.Lock()
		m.ensureFresh()
		m.mu.Unlock()
		m.mu.RLock()
	}

	return &ModuleReadGuard{m: m, revision: m.revision}
}

// Release ends the read guard's hold on the module's lock.
func (g *ModuleReadGuard) Release() { g.m.mu.RUnlock() }

// Revision returns the revision this guard pinned.
func (g *ModuleReadGuard) Revision() syntax.Revision { return g.revision }

// Document returns the pinned Document.
func (g *ModuleReadGuard) Document() *syntax.Document { return g.m.doc }

// Resolution returns the pinned Resolution.
func (g *ModuleReadGuard) Resolution() *Resolution { return g.m.resolution }

// Diagnostics runs Diagnostics against the pinned revision.
func (g *ModuleReadGuard) Diagnostics(depth DiagnosticsDepth) []Issue {
	return Diagnostics(g.m.resolution, depth)
}

// Completions runs Completions against the pinned revision.
func (g *ModuleReadGuard) Completions(offset int, query string) []CompletionItem {
	return Completions(g.m.resolution, g.m.doc, offset, query, g.m.pkgs...)
}

// Describe runs Describe against the pinned revision.
func (g *ModuleReadGuard) Describe(ref syntax.NodeRef) Description {
	return Describe(g.m.resolution, g.m.doc, ref, g.m.pkgs...)
}

// References runs References against the pinned revision.
func (g *ModuleReadGuard) References(ref syntax.NodeRef) []syntax.NodeRef {
	return References(g.m.resolution, g.m.doc, ref)
}

// ModuleWriteGuard holds exclusive access to a ScriptModule for the
// duration of a single committed Edit, e.g. applying a Quickfix.
type ModuleWriteGuard struct {
	m *ScriptModule
}

// ModuleWrite acquires exclusive access to m.
func ModuleWrite(m *ScriptModule) *ModuleWriteGuard {
	m.mu.Lock()

	return &ModuleWriteGuard{m: m}
}

// Release ends the write guard's hold on the module's lock.
func (g *ModuleWriteGuard) Release() { g.m.mu.Unlock() }

// Edit commits newText as the module's new text buffer.
func (g *ModuleWriteGuard) Edit(newText string) ([]syntax.ScriptClass, error) {
	changed, err := g.m.doc.Edit(newText)
	if err != nil {
		return nil, err
	}

	g.m.resolution = Resolve(g.m.doc)
	g.m.revision = g.m.doc.Revision()

	return changed, nil
}

// ApplyQuickfix applies every edit in fix to the module's current text and
// commits the result "a quickfix that can be applied to the
// document". Edits are applied in descending span-start order so earlier
// offsets remain valid as later (numerically smaller) edits are spliced in.
func (g *ModuleWriteGuard) ApplyQuickfix(fix Quickfix) ([]syntax.ScriptClass, error) {
	text := g.m.doc.Text()

	edits := append([]TextEdit(nil), fix.Edits...)
	for i := 0; i < len(edits); i++ {
		for j := i + 1; j < len(edits); j++ {
			if edits[j].Span.Start > edits[i].Span.Start {
				edits[i], edits[j] = edits[j], edits[i]
			}
		}
	}

	for _, e := range edits {
		text = text[:e.Span.Start] + e.Text + text[e.Span.End:]
	}

	return g.Edit(text)
}
