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
	"sync"

	"github.com/ad-astra-go/adastra/pkg/prototype"
	"github.com/ad-astra-go/adastra/pkg/runtime"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// ScriptModule is the unit the LSP query surface operates on: a Document
// plus the Resolution and diagnostic caches derived from its current
// revision, matching the rule that the semantic graph is a pure function of
// the text buffer at a committed revision.
//
// A ScriptModule is not itself safe for concurrent use; ModuleRead/
// ModuleWrite (guards.go) serialize access to keep that rule intact.
type ScriptModule struct {
	mu  sync.RWMutex
	doc *syntax.Document

	pkgs []*prototype.Package

	resolution *Resolution
	revision   syntax.Revision
}

// OpenModule wraps an already-open Document, computing its initial
// resolution eagerly so the first query never pays a cold-cache miss.
func OpenModule(doc *syntax.Document, pkgs ...*prototype.Package) *ScriptModule {
	m := &ScriptModule{doc: doc, pkgs: pkgs}
	m.resolution = Resolve(doc)
	m.revision = doc.Revision()

	return m
}

// ensureFresh recomputes the Resolution if the Document has advanced past
// the revision it was last computed for. Callers hold the write lock;
// resolution is cheap enough (single linear pass) that recomputing under a
// promoted write lock on first read-after-edit is an acceptable tradeoff
// over maintaining incremental resolution state.
func (m *ScriptModule) ensureFresh() {
	if m.resolution != nil && m.revision == m.doc.Revision() {
		return
	}

	m.resolution = Resolve(m.doc)
	m.revision = m.doc.Revision()
}

// Edit applies a full-text edit to the underlying Document and invalidates
// the Resolution cache, returning the changed classes as Document.Edit
// does.
func (m *ScriptModule) Edit(newText string) ([]syntax.ScriptClass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed, err := m.doc.Edit(newText)
	if err != nil {
		return nil, err
	}

	m.resolution = Resolve(m.doc)
	m.revision = m.doc.Revision()

	return changed, nil
}

// DocumentID returns the identity used to tag Origins produced while
// analyzing or executing this module.
func (m *ScriptModule) DocumentID() runtime.DocumentID { return m.doc.ID() }
