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
	"sort"

	"github.com/ad-astra-go/adastra/pkg/prototype"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// CompletionItem is one ranked candidate returned by Completions.
type CompletionItem struct {
	Label     string
	Kind      BindingKind
	ScopeHops int
	Score     float64
}

// Completions ranks every name visible at offset against query: lexical
// bindings (let/param/import) from the enclosing Scope, plus every
// component name contributed by pkgs, per the closeness formula with a
// scope-distance penalty of 0.01 per scope hop for lexical bindings (nearer
// bindings outrank farther ones of equal textual closeness). Package-level
// components are scored by plain closeness, with no penalty and no bonus.
func Completions(res *Resolution, doc *syntax.Document, offset int, query string, pkgs ...*prototype.Package) []CompletionItem {
	ref := doc.NodeAt(offset)

	scope, ok := res.ScopeAt[ref]
	if !ok {
		scope = res.Root
	}

	var items []CompletionItem

	for _, name := range scope.Names() {
		b, _ := scope.Resolve(name)

		items = append(items, CompletionItem{
			Label:     name,
			Kind:      b.Kind,
			ScopeHops: scope.Depth(name),
			Score:     closeness(query, name) - float64(scope.Depth(name))*0.01,
		})
	}

	for _, pkg := range pkgs {
		for _, name := range pkg.Names() {
			items = append(items, CompletionItem{
				Label:     name,
				ScopeHops: -1,
				Score:     closeness(query, name),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}

		return items[i].Label < items[j].Label
	})

	return items
}
