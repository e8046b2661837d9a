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

// References returns every node that refers to the same binding as ref, per
// its `references(node)` query. For an Ident, that is every other Ident
// use-site resolving to the same Binding plus the declaration site itself;
// for a Field, that is every Field in the same class sharing its name,
// since field names have no lexical declaration to anchor on.
func References(res *Resolution, doc *syntax.Document, ref syntax.NodeRef) []syntax.NodeRef {
	n, ok := doc.Node(ref)
	if !ok {
		return nil
	}

	switch n.Kind {
	case syntax.NodeIdent:
		return identReferences(res, doc, ref, n)
	case syntax.NodeField:
		return doc.ClassIndex().Members(syntax.Field(n.Text))
	default:
		return nil
	}
}

func identReferences(res *Resolution, doc *syntax.Document, ref syntax.NodeRef, n *syntax.Node) []syntax.NodeRef {
	target, ok := res.UseSites[ref]
	if !ok {
		// ref may itself be a declaration site (a let name or fn param);
		// search use-sites for one pointing back at it.
		target = declBinding(res, ref)
		if target == nil {
			return nil
		}
	}

	refs := []syntax.NodeRef{target.Decl}

	for site, b := range res.UseSites {
		if b == target {
			refs = append(refs, site)
		}
	}

	return refs
}

func declBinding(res *Resolution, ref syntax.NodeRef) *Binding {
	for _, b := range res.UseSites {
		if b.Decl == ref {
			return b
		}
	}

	return nil
}
