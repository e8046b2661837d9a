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
	"fmt"

	"github.com/ad-astra-go/adastra/pkg/prototype"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// Description is the hover payload for a single node
// `description(node)` query: a short signature line plus whatever doc text
// is available.
type Description struct {
	Signature string
	Doc       string
}

// Describe builds a hover Description for ref. Identifiers that resolved to
// a lexical binding describe the binding; identifiers that resolved to a
// package-level component describe the component's signature shape and doc
// string; everything else falls back to its node kind.
func Describe(res *Resolution, doc *syntax.Document, ref syntax.NodeRef, pkgs ...*prototype.Package) Description {
	n, ok := doc.Node(ref)
	if !ok {
		return Description{Signature: "<unknown>"}
	}

	if n.Kind == syntax.NodeIdent {
		if b, found := res.UseSites[ref]; found {
			return Description{Signature: fmt.Sprintf("%s %s", b.Kind, b.Name)}
		}

		for _, pkg := range pkgs {
			if c, found := pkg.Lookup(n.Text); found {
				return Description{
					Signature: fmt.Sprintf("%s (%s)", n.Text, componentKindLabel(c.Kind())),
					Doc:       c.Doc(),
				}
			}
		}

		return Description{Signature: fmt.Sprintf("unresolved %s", n.Text)}
	}

	return Description{Signature: n.Kind.String()}
}

func componentKindLabel(k prototype.ComponentKind) string {
	switch k {
	case prototype.KindConstructor:
		return "constructor"
	case prototype.KindAccessor:
		return "accessor"
	case prototype.KindMethod:
		return "method"
	case prototype.KindConstant:
		return "constant"
	default:
		return "component"
	}
}
