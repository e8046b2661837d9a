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

// Package runtime implements the universal boxed value of the script
// runtime (Cell), the transient handle used by Downcast (Provider), and the
// borrow-state machinery that enforces the lifetime contract at
// runtime.
package runtime

import "fmt"

// DocumentID identifies a ScriptDoc for the purposes of origin comparison,
// without this package depending on package syntax (which itself depends on
// this package for DocumentID).
type DocumentID uint64

// Origin is an opaque, comparable handle identifying either a source
// position (document + byte span) or a synthetic location such as a host
// function name. Every Cell carries one. Origins are copied, never
// mutated, matching the Span/SourceFile handles go-corset's sexp parser
// hands out for diagnostics.
type Origin struct {
	doc     DocumentID
	start   int
	end     int
	label   string
	synthetic bool
}

// SourceOrigin constructs an Origin denoting a byte span [start, end) within
// document doc.
func SourceOrigin(doc DocumentID, start, end int) Origin {
	return Origin{doc: doc, start: start, end: end}
}

// SyntheticOrigin constructs an Origin for a location with no backing
// document, such as a host-declared constructor or operator
// implementation (e.g. "host function `vec`").
func SyntheticOrigin(label string) Origin {
	return Origin{label: label, synthetic: true}
}

// IsSynthetic reports whether this origin denotes a host-side location
// rather than a span of script source text.
func (o Origin) IsSynthetic() bool { return o.synthetic }

// Document returns the document this origin refers into; only meaningful
// when !IsSynthetic().
func (o Origin) Document() DocumentID { return o.doc }

// Span returns the [start, end) byte range this origin covers within its
// document; only meaningful when !IsSynthetic().
func (o Origin) Span() (start, end int) { return o.start, o.end }

// String renders a debug form suitable for error chains.
func (o Origin) String() string {
	if o.synthetic {
		return o.label
	}

	return fmt.Sprintf("doc#%d[%d:%d]", o.doc, o.start, o.end)
}
