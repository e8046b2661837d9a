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

// Package syntax implements the Script Document and concrete syntax tree: an
// incrementally maintained source buffer, its tree, and the class index that
// the Semantic Analyzer (package analysis) fans incremental queries out
// over.
//
// The concrete grammar is an s-expression-surfaced notation grounded on
// go-corset's pkg/sexp recursive-descent parser.
package syntax

import "fmt"

// Span is a half-open range [Start, End) of rune offsets into a document's
// rune buffer, grounded on pkg/sexp.Span.
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes this span covers.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset falls within this span.
func (s Span) Contains(offset int) bool { return offset >= s.Start && offset < s.End }

// SyntaxError is a structured parse error retaining the span it was raised
// over, grounded on pkg/sexp.SyntaxError.
type SyntaxError struct {
	Span    Span
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Start, e.Span.End, e.Message)
}
