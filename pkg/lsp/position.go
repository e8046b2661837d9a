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

// Package lsp implements the LSP query surface over go.lsp.dev wire
// types: it adapts pkg/analysis's offset-and-NodeRef vocabulary to the
// line/character Positions and URIs an editor actually sends, the way a
// host adapter sitting in front of the Analyzer is expected to.
package lsp

import (
	"strings"

	"go.lsp.dev/protocol"

	"github.com/ad-astra-go/adastra/pkg/syntax"
)

// lineIndex maps rune offsets to 0-based line/character Positions over a
// fixed text snapshot, rebuilt on every edit the way Document itself
// recomputes its ClassIndex wholesale rather than patching incrementally
// (its "pull-based incremental strategy is admissible").
type lineIndex struct {
	// lineStarts[i] is the rune offset at which line i begins.
	lineStarts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}

	offset := 0
	for _, r := range text {
		offset++
		if r == '\n' {
			starts = append(starts, offset)
		}
	}

	return &lineIndex{lineStarts: starts}
}

// position converts a rune offset to a protocol.Position. Characters are
// counted in runes rather than UTF-16 code units: scripts in this notation
// are ASCII-identifier-heavy, and rune counting keeps this package free of
// a UTF-16 surrogate-pair dependency for the cases that matter here.
func (li *lineIndex) position(offset int) protocol.Position {
	line := searchLine(li.lineStarts, offset)

	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(offset - li.lineStarts[line]),
	}
}

// offset converts a protocol.Position back to a rune offset, clamped to the
// nearest valid line when pos names one past the end of the buffer.
func (li *lineIndex) offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(li.lineStarts) {
		line = len(li.lineStarts) - 1
	}

	return li.lineStarts[line] + int(pos.Character)
}

// rangeOf converts a syntax.Span to a protocol.Range.
func (li *lineIndex) rangeOf(span syntax.Span) protocol.Range {
	return protocol.Range{Start: li.position(span.Start), End: li.position(span.End)}
}

// searchLine returns the index of the last line start at or before offset,
// i.e. the line offset falls on.
func searchLine(lineStarts []int, offset int) int {
	lo, hi := 0, len(lineStarts)-1

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return lo
}

// countLines reports how many lines text spans.
func countLines(text string) int {
	return strings.Count(text, "\n") + 1
}
