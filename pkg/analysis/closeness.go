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
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalize case-folds and NFC-normalizes s, per the Open Question resolution
// recorded in the requirements document: closeness compares normalized forms
// without stripping diacritics, so "café" and "cafe" are distinct candidates
// but "Café" and "café" are the same one.
func normalize(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// closeness scores how close a completion candidate is to a typed query,
// per the formula: the maximum of an exact match, a prefix match, a
// substring match, a subsequence match, and a Levenshtein-ratio match, each
// weighted so that more specific matches always outrank looser ones of
// equal length ratio.
func closeness(query, candidate string) float64 {
	q := normalize(query)
	c := normalize(candidate)

	if q == "" {
		return 0
	}

	if q == c {
		return 1.0
	}

	lenRatio := func() float64 {
		if len(c) == 0 {
			return 0
		}

		return float64(len(q)) / float64(len(c))
	}

	best := 0.0

	if strings.HasPrefix(c, q) {
		best = max(best, 0.9*lenRatio())
	}

	if strings.Contains(c, q) {
		best = max(best, 0.7*lenRatio())
	}

	if lcs := subsequenceLen(q, c); lcs == len([]rune(q)) {
		if len(c) > 0 {
			best = max(best, 0.5*float64(lcs)/float64(len(c)))
		}
	}

	if maxLen := max(len(q), len(c)); maxLen > 0 {
		d := levenshtein(q, c)
		best = max(best, 0.3*(1-float64(d)/float64(maxLen)))
	}

	return best
}

// subsequenceLen returns the length of the longest prefix of q that occurs
// as a subsequence of c; callers only care whether the full query is a
// subsequence, so this stops as soon as q is exhausted. Both operands are
// walked by rune, matching levenshtein's handling below, so a normalized
// multi-byte rune in q compares correctly against c instead of against one
// of its own UTF-8 bytes.
func subsequenceLen(q, c string) int {
	qr := []rune(q)
	qi := 0

	for _, r := range c {
		if qi >= len(qr) {
			break
		}

		if qr[qi] == r {
			qi++
		}
	}

	return qi
}

// levenshtein computes classic edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
