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
	"go.lsp.dev/uri"
)

// normalizeURI parses and re-renders raw so that the same file opened
// through two different but equivalent URI spellings (trailing slash,
// escaping) keys the same module map entry.
func normalizeURI(raw string) (uri.URI, error) {
	u, err := uri.Parse(raw)
	if err != nil {
		return "", err
	}

	return u, nil
}
