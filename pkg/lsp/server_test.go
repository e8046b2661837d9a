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
	"testing"

	"go.lsp.dev/protocol"

	"github.com/ad-astra-go/adastra/pkg/analysis"
)

const testURI = "file:///scratch/module.adastra"

func TestOpenThenDiagnosticsSurfacesUnresolvedName(t *testing.T) {
	s := NewServer()

	if err := s.Open(testURI, "(let x 1) y"); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	diags, err := s.Diagnostics(testURI, analysis.DepthShallow)
	if err != nil {
		t.Fatalf("unexpected diagnostics error: %v", err)
	}

	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}

	if diags[0].Severity != protocol.DiagnosticSeverityError {
		t.Fatalf("got severity %v, want Error", diags[0].Severity)
	}
}

func TestChangeRecomputesDiagnosticsAgainstTheNewText(t *testing.T) {
	s := NewServer()

	if err := s.Open(testURI, "(let x 1) y"); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	if err := s.Change(testURI, "(let x 1) x"); err != nil {
		t.Fatalf("unexpected change error: %v", err)
	}

	diags, err := s.Diagnostics(testURI, analysis.DepthShallow)
	if err != nil {
		t.Fatalf("unexpected diagnostics error: %v", err)
	}

	if len(diags) != 0 {
		t.Fatalf("got %d diagnostics, want 0 after the fix", len(diags))
	}
}

func TestHoverDescribesALetBoundIdentifier(t *testing.T) {
	s := NewServer()

	text := "(let x 1) x"
	if err := s.Open(testURI, text); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	hover, err := s.Hover(testURI, protocol.Position{Line: 0, Character: uint32(len(text) - 1)})
	if err != nil {
		t.Fatalf("unexpected hover error: %v", err)
	}

	if hover == nil {
		t.Fatalf("expected a hover result over the second x")
	}
}

func TestSymbolsEnumeratesLetBinding(t *testing.T) {
	s := NewServer()

	if err := s.Open(testURI, "(let total 1)"); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	symbols, err := s.Symbols(testURI)
	if err != nil {
		t.Fatalf("unexpected symbols error: %v", err)
	}

	if len(symbols) == 0 {
		t.Fatalf("expected at least one symbol")
	}
}

func TestCloseDropsTheModule(t *testing.T) {
	s := NewServer()

	if err := s.Open(testURI, "1"); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	if err := s.Close(testURI); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	if _, err := s.Diagnostics(testURI, analysis.DepthShallow); err == nil {
		t.Fatalf("expected an error querying a closed document")
	}
}
