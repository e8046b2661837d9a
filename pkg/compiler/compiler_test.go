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
package compiler

import (
	"testing"

	"github.com/ad-astra-go/adastra/pkg/analysis"
	"github.com/ad-astra-go/adastra/pkg/runtime"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

func compile(t *testing.T, text string) *Assembly {
	t.Helper()

	doc, err := syntax.Open(1, text)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	res := analysis.Resolve(doc)

	asm, err := New(doc, res).CompileModule()
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	return asm
}

func countOp(asm *Assembly, op Opcode) int {
	n := 0

	for _, instr := range asm.Instructions {
		if instr.Op == op {
			n++
		}
	}

	return n
}

func TestLetBindsValueRegisterWithoutCopy(t *testing.T) {
	asm := compile(t, `(let x 1) x`)

	if countOp(asm, OpLoadLiteral) != 1 {
		t.Fatalf("got %d OpLoadLiteral, want 1 (x's init and its later use share a register)", countOp(asm, OpLoadLiteral))
	}
}

func TestDistinctLiteralsDedupeAcrossAFrame(t *testing.T) {
	asm := compile(t, `(let a 1) (let b 1) (let c 2)`)

	if len(asm.Literals) != 2 {
		t.Fatalf("got %d literal table entries, want 2 distinct literals (1 and 2)", len(asm.Literals))
	}

	if countOp(asm, OpLoadLiteral) != 3 {
		t.Fatalf("got %d OpLoadLiteral instructions, want 3 (one per use site)", countOp(asm, OpLoadLiteral))
	}
}

func TestIfCompilesToOneBranchAndMergesArmsThroughMove(t *testing.T) {
	asm := compile(t, `(if true 1 2)`)

	if countOp(asm, OpBranch) != 1 {
		t.Fatalf("got %d OpBranch, want 1", countOp(asm, OpBranch))
	}

	if countOp(asm, OpMove) != 2 {
		t.Fatalf("got %d OpMove, want 2 (one per arm merging into the result register)", countOp(asm, OpMove))
	}
}

// TestWhileEntersBodyOnlyWhenConditionIsTruthy pins down the exact shape a
// compiled while loop must have given that OpBranch only ever jumps on a
// truthy condition: an exit jump immediately after the branch (taken on
// fallthrough, i.e. when the condition was falsy) and a backward edge after
// the body landing back on the condition re-check.
func TestWhileEntersBodyOnlyWhenConditionIsTruthy(t *testing.T) {
	asm := compile(t, `(let i 0) (let obj 1) (while true (set obj.field i))`)

	var branchIdx, exitJumpIdx, backEdgeIdx int = -1, -1, -1

	for i, instr := range asm.Instructions {
		switch instr.Op {
		case OpBranch:
			if branchIdx == -1 {
				branchIdx = i
			}
		case OpLoop:
			if exitJumpIdx == -1 {
				exitJumpIdx = i
			} else if backEdgeIdx == -1 {
				backEdgeIdx = i
			}
		}
	}

	if branchIdx == -1 || exitJumpIdx == -1 || backEdgeIdx == -1 {
		t.Fatalf("expected a branch, an exit jump, and a backward edge, got branch=%d exit=%d back=%d", branchIdx, exitJumpIdx, backEdgeIdx)
	}

	if exitJumpIdx != branchIdx+1 {
		t.Fatalf("exit jump at %d must immediately follow the branch at %d", exitJumpIdx, branchIdx)
	}

	// Taken (truthy) branch target must be the body's first instruction,
	// i.e. right after the exit jump.
	if asm.Instructions[branchIdx].Target != exitJumpIdx+1 {
		t.Fatalf("got branch target %d, want %d (the loop body's start)", asm.Instructions[branchIdx].Target, exitJumpIdx+1)
	}

	// The backward edge must target the condition re-check, at or before
	// the branch itself.
	if asm.Instructions[backEdgeIdx].Target > branchIdx {
		t.Fatalf("got backward edge target %d, want it to re-check the condition at or before %d", asm.Instructions[backEdgeIdx].Target, branchIdx)
	}

	// The exit jump (taken when the condition was falsy) must land after
	// the backward edge, past the whole loop.
	if asm.Instructions[exitJumpIdx].Target <= backEdgeIdx {
		t.Fatalf("got exit jump target %d, want it past the backward edge at %d", asm.Instructions[exitJumpIdx].Target, backEdgeIdx)
	}
}

func TestClosureCapturesOneSlotPerFreeBinding(t *testing.T) {
	asm := compile(t, `(let x 1) (let y 2) (fn (z) (+ x y z))`)

	if len(asm.Subroutines) != 1 {
		t.Fatalf("got %d subroutines, want 1", len(asm.Subroutines))
	}

	sub := asm.Subroutines[0]
	if sub.ClosureSlots != 2 {
		t.Fatalf("got %d closure slots, want 2 (x and y captured, z is a param)", sub.ClosureSlots)
	}

	if len(sub.Params) != 1 {
		t.Fatalf("got %d params, want 1", len(sub.Params))
	}

	makeClosure := findOp(asm, OpMakeClosure)
	if makeClosure == nil {
		t.Fatalf("expected an OpMakeClosure instruction")
	}

	if len(makeClosure.Args) != 2 {
		t.Fatalf("got %d OpMakeClosure args, want 2 (one per captured binding)", len(makeClosure.Args))
	}
}

func findOp(asm *Assembly, op Opcode) *Instruction {
	for i := range asm.Instructions {
		if asm.Instructions[i].Op == op {
			return &asm.Instructions[i]
		}
	}

	return nil
}

func TestUnresolvedCallTargetCompilesAsAGlobalComponentLookup(t *testing.T) {
	asm := compile(t, `(vec 1 2 3)`)

	call := findOp(asm, OpCallComponent)
	if call == nil {
		t.Fatalf("expected an OpCallComponent instruction")
	}

	if call.Field != "vec" {
		t.Fatalf("got Field %q, want %q", call.Field, "vec")
	}

	if call.Args[0] != InvalidRegister {
		t.Fatalf("got receiver register %v, want InvalidRegister for a global call", call.Args[0])
	}
}

func TestPackageQualifiedCallRecordsThePackageName(t *testing.T) {
	asm := compile(t, `(import math) (math.sqrt 4)`)

	call := findOp(asm, OpCallComponent)
	if call == nil {
		t.Fatalf("expected an OpCallComponent instruction")
	}

	if call.Pkg != "math" {
		t.Fatalf("got Pkg %q, want %q", call.Pkg, "math")
	}

	if call.Args[0] != InvalidRegister {
		t.Fatalf("got receiver register %v, want InvalidRegister for a package-qualified call", call.Args[0])
	}
}

func TestFieldAssignmentEmitsFieldSetAndYieldsTheValue(t *testing.T) {
	asm := compile(t, `(let obj 1) (set obj.total 5)`)

	if countOp(asm, OpFieldSet) != 1 {
		t.Fatalf("got %d OpFieldSet, want 1", countOp(asm, OpFieldSet))
	}
}

func TestUnresolvedIdentifierIsACompileError(t *testing.T) {
	doc, err := syntax.Open(1, `missing`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	res := analysis.Resolve(doc)

	if _, err := New(doc, res).CompileModule(); err == nil {
		t.Fatalf("expected a compile error for an unresolved identifier")
	}
}

func TestEmptyModuleCompilesToANilReturn(t *testing.T) {
	asm := compile(t, ``)

	ret := findOp(asm, OpReturn)
	if ret == nil {
		t.Fatalf("expected an OpReturn instruction")
	}

	lit := findOp(asm, OpLoadLiteral)
	if lit == nil {
		t.Fatalf("expected a Nil literal load for an empty module's value")
	}

	if !asm.Literals[lit.Lit].IsNil() {
		t.Fatalf("expected the empty module's literal to be Nil")
	}
}

func TestNumberLiteralBoxesAFloat64(t *testing.T) {
	asm := compile(t, `3.5`)

	lit := findOp(asm, OpLoadLiteral)
	if lit == nil {
		t.Fatalf("expected an OpLoadLiteral instruction")
	}

	v, err := runtime.Take[float64](asm.Literals[lit.Lit])
	if err != nil {
		t.Fatalf("unexpected error taking float64: %v", err)
	}

	if v != 3.5 {
		t.Fatalf("got %v, want 3.5", v)
	}
}
