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

// Package compiler lowers a resolved script document into Assembly: a
// register-based instruction stream plus its literal table, subroutine
// table, and closure slot count, grounded on the descend-and-lower shape of
// pkg/corset/{compiler,translator}.go and the recursive subroutine
// compilation of original_source's interpret/compiler.rs.
package compiler

import (
	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// Register indexes a slot in the interpreter's register file. Register -1
// (InvalidRegister) marks "no register": it fills OpCallComponent's Args[0]
// when a call has no receiver, and is the register returned alongside a
// compile error.
type Register int32

// InvalidRegister is the zero-information register reference.
const InvalidRegister Register = -1

// Opcode enumerates the fixed instruction set.
type Opcode uint8

const (
	// OpLoadLiteral copies Literals[Lit] into Dst.
	OpLoadLiteral Opcode = iota
	// OpLoadClosure copies the closure array's Slot'th cell into Dst.
	OpLoadClosure
	// OpMakeClosure instantiates Subroutines[Sub] as a callable Cell in
	// Dst, snapshotting the current closure-capturable registers named
	// in Args into its closure array.
	OpMakeClosure
	// OpCallComponent invokes a named Component with Args[1:] and stores
	// the result in Dst. If Args[0] is InvalidRegister there is no
	// receiver: the component is looked up by Field in the ambient
	// Package registry, under Pkg (or the reserved "" global/prelude
	// package if Pkg is also empty). Otherwise Args[0] is the receiver
	// register and the component is looked up on its registered
	// TypeMeta.
	OpCallComponent
	// OpFieldGet reads Field off Args[0] into Dst.
	OpFieldGet
	// OpFieldSet writes Dst's current value into Field on Args[0] (the
	// base object).
	OpFieldSet
	// OpOperator applies Operator to Args and stores the result in Dst.
	OpOperator
	// OpBranch jumps to Target if Args[0] is script-truthy (non-Nil,
	// non-false); otherwise execution falls through to the next
	// instruction.
	OpBranch
	// OpLoop is an unconditional jump to Target. While-loops use it as a
	// backward edge closing the loop body; the compiler also uses it as a
	// forward jump past an if's "then" arm, since both are mechanically
	// the same "set the instruction pointer" operation.
	OpLoop
	// OpReturn ends the routine, yielding Args[0]'s value (or Nil if
	// Args is empty) to the caller.
	OpReturn
	// OpMove copies Args[0]'s value into Dst. Not part of the operator or
	// component dispatch surface; the compiler uses it to merge an if
	// expression's two arms into one result register.
	OpMove
)

func (op Opcode) String() string {
	names := [...]string{
		"LoadLiteral", "LoadClosure", "MakeClosure", "CallComponent",
		"FieldGet", "FieldSet", "Operator", "Branch", "Loop", "Return", "Move",
	}
	if int(op) < len(names) {
		return names[op]
	}

	return "Unknown"
}

// Instruction is one step of an Assembly's flat instruction stream. Not
// every field is meaningful for every Opcode; see the Opcode doc comments
// for which fields an instruction consumes.
type Instruction struct {
	Op       Opcode
	Dst      Register
	Args     []Register
	Lit      int
	Slot     int
	Sub      int
	Field    string
	Pkg      string
	Operator registry.OperatorKind
	Target   int
	Origin   runtime.Origin
}

// Assembly is a compiled routine: an instruction stream over a register
// file, a literal table, a subroutine table for nested routines, and a
// closure slot count for bindings captured from the enclosing scope.
type Assembly struct {
	Instructions []Instruction
	Literals     []runtime.Cell
	Subroutines  []*Assembly
	ClosureSlots int
	// NumRegisters is the register file size this Assembly was compiled
	// against; the interpreter allocates exactly this many registers per
	// frame.
	NumRegisters int
	// Params lists the registers parameters are bound into, in
	// declaration order, so the interpreter can place call arguments
	// before executing the body.
	Params []Register
}
