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

// Package interpreter executes compiled Assembly, generalizing the
// type-switch, panic-on-unreachable evaluator shape of
// pkg/hir/eval.go / pkg/mir/eval.go / pkg/air/eval.go from field-element
// arithmetic over a trace to Cell-valued registers over a call stack.
package interpreter

import (
	"context"

	"github.com/ad-astra-go/adastra/pkg/compiler"
	"github.com/ad-astra-go/adastra/pkg/prototype"
	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// DefaultStepBudget bounds how many instructions one routine activation (a
// Run, or a closure call made during it) executes before it fails with
// ErrTimeout, absent an explicit budget. Each activation has a budget of its
// own; instructions run by a nested call are not charged to its caller.
const DefaultStepBudget = 1_000_000

// Machine is a reusable execution context: the type registry and ambient
// package namespace every OpCallComponent and operator dispatch resolves
// against. The zero value is not ready to use; construct one with New or
// NewPrelude.
type Machine struct {
	Registry *registry.Registry
	// Packages maps an import binding's name to its finalized component
	// namespace. The empty string is the reserved global/prelude package,
	// consulted by unqualified calls.
	Packages map[string]*prototype.Package
	// StepBudget caps the instructions each routine activation may execute;
	// a nested closure call starts with a fresh budget. Zero means
	// DefaultStepBudget.
	StepBudget int
}

// New constructs a Machine over an already-populated registry and package
// set, for hosts that have done their own registration (see
// prototype.Assembler).
func New(reg *registry.Registry, packages map[string]*prototype.Package) *Machine {
	return &Machine{Registry: reg, Packages: packages}
}

// frame is one routine activation: its register file and the closure array
// it was invoked with.
type frame struct {
	asm     *compiler.Assembly
	regs    []runtime.Cell
	closure []runtime.Cell
}

// Run executes asm as a top-level routine with no captured closure array.
func (m *Machine) Run(ctx context.Context, asm *compiler.Assembly) (runtime.Cell, error) {
	return m.call(ctx, asm, nil, nil, runtime.SyntheticOrigin("module entry"))
}

// CallClosure invokes a closure Cell previously produced by OpMakeClosure
// with the given arguments.
func (m *Machine) CallClosure(ctx context.Context, cl *Closure, args []runtime.Cell, origin runtime.Origin) (runtime.Cell, error) {
	return m.call(ctx, cl.Asm, cl.Captured, args, origin)
}

func (m *Machine) call(ctx context.Context, asm *compiler.Assembly, closure, args []runtime.Cell, origin runtime.Origin) (runtime.Cell, error) {
	f := &frame{
		asm:     asm,
		regs:    make([]runtime.Cell, asm.NumRegisters),
		closure: closure,
	}

	for i, dst := range asm.Params {
		if i < len(args) {
			f.regs[dst] = args[i]
		}
	}

	budget := m.StepBudget
	if budget <= 0 {
		budget = DefaultStepBudget
	}

	result, err := m.run(ctx, f, budget)
	if err != nil {
		if re, ok := err.(*runtime.RuntimeError); ok {
			re.Prepend(origin)
		}

		return runtime.Cell{}, err
	}

	return result, nil
}

// run steps f's instruction stream to completion, returning the routine's
// OpReturn value.
func (m *Machine) run(ctx context.Context, f *frame, budget int) (runtime.Cell, error) {
	ip := 0

	for {
		if ip >= len(f.asm.Instructions) {
			return runtime.Nil(), nil
		}

		if budget <= 0 {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrTimeout, runtime.SyntheticOrigin("step budget"), "exceeded step budget")
		}
		budget--

		if ip%256 == 0 {
			select {
			case <-ctx.Done():
				return runtime.Cell{}, runtime.Wrapf(runtime.ErrInterrupted, runtime.SyntheticOrigin("cancellation"), "%v", ctx.Err())
			default:
			}
		}

		instr := f.asm.Instructions[ip]

		switch instr.Op {
		case compiler.OpLoadLiteral:
			f.regs[instr.Dst] = f.asm.Literals[instr.Lit]
			ip++
		case compiler.OpLoadClosure:
			f.regs[instr.Dst] = f.closure[instr.Slot]
			ip++
		case compiler.OpMakeClosure:
			captured := make([]runtime.Cell, len(instr.Args))
			for i, r := range instr.Args {
				captured[i] = f.regs[r]
			}

			f.regs[instr.Dst] = newClosureCell(instr.Origin, &Closure{Asm: f.asm.Subroutines[instr.Sub], Captured: captured})
			ip++
		case compiler.OpMove:
			f.regs[instr.Dst] = f.regs[instr.Args[0]]
			ip++
		case compiler.OpCallComponent:
			result, err := m.execCallComponent(ctx, f, instr)
			if err != nil {
				return runtime.Cell{}, err
			}

			f.regs[instr.Dst] = result
			ip++
		case compiler.OpFieldGet:
			result, err := m.execFieldGet(f, instr)
			if err != nil {
				return runtime.Cell{}, err
			}

			f.regs[instr.Dst] = result
			ip++
		case compiler.OpFieldSet:
			if err := m.execFieldSet(f, instr); err != nil {
				return runtime.Cell{}, err
			}

			ip++
		case compiler.OpOperator:
			result, err := m.execOperator(ctx, f, instr)
			if err != nil {
				return runtime.Cell{}, err
			}

			f.regs[instr.Dst] = result
			ip++
		case compiler.OpBranch:
			if isTruthy(f.regs[instr.Args[0]]) {
				ip = instr.Target
			} else {
				ip++
			}
		case compiler.OpLoop:
			ip = instr.Target
		case compiler.OpReturn:
			if len(instr.Args) == 0 {
				return runtime.Nil(), nil
			}

			return f.regs[instr.Args[0]], nil
		default:
			runtime.Invariant("unknown opcode %q", instr.Op)
		}
	}
}

// invoker is the subset of registry.Component every concrete Component
// produced by package prototype satisfies. registry.Component itself only
// declares Name(), to avoid an import cycle between registry and
// prototype; the interpreter needs Invoke, so it asserts down to this
// narrower view at each dispatch site.
type invoker interface {
	Invoke(runtime.Origin, runtime.Cell, []runtime.Cell) (runtime.Cell, error)
}

// isTruthy implements script truthiness: only Nil and the boolean value
// false are falsy; everything else, including zero and the empty string,
// is truthy.
func isTruthy(c runtime.Cell) bool {
	if c.IsNil() {
		return false
	}

	if c.TypeId() == boolTypeId {
		b, err := runtime.BorrowRef[bool](c)
		if err == nil {
			return b
		}
	}

	return true
}

func (m *Machine) execFieldGet(f *frame, instr compiler.Instruction) (runtime.Cell, error) {
	base := f.regs[instr.Args[0]]

	meta, err := m.Registry.Lookup(base.TypeId())
	if err != nil {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrUnregistered, instr.Origin, "field %q: %v", instr.Field, err)
	}

	comp, ok := meta.Components[instr.Field]
	if !ok {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeMissing, instr.Origin, "type %s has no field %q", meta.Name, instr.Field)
	}

	return comp.(invoker).Invoke(instr.Origin, base, nil)
}

func (m *Machine) execFieldSet(f *frame, instr compiler.Instruction) error {
	base := f.regs[instr.Args[0]]
	value := f.regs[instr.Dst]

	meta, err := m.Registry.Lookup(base.TypeId())
	if err != nil {
		return runtime.Wrapf(runtime.ErrUnregistered, instr.Origin, "field %q: %v", instr.Field, err)
	}

	comp, ok := meta.Components[instr.Field]
	if !ok {
		return runtime.Wrapf(runtime.ErrInvokeMissing, instr.Origin, "type %s has no field %q", meta.Name, instr.Field)
	}

	_, err = comp.(invoker).Invoke(instr.Origin, base, []runtime.Cell{value})

	return err
}

// execCallComponent resolves OpCallComponent's package-or-receiver
// dispatch, per the compiler's established convention: Args[0] ==
// InvalidRegister means a package-level (or global, Pkg == "") lookup by
// Field; otherwise Args[0] is the receiver and Field is looked up on its
// registered TypeMeta.
func (m *Machine) execCallComponent(ctx context.Context, f *frame, instr compiler.Instruction) (runtime.Cell, error) {
	callArgs := make([]runtime.Cell, len(instr.Args)-1)
	for i, r := range instr.Args[1:] {
		callArgs[i] = f.regs[r]
	}

	if instr.Args[0] == compiler.InvalidRegister {
		pkg, ok := m.Packages[instr.Pkg]
		if !ok {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrUnregistered, instr.Origin, "no such package %q", instr.Pkg)
		}

		comp, ok := pkg.Lookup(instr.Field)
		if !ok {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeMissing, instr.Origin, "package %q has no component %q", instr.Pkg, instr.Field)
		}

		return comp.Invoke(instr.Origin, runtime.Nil(), callArgs)
	}

	receiver := f.regs[instr.Args[0]]

	meta, err := m.Registry.Lookup(receiver.TypeId())
	if err != nil {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrUnregistered, instr.Origin, "method %q: %v", instr.Field, err)
	}

	comp, ok := meta.Components[instr.Field]
	if !ok {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeMissing, instr.Origin, "type %s has no component %q", meta.Name, instr.Field)
	}

	return comp.(invoker).Invoke(instr.Origin, receiver, callArgs)
}

// execOperator applies a fixed operator kind, special-casing OpCall (script
// function invocation, including closures created from `fn` literals)
// since a callable's "operator table entry" is really the interpreter
// invoking the routine directly rather than a host-registered Component.
func (m *Machine) execOperator(ctx context.Context, f *frame, instr compiler.Instruction) (runtime.Cell, error) {
	if instr.Operator == registry.OpCall {
		callee := f.regs[instr.Args[0]]

		cl, err := asClosure(callee)
		if err != nil {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrTypeMismatch, instr.Origin, "cannot call a non-function value: %v", err)
		}

		args := make([]runtime.Cell, len(instr.Args)-1)
		for i, r := range instr.Args[1:] {
			args[i] = f.regs[r]
		}

		return m.CallClosure(ctx, cl, args, instr.Origin)
	}

	receiver := f.regs[instr.Args[0]]

	meta, err := m.Registry.Lookup(receiver.TypeId())
	if err != nil {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrUnregistered, instr.Origin, "operator %s: %v", instr.Operator, err)
	}

	comp, ok := meta.Operators[instr.Operator]
	if !ok {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeMissing, instr.Origin, "type %s does not implement operator %s", meta.Name, instr.Operator)
	}

	args := make([]runtime.Cell, len(instr.Args)-1)
	for i, r := range instr.Args[1:] {
		args[i] = f.regs[r]
	}

	return comp.(invoker).Invoke(instr.Origin, receiver, args)
}
