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
	"fmt"
	"strconv"

	"github.com/ad-astra-go/adastra/pkg/analysis"
	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

var (
	floatTypeId = registry.NewTypeId(float64(0))
	stringTypeId = registry.NewTypeId("")
	boolTypeId = registry.NewTypeId(false)
)

// Compiler lowers a resolved document into Assembly, descending the CST the
// way pkg/corset/translator.go descends its resolved AST, recursively
// compiling nested `fn` forms into subroutines per original_source's
// interpret/compiler.rs.
type Compiler struct {
	doc *syntax.Document
	res *analysis.Resolution
}

// New constructs a Compiler over a document and its already-computed
// Resolution (see analysis.Resolve).
func New(doc *syntax.Document, res *analysis.Resolution) *Compiler {
	return &Compiler{doc: doc, res: res}
}

// frame accumulates one routine's Assembly during compilation: its
// in-progress instruction stream, its register allocation map, and (for
// nested routines) the enclosing frame used to resolve captures.
type frame struct {
	asm     *Assembly
	scope   *analysis.Scope
	regs    map[*analysis.Binding]Register
	next    Register
	parent  *frame
	capture map[*analysis.Binding]Register // binding -> closure slot, lazily populated
	lits    map[string]int                 // dedup key -> literal table index
}

func newFrame(scope *analysis.Scope, parent *frame) *frame {
	return &frame{
		asm:     &Assembly{},
		scope:   scope,
		regs:    make(map[*analysis.Binding]Register),
		parent:  parent,
		capture: make(map[*analysis.Binding]Register),
		lits:    make(map[string]int),
	}
}

func (f *frame) alloc() Register {
	r := f.next
	f.next++

	return r
}

func (f *frame) emit(instr Instruction) int {
	f.asm.Instructions = append(f.asm.Instructions, instr)

	return len(f.asm.Instructions) - 1
}

// registerFor returns the register a binding owned by this frame lives in,
// allocating one on first use, or resolves it as a capture from an
// enclosing frame, threading a closure slot down through every frame in
// between.
func (f *frame) registerFor(b *analysis.Binding) Register {
	if r, ok := f.regs[b]; ok {
		return r
	}

	if f.scope.Owns(b) {
		r := f.alloc()
		f.regs[b] = r

		return r
	}

	// Not owned here: this is a capture from an enclosing routine. Recurse
	// to materialize (or reuse) the closure slot, then load it into a local
	// register once per frame.
	slot, ok := f.capture[b]
	if !ok {
		slot = Register(f.asm.ClosureSlots)
		f.asm.ClosureSlots++
		f.capture[b] = slot
	}

	r := f.alloc()
	f.regs[b] = r
	f.emit(Instruction{Op: OpLoadClosure, Dst: r, Slot: int(slot)})

	return r
}

// CompileModule compiles the document's top-level forms into a single
// Assembly representing the module's implicit entry routine: evaluating
// each top-level form in order and returning the last one's value, per the
// S-expression convention that a block's value is its final form's value.
func (c *Compiler) CompileModule() (*Assembly, error) {
	f := newFrame(c.res.Root, nil)

	n, ok := c.doc.Node(c.doc.Root())
	if !ok {
		return nil, fmt.Errorf("compile: document has no root node")
	}

	last, err := c.compileBlock(f, n.Children)
	if err != nil {
		return nil, err
	}

	f.emit(Instruction{Op: OpReturn, Args: []Register{last}})
	f.asm.NumRegisters = int(f.next)

	return f.asm, nil
}

// compileBlock compiles a sequence of sibling forms, returning the register
// holding the final form's value (or a freshly loaded Nil if forms is
// empty).
func (c *Compiler) compileBlock(f *frame, forms []syntax.NodeRef) (Register, error) {
	last := Register(InvalidRegister)

	for _, ref := range forms {
		r, err := c.compileForm(f, ref)
		if err != nil {
			return InvalidRegister, err
		}

		last = r
	}

	if last == InvalidRegister {
		last = c.loadLiteral(f, runtime.Nil(), "nil")
	}

	return last, nil
}

func (c *Compiler) compileForm(f *frame, ref syntax.NodeRef) (Register, error) {
	n, ok := c.doc.Node(ref)
	if !ok {
		return InvalidRegister, fmt.Errorf("compile: dangling node reference %d", ref)
	}

	switch n.Kind {
	case syntax.NodeLet:
		return c.compileLet(f, ref, n)
	case syntax.NodeFn:
		return c.compileFnLiteral(f, ref, n)
	case syntax.NodeImport:
		return c.loadLiteral(f, runtime.Nil(), "nil"), nil
	case syntax.NodeWhile:
		return c.compileWhile(f, n)
	case syntax.NodeSet:
		return c.compileSet(f, n)
	default:
		return c.compileExpr(f, ref)
	}
}

func (c *Compiler) compileLet(f *frame, ref syntax.NodeRef, n *syntax.Node) (Register, error) {
	if len(n.Children) < 2 {
		return InvalidRegister, fmt.Errorf("compile: malformed let at %v", n.Span)
	}

	valueReg, err := c.compileExpr(f, n.Children[1])
	if err != nil {
		return InvalidRegister, err
	}

	nameNode, ok := c.doc.Node(n.Children[0])
	if !ok {
		return InvalidRegister, fmt.Errorf("compile: malformed let binding at %v", n.Span)
	}

	b, found := f.scope.Resolve(nameNode.Text)
	if !found {
		return InvalidRegister, fmt.Errorf("compile: unresolved let binding %q", nameNode.Text)
	}

	// Alias the binding's register onto the already-computed value register
	// rather than emitting a copy: every later reference to this name reads
	// directly from valueReg.
	f.regs[b] = valueReg

	return valueReg, nil
}

func (c *Compiler) compileWhile(f *frame, n *syntax.Node) (Register, error) {
	if len(n.Children) < 1 {
		return InvalidRegister, fmt.Errorf("compile: malformed while at %v", n.Span)
	}

	top := len(f.asm.Instructions)

	condReg, err := c.compileExpr(f, n.Children[0])
	if err != nil {
		return InvalidRegister, err
	}

	// OpBranch only jumps on truthy, so entering the body needs a branch to
	// its start plus an unconditional skip of that branch's fallthrough; the
	// skip is what actually exits the loop when cond is falsy.
	branchIdx := f.emit(Instruction{Op: OpBranch, Args: []Register{condReg}})
	exitJumpIdx := f.emit(Instruction{Op: OpLoop, Target: -1})

	f.asm.Instructions[branchIdx].Target = len(f.asm.Instructions)

	if _, err := c.compileBlock(f, n.Children[1:]); err != nil {
		return InvalidRegister, err
	}

	f.emit(Instruction{Op: OpLoop, Target: top})

	f.asm.Instructions[exitJumpIdx].Target = len(f.asm.Instructions)

	return c.loadLiteral(f, runtime.Nil(), "nil"), nil
}

// compileFnLiteral compiles a nested `fn` form into a subroutine Assembly,
// recording it in the enclosing frame's subroutine table and emitting an
// OpMakeClosure that captures whatever the subroutine needs from this
// frame's registers.
func (c *Compiler) compileFnLiteral(f *frame, ref syntax.NodeRef, n *syntax.Node) (Register, error) {
	if len(n.Children) < 1 {
		return InvalidRegister, fmt.Errorf("compile: malformed fn at %v", n.Span)
	}

	fnScope, ok := c.res.ScopeAt[n.Children[0]]
	if !ok {
		return InvalidRegister, fmt.Errorf("compile: fn at %v has no scope", n.Span)
	}

	sub := newFrame(fnScope, f)

	paramList, _ := c.doc.Node(n.Children[0])

	for _, p := range paramList.Children {
		pn, _ := c.doc.Node(p)

		b, found := fnScope.Resolve(pn.Text)
		if !found {
			return InvalidRegister, fmt.Errorf("compile: unresolved param %q", pn.Text)
		}

		sub.asm.Params = append(sub.asm.Params, sub.registerFor(b))
	}

	last, err := c.compileBlock(sub, n.Children[1:])
	if err != nil {
		return InvalidRegister, err
	}

	sub.emit(Instruction{Op: OpReturn, Args: []Register{last}})
	sub.asm.NumRegisters = int(sub.next)

	subIdx := len(f.asm.Subroutines)
	f.asm.Subroutines = append(f.asm.Subroutines, sub.asm)

	// Captured bindings were discovered lazily while compiling sub's body
	// (registerFor falls through to the capture path); replay them here in
	// slot order so OpMakeClosure's Args line up with the subroutine's
	// closure array.
	captureRegs := make([]Register, len(sub.capture))
	for b, slot := range sub.capture {
		captureRegs[slot] = f.registerFor(b)
	}

	dst := f.alloc()
	f.emit(Instruction{Op: OpMakeClosure, Dst: dst, Sub: subIdx, Args: captureRegs})

	return dst, nil
}

func (c *Compiler) compileExpr(f *frame, ref syntax.NodeRef) (Register, error) {
	n, ok := c.doc.Node(ref)
	if !ok {
		return InvalidRegister, fmt.Errorf("compile: dangling node reference %d", ref)
	}

	switch n.Kind {
	case syntax.NodeNumberLit:
		v, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return InvalidRegister, fmt.Errorf("compile: malformed number literal %q: %w", n.Text, err)
		}

		return c.loadLiteral(f, runtime.Own(nodeOrigin(c.doc, n), floatTypeId, v), "num:"+n.Text), nil
	case syntax.NodeStringLit:
		return c.loadLiteral(f, runtime.Own(nodeOrigin(c.doc, n), stringTypeId, n.Text), "str:"+n.Text), nil
	case syntax.NodeBoolLit:
		return c.loadLiteral(f, runtime.Own(nodeOrigin(c.doc, n), boolTypeId, n.Text == "true"), "bool:"+n.Text), nil
	case syntax.NodeNilLit:
		return c.loadLiteral(f, runtime.Nil(), "nil"), nil
	case syntax.NodeThis, syntax.NodeCrate:
		return c.loadLiteral(f, runtime.Nil(), "nil"), nil
	case syntax.NodeIdent:
		return c.compileIdent(f, ref, n)
	case syntax.NodeIf:
		return c.compileIf(f, n)
	case syntax.NodeField:
		return c.compileFieldGet(f, n)
	case syntax.NodeCall:
		return c.compileCall(f, n)
	case syntax.NodeList:
		return c.compileBlock(f, n.Children)
	default:
		return InvalidRegister, fmt.Errorf("compile: unsupported node kind %v at %v", n.Kind, n.Span)
	}
}

func (c *Compiler) compileIdent(f *frame, ref syntax.NodeRef, n *syntax.Node) (Register, error) {
	b, found := c.res.UseSites[ref]
	if !found {
		return InvalidRegister, fmt.Errorf("compile: unresolved identifier %q at %v", n.Text, n.Span)
	}

	return f.registerFor(b), nil
}

func (c *Compiler) compileIf(f *frame, n *syntax.Node) (Register, error) {
	if len(n.Children) < 2 {
		return InvalidRegister, fmt.Errorf("compile: malformed if at %v", n.Span)
	}

	condReg, err := c.compileExpr(f, n.Children[0])
	if err != nil {
		return InvalidRegister, err
	}

	result := f.alloc()

	branchIdx := f.emit(Instruction{Op: OpBranch, Args: []Register{condReg}})

	// Fall-through branch: the "else" arm (or Nil if there isn't one).
	var elseReg Register

	if len(n.Children) >= 3 {
		elseReg, err = c.compileExpr(f, n.Children[2])
		if err != nil {
			return InvalidRegister, err
		}
	} else {
		elseReg = c.loadLiteral(f, runtime.Nil(), "nil")
	}

	f.emit(Instruction{Op: OpMove, Dst: result, Args: []Register{elseReg}})

	jumpOverThen := f.emit(Instruction{Op: OpLoop, Target: -1})

	f.asm.Instructions[branchIdx].Target = len(f.asm.Instructions)

	thenReg, err := c.compileExpr(f, n.Children[1])
	if err != nil {
		return InvalidRegister, err
	}

	f.emit(Instruction{Op: OpMove, Dst: result, Args: []Register{thenReg}})

	f.asm.Instructions[jumpOverThen].Target = len(f.asm.Instructions)

	return result, nil
}

// compileSet compiles `(set <target>.<field> <value>)`: the target must be
// a field-access expression; the value is written onto the target's base
// object and also becomes the set form's own value, mirroring C-style
// assignment expressions.
func (c *Compiler) compileSet(f *frame, n *syntax.Node) (Register, error) {
	if len(n.Children) != 2 {
		return InvalidRegister, fmt.Errorf("compile: malformed set at %v", n.Span)
	}

	target, ok := c.doc.Node(n.Children[0])
	if !ok || target.Kind != syntax.NodeField || len(target.Children) < 1 {
		return InvalidRegister, fmt.Errorf("compile: set target at %v must be a field access", n.Span)
	}

	baseReg, err := c.compileExpr(f, target.Children[0])
	if err != nil {
		return InvalidRegister, err
	}

	valueReg, err := c.compileExpr(f, n.Children[1])
	if err != nil {
		return InvalidRegister, err
	}

	f.emit(Instruction{Op: OpFieldSet, Field: target.Text, Dst: valueReg, Args: []Register{baseReg}})

	return valueReg, nil
}

func (c *Compiler) compileFieldGet(f *frame, n *syntax.Node) (Register, error) {
	if len(n.Children) < 1 {
		return InvalidRegister, fmt.Errorf("compile: malformed field access at %v", n.Span)
	}

	baseReg, err := c.compileExpr(f, n.Children[0])
	if err != nil {
		return InvalidRegister, err
	}

	dst := f.alloc()
	f.emit(Instruction{Op: OpFieldGet, Dst: dst, Field: n.Text, Args: []Register{baseReg}})

	return dst, nil
}

func (c *Compiler) compileCall(f *frame, n *syntax.Node) (Register, error) {
	if len(n.Children) < 1 {
		return InvalidRegister, fmt.Errorf("compile: malformed call at %v", n.Span)
	}

	head, ok := c.doc.Node(n.Children[0])
	if !ok {
		return InvalidRegister, fmt.Errorf("compile: dangling call target at %v", n.Span)
	}

	args, err := c.compileArgs(f, n.Children[1:])
	if err != nil {
		return InvalidRegister, err
	}

	dst := f.alloc()

	switch head.Kind {
	case syntax.NodeIdent:
		if _, found := c.res.UseSites[n.Children[0]]; !found {
			// An unresolved call target names a global (prelude) component,
			// the way a bare `vec(...)` constructor call does.
			f.emit(Instruction{Op: OpCallComponent, Dst: dst, Field: head.Text, Args: prependNil(args)})

			return dst, nil
		}

		calleeReg, err := c.compileExpr(f, n.Children[0])
		if err != nil {
			return InvalidRegister, err
		}

		f.emit(Instruction{Op: OpOperator, Dst: dst, Operator: registry.OpCall, Args: append([]Register{calleeReg}, args...)})

		return dst, nil
	case syntax.NodeField:
		if len(head.Children) < 1 {
			return InvalidRegister, fmt.Errorf("compile: malformed call target at %v", head.Span)
		}

		baseRef := head.Children[0]

		if b, found := c.res.UseSites[baseRef]; found && b.Kind == analysis.BindImport {
			f.emit(Instruction{Op: OpCallComponent, Dst: dst, Field: head.Text, Pkg: b.Name, Args: prependNil(args)})

			return dst, nil
		}

		receiverReg, err := c.compileExpr(f, baseRef)
		if err != nil {
			return InvalidRegister, err
		}

		f.emit(Instruction{Op: OpCallComponent, Dst: dst, Field: head.Text, Args: append([]Register{receiverReg}, args...)})

		return dst, nil
	default:
		calleeReg, err := c.compileExpr(f, n.Children[0])
		if err != nil {
			return InvalidRegister, err
		}

		f.emit(Instruction{Op: OpOperator, Dst: dst, Operator: registry.OpCall, Args: append([]Register{calleeReg}, args...)})

		return dst, nil
	}
}

func (c *Compiler) compileArgs(f *frame, refs []syntax.NodeRef) ([]Register, error) {
	args := make([]Register, 0, len(refs))

	for _, ref := range refs {
		r, err := c.compileExpr(f, ref)
		if err != nil {
			return nil, err
		}

		args = append(args, r)
	}

	return args, nil
}

// prependNil prefixes args with a sentinel register meaning "no receiver",
// per OpCallComponent's (receiver, args...) convention for package-level
// components, which have none.
func prependNil(args []Register) []Register {
	return append([]Register{InvalidRegister}, args...)
}

// loadLiteral emits an OpLoadLiteral into a fresh destination register,
// reusing key's literal table slot if this exact literal was already loaded
// somewhere in this frame so the Assembly's literal table holds exactly the
// distinct literal cells the routine uses.
func (c *Compiler) loadLiteral(f *frame, cell runtime.Cell, key string) Register {
	idx, ok := f.lits[key]
	if !ok {
		idx = len(f.asm.Literals)
		f.asm.Literals = append(f.asm.Literals, cell)
		f.lits[key] = idx
	}

	dst := f.alloc()
	f.emit(Instruction{Op: OpLoadLiteral, Dst: dst, Lit: idx})

	return dst
}

func nodeOrigin(doc *syntax.Document, n *syntax.Node) runtime.Origin {
	return runtime.SourceOrigin(doc.ID(), n.Span.Start, n.Span.End)
}
