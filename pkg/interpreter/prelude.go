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
package interpreter

import (
	"fmt"
	"math"

	"github.com/ad-astra-go/adastra/pkg/prototype"
	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// floatTypeId, stringTypeId, and boolTypeId are the identities the compiler
// boxes number/string/bool literals under (pkg/compiler's package-level
// vars of the same name). TypeId equality depends only on the underlying
// reflect.Type and an (empty, here) monomorphization tag, so constructing
// them again independently here yields values equal to the compiler's.
var (
	floatTypeId  = registry.NewTypeId(float64(0))
	stringTypeId = registry.NewTypeId("")
	boolTypeId   = registry.NewTypeId(false)
)

// NewPrelude constructs a Machine whose registry already knows how to add,
// compare, and display the three primitive literal types the compiler
// produces, plus a "math" package exercising a handful of numeric
// components, grounding number literals in something the interpreter can
// actually run operators and calls against end to end.
func NewPrelude() *Machine {
	reg := registry.New()

	registerFloat(reg)
	registerString(reg)
	registerBool(reg)

	asm := prototype.NewAssembler(reg)

	mathProto := prototype.NewPrototype(prototype.ForPackage("math"))
	mustContribute(mathProto.Component(prototype.NewComponent("sqrt", prototype.KindMethod, "square root", func(origin runtime.Origin, _ runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		v, err := floatArg(args, 0)
		if err != nil {
			return runtime.Cell{}, err
		}

		return runtime.Own(origin, floatTypeId, math.Sqrt(v)), nil
	})))
	mustContribute(mathProto.Component(prototype.NewComponent("pi", prototype.KindConstant, "the ratio of a circle's circumference to its diameter", func(origin runtime.Origin, _ runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
		return runtime.Own(origin, floatTypeId, math.Pi), nil
	})))
	mustContribute(mathProto.Component(prototype.NewComponent("max", prototype.KindMethod, "the larger of two numbers", func(origin runtime.Origin, _ runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		a, err := floatArg(args, 0)
		if err != nil {
			return runtime.Cell{}, err
		}

		b, err := floatArg(args, 1)
		if err != nil {
			return runtime.Cell{}, err
		}

		return runtime.Own(origin, floatTypeId, math.Max(a, b)), nil
	})))

	globalProto := prototype.NewPrototype(prototype.ForPackage(""))
	mustContribute(globalProto.Component(prototype.NewComponent("display", prototype.KindMethod, "render any value as a string", func(origin runtime.Origin, _ runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		if len(args) != 1 {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeArity, origin, "display takes exactly one argument")
		}

		return runtime.Own(origin, stringTypeId, displayCell(reg, args[0])), nil
	})))

	// Every infix-looking symbol a script writes ("+", "<", "and", ...) is,
	// to the compiler, just another unresolved call head: it compiles to an
	// OpCallComponent against the global package like any other name. These
	// components are what make that call land on the receiver's own
	// registered operator rather than a fixed built-in opcode, so a host
	// type that implements OpAdd picks up "+" for free.
	binarySymbols := map[string]registry.OperatorKind{
		"+":      registry.OpAdd,
		"*":      registry.OpMultiply,
		"/":      registry.OpDivide,
		"%":      registry.OpRemainder,
		"==":     registry.OpEquals,
		"<":      registry.OpLessThan,
		"and":    registry.OpLogicalAnd,
		"or":     registry.OpLogicalOr,
		"concat": registry.OpConcat,
	}

	for symbol, op := range binarySymbols {
		mustContribute(globalProto.Component(prototype.NewComponent(symbol, prototype.KindMethod, "dispatches to the first argument's "+op.String()+" operator", dispatchBinaryOperator(reg, op))))
	}

	mustContribute(globalProto.Component(prototype.NewComponent("-", prototype.KindMethod, "subtract, or negate with a single argument", dispatchSubtractOrNegate(reg))))
	mustContribute(globalProto.Component(prototype.NewComponent("not", prototype.KindMethod, "logical negation", dispatchUnaryOperator(reg, registry.OpLogicalNot))))

	packages := map[string]*prototype.Package{}

	mustAssemble(asm.Contribute(mathProto))
	mustAssemble(asm.Contribute(globalProto))

	mathPkg, err := asm.FinalizePackage("math")
	if err != nil {
		runtime.Invariant("finalize math package: %v", err)
	}

	globalPkg, err := asm.FinalizePackage("")
	if err != nil {
		runtime.Invariant("finalize global package: %v", err)
	}

	packages["math"] = mathPkg
	packages[""] = globalPkg

	return New(reg, packages)
}

func mustContribute(err error) {
	if err != nil {
		runtime.Invariant("prelude registration: %v", err)
	}
}

func mustAssemble(err error) {
	if err != nil {
		runtime.Invariant("prelude assembly: %v", err)
	}
}

// dispatchOperator looks up kind on receiver's registered TypeMeta and
// invokes it with rest, the shared machinery behind every global operator
// symbol below: resolution happens by the first argument's own type, not by
// a fixed built-in implementation, so a host type that registers OpAdd
// answers to "+" without the prelude knowing it exists.
func dispatchOperator(reg *registry.Registry, kind registry.OperatorKind, origin runtime.Origin, receiver runtime.Cell, rest []runtime.Cell) (runtime.Cell, error) {
	meta, err := reg.Lookup(receiver.TypeId())
	if err != nil {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrUnregistered, origin, "operator %s: %v", kind, err)
	}

	comp, ok := meta.Operators[kind]
	if !ok {
		return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeMissing, origin, "type %s does not implement operator %s", meta.Name, kind)
	}

	return comp.(invoker).Invoke(origin, receiver, rest)
}

func dispatchBinaryOperator(reg *registry.Registry, kind registry.OperatorKind) prototype.Fn {
	return func(origin runtime.Origin, _ runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		if len(args) != 2 {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeArity, origin, "%s takes exactly two arguments", kind)
		}

		return dispatchOperator(reg, kind, origin, args[0], args[1:])
	}
}

func dispatchUnaryOperator(reg *registry.Registry, kind registry.OperatorKind) prototype.Fn {
	return func(origin runtime.Origin, _ runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		if len(args) != 1 {
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeArity, origin, "%s takes exactly one argument", kind)
		}

		return dispatchOperator(reg, kind, origin, args[0], nil)
	}
}

// dispatchSubtractOrNegate lets "-" serve both roles a script expects of it:
// one argument negates, two subtracts.
func dispatchSubtractOrNegate(reg *registry.Registry) prototype.Fn {
	return func(origin runtime.Origin, _ runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		switch len(args) {
		case 1:
			return dispatchOperator(reg, registry.OpNegate, origin, args[0], nil)
		case 2:
			return dispatchOperator(reg, registry.OpSubtract, origin, args[0], args[1:])
		default:
			return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeArity, origin, "- takes one or two arguments")
		}
	}
}

func floatArg(args []runtime.Cell, i int) (float64, error) {
	if i >= len(args) {
		return 0, runtime.Wrapf(runtime.ErrInvokeArity, runtime.SyntheticOrigin("math"), "missing argument %d", i)
	}

	return runtime.Take[float64](args[i])
}

func binaryFloatOp(kind registry.OperatorKind, fn func(a, b float64) float64) prototype.Component {
	return prototype.TraitImplComponent(prototype.ExportConfig{}, kind, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		a, err := runtime.Take[float64](receiver)
		if err != nil {
			return runtime.Cell{}, err
		}

		b, err := floatArg(args, 0)
		if err != nil {
			return runtime.Cell{}, err
		}

		return runtime.Own(origin, floatTypeId, fn(a, b)), nil
	})
}

func registerFloat(reg *registry.Registry) {
	meta := &registry.TypeMeta{
		Name:       "Number",
		Family:     "numeric",
		Doc:        "A 64-bit floating point number.",
		Components: map[string]registry.Component{},
		Operators: map[registry.OperatorKind]registry.Component{
			registry.OpAdd:      binaryFloatOp(registry.OpAdd, func(a, b float64) float64 { return a + b }),
			registry.OpSubtract: binaryFloatOp(registry.OpSubtract, func(a, b float64) float64 { return a - b }),
			registry.OpMultiply: binaryFloatOp(registry.OpMultiply, func(a, b float64) float64 { return a * b }),
			registry.OpDivide: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpDivide, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[float64](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				b, err := floatArg(args, 0)
				if err != nil {
					return runtime.Cell{}, err
				}

				if b == 0 {
					return runtime.Cell{}, runtime.Wrapf(runtime.ErrDivByZero, origin, "division by zero")
				}

				return runtime.Own(origin, floatTypeId, a/b), nil
			}),
			registry.OpRemainder: binaryFloatOp(registry.OpRemainder, math.Mod),
			registry.OpNegate: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpNegate, func(origin runtime.Origin, receiver runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[float64](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, floatTypeId, -a), nil
			}),
			registry.OpEquals: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpEquals, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[float64](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				b, err := floatArg(args, 0)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, boolTypeId, a == b), nil
			}),
			registry.OpLessThan: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpLessThan, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[float64](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				b, err := floatArg(args, 0)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, boolTypeId, a < b), nil
			}),
			registry.OpDisplay: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpDisplay, func(origin runtime.Origin, receiver runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[float64](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, stringTypeId, fmt.Sprintf("%g", a)), nil
			}),
		},
		Capabilities: registry.CapabilitySet(registry.CapAdd | registry.CapComparable | registry.CapDisplay),
	}

	reg.MustRegister(floatTypeId, meta)
}

func registerString(reg *registry.Registry) {
	meta := &registry.TypeMeta{
		Name:       "String",
		Family:     "text",
		Doc:        "A UTF-8 string.",
		Components: map[string]registry.Component{},
		Operators: map[registry.OperatorKind]registry.Component{
			registry.OpConcat: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpConcat, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[string](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				if len(args) < 1 {
					return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeArity, origin, "concat takes one argument")
				}

				b, err := runtime.Take[string](args[0])
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, stringTypeId, a+b), nil
			}),
			registry.OpEquals: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpEquals, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[string](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				if len(args) < 1 {
					return runtime.Cell{}, runtime.Wrapf(runtime.ErrInvokeArity, origin, "equals takes one argument")
				}

				b, err := runtime.Take[string](args[0])
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, boolTypeId, a == b), nil
			}),
			registry.OpDisplay: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpDisplay, func(origin runtime.Origin, receiver runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
				return receiver, nil
			}),
		},
		Capabilities: registry.CapabilitySet(registry.CapConcat | registry.CapComparable | registry.CapDisplay),
	}

	reg.MustRegister(stringTypeId, meta)
}

func registerBool(reg *registry.Registry) {
	meta := &registry.TypeMeta{
		Name:       "Bool",
		Family:     "logical",
		Doc:        "A boolean value.",
		Components: map[string]registry.Component{},
		Operators: map[registry.OperatorKind]registry.Component{
			registry.OpLogicalAnd: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpLogicalAnd, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[bool](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				b, err := boolArg(args, 0)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, boolTypeId, a && b), nil
			}),
			registry.OpLogicalOr: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpLogicalOr, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[bool](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				b, err := boolArg(args, 0)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, boolTypeId, a || b), nil
			}),
			registry.OpLogicalNot: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpLogicalNot, func(origin runtime.Origin, receiver runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[bool](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, boolTypeId, !a), nil
			}),
			registry.OpDisplay: prototype.TraitImplComponent(prototype.ExportConfig{}, registry.OpDisplay, func(origin runtime.Origin, receiver runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
				a, err := runtime.Take[bool](receiver)
				if err != nil {
					return runtime.Cell{}, err
				}

				return runtime.Own(origin, stringTypeId, fmt.Sprintf("%t", a)), nil
			}),
		},
		Capabilities: registry.CapabilitySet(registry.CapDisplay),
	}

	reg.MustRegister(boolTypeId, meta)
}

func boolArg(args []runtime.Cell, i int) (bool, error) {
	if i >= len(args) {
		return false, runtime.Wrapf(runtime.ErrInvokeArity, runtime.SyntheticOrigin("bool"), "missing argument %d", i)
	}

	return runtime.Take[bool](args[i])
}

// displayCell renders any Cell as a string, consulting its TypeMeta's
// OpDisplay operator first and falling back to a synthetic placeholder for
// Nil or unregistered values rather than failing the whole display call.
func displayCell(reg *registry.Registry, c runtime.Cell) string {
	if c.IsNil() {
		return "nil"
	}

	meta, err := reg.Lookup(c.TypeId())
	if err != nil {
		return fmt.Sprintf("<%s>", c.TypeId())
	}

	comp, ok := meta.Operators[registry.OpDisplay]
	if !ok {
		return fmt.Sprintf("<%s>", meta.Name)
	}

	result, err := comp.(invoker).Invoke(c.Origin(), c, nil)
	if err != nil {
		return fmt.Sprintf("<%s: display error>", meta.Name)
	}

	s, err := runtime.Take[string](result)
	if err != nil {
		return fmt.Sprintf("<%s>", meta.Name)
	}

	return s
}
