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
package prototype

import (
	"fmt"
	"testing"

	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

type vec2 struct{ X, Y float64 }

func (v vec2) Add(o vec2) vec2 { return vec2{v.X + o.X, v.Y + o.Y} }
func (v vec2) Neg() vec2       { return vec2{-v.X, -v.Y} }
func (v vec2) Display() string { return fmt.Sprintf("vec(%g, %g)", v.X, v.Y) }

// TestVectorArithmeticScenario covers the vector arithmetic scenario at the
// operator level: a host 2D vector type with operators negate and add,
// evaluated as a + (-b) for a = (1, 2) and b = (3, 4) by invoking the
// finalized operator components directly. The values are built with
// runtime.Own; no vec constructor or x/y accessors are registered.
func TestVectorArithmeticScenario(t *testing.T) {
	reg := registry.New()
	vecId := registry.NewTypeId(vec2{})

	meta := &registry.TypeMeta{
		Name:         "Vector2",
		Family:       "numeric",
		Doc:          "A 2D vector.",
		Components:   map[string]registry.Component{},
		Operators:    map[registry.OperatorKind]registry.Component{},
		Capabilities: registry.CapabilitySet(registry.CapAdd | registry.CapDisplay),
	}
	if err := reg.Register(vecId, meta); err != nil {
		t.Fatalf("register vec2: %v", err)
	}

	asm := NewAssembler(reg)
	typeProto := NewPrototype(ForType(vecId))

	addComponent := TraitImplComponent(ExportConfig{}, registry.OpAdd, func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
		lhs, err := runtime.Take[vec2](receiver)
		if err != nil {
			return runtime.Cell{}, err
		}

		rhs, err := runtime.Take[vec2](args[0])
		if err != nil {
			return runtime.Cell{}, err
		}

		return runtime.Own(origin, vecId, lhs.Add(rhs)), nil
	})
	if err := typeProto.Operator(registry.OpAdd, addComponent); err != nil {
		t.Fatalf("install add operator: %v", err)
	}

	negComponent := TraitImplComponent(ExportConfig{}, registry.OpNegate, func(origin runtime.Origin, receiver runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
		v, err := runtime.Take[vec2](receiver)
		if err != nil {
			return runtime.Cell{}, err
		}

		return runtime.Own(origin, vecId, v.Neg()), nil
	})
	if err := typeProto.Operator(registry.OpNegate, negComponent); err != nil {
		t.Fatalf("install neg operator: %v", err)
	}

	if err := asm.Contribute(typeProto); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	if err := asm.FinalizeType(vecId); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	origin := runtime.SyntheticOrigin("host function vec")
	a := runtime.Own(origin, vecId, vec2{X: 1, Y: 2})
	b := runtime.Own(origin, vecId, vec2{X: 3, Y: 4})

	negateComp, ok := meta.Operators[registry.OpNegate]
	if !ok {
		t.Fatal("negate operator missing from finalized TypeMeta")
	}

	negB, err := negateComp.(Component).Invoke(origin, b, nil)
	if err != nil {
		t.Fatalf("invoke negate: %v", err)
	}

	addComp, ok := meta.Operators[registry.OpAdd]
	if !ok {
		t.Fatal("add operator missing from finalized TypeMeta")
	}

	result, err := addComp.(Component).Invoke(origin, a, []runtime.Cell{negB})
	if err != nil {
		t.Fatalf("invoke add: %v", err)
	}

	got, err := runtime.Take[vec2](result)
	if err != nil {
		t.Fatalf("take result: %v", err)
	}

	want := vec2{X: -2, Y: -2}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got.Display() != "vec(-2, -2)" {
		t.Fatalf("got display %q, want vec(-2, -2)", got.Display())
	}
}

func TestDuplicateComponentNameRejected(t *testing.T) {
	proto := NewPrototype(ForPackage("math"))

	noop := func(runtime.Origin, runtime.Cell, []runtime.Cell) (runtime.Cell, error) {
		return runtime.Nil(), nil
	}

	if err := proto.Component(NewComponent("pi", KindConstant, "", noop)); err != nil {
		t.Fatalf("first component: %v", err)
	}

	if err := proto.Component(NewComponent("pi", KindConstant, "", noop)); err == nil {
		t.Fatal("expected duplicate component name error")
	}
}

func TestFinalizeTypeUnregisteredFails(t *testing.T) {
	reg := registry.New()
	asm := NewAssembler(reg)

	unregistered := registry.NewTypeId(struct{}{})
	proto := NewPrototype(ForType(unregistered))

	if err := proto.Component(NewComponent("x", KindAccessor, "", func(runtime.Origin, runtime.Cell, []runtime.Cell) (runtime.Cell, error) {
		return runtime.Nil(), nil
	})); err != nil {
		t.Fatalf("component: %v", err)
	}

	if err := asm.Contribute(proto); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	if err := asm.FinalizeType(unregistered); err == nil {
		t.Fatal("expected error finalizing prototype for an unregistered type")
	}
}
