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
	"context"
	"testing"

	"github.com/ad-astra-go/adastra/pkg/analysis"
	"github.com/ad-astra-go/adastra/pkg/compiler"
	"github.com/ad-astra-go/adastra/pkg/runtime"
	"github.com/ad-astra-go/adastra/pkg/syntax"
)

func run(t *testing.T, text string) runtime.Cell {
	t.Helper()

	doc, err := syntax.Open(1, text)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	res := analysis.Resolve(doc)

	asm, err := compiler.New(doc, res).CompileModule()
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	m := NewPrelude()

	result, err := m.Run(context.Background(), asm)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}

	return result
}

func TestArithmeticOverNumberLiterals(t *testing.T) {
	result := run(t, `(- (* 2 3) 1)`)

	got, err := runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error taking float64: %v", err)
	}

	if got != 5 {
		t.Fatalf("got %v, want 5", got)
	}
}

func TestIfSelectsTheTakenArmsValue(t *testing.T) {
	result := run(t, `(if true 1 2)`)

	got, err := runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 1 {
		t.Fatalf("got %v, want 1", got)
	}

	result = run(t, `(if false 1 2)`)

	got, err = runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

// TestWhileSkipsItsBodyOnAFalsyCondition pins down the fix to the branch
// polarity of a compiled while loop: OpBranch only ever jumps on truthy, so
// a falsy condition must fall through the exit jump without ever reaching
// the body. Were that inverted, this would try to field-set a nonexistent
// field on x and fail instead of returning x's own value untouched.
func TestWhileSkipsItsBodyOnAFalsyCondition(t *testing.T) {
	result := run(t, `(let x 1) (while false (set x.field 2)) x`)

	got, err := runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 1 {
		t.Fatalf("got %v, want 1 (the loop body must never have run)", got)
	}
}

func TestComparisonAndLogicalOperatorsDispatchByReceiverType(t *testing.T) {
	result := run(t, `(and (< 1 2) (== 3 3))`)

	got, err := runtime.Take[bool](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got {
		t.Fatalf("got %v, want true", got)
	}
}

func TestNegationIsDistinguishedFromSubtractionByArity(t *testing.T) {
	result := run(t, `(- 5)`)

	got, err := runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != -5 {
		t.Fatalf("got %v, want -5", got)
	}
}

func TestDirectClosureApplication(t *testing.T) {
	result := run(t, `(let add (fn (a b) (+ a b))) (add 2 3)`)

	got, err := runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 5 {
		t.Fatalf("got %v, want 5", got)
	}
}

func TestMathPackageSqrt(t *testing.T) {
	result := run(t, `(import math) (math.sqrt 9)`)

	got, err := runtime.Take[float64](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
}

func TestGlobalDisplayComponent(t *testing.T) {
	result := run(t, `(display 3.5)`)

	got, err := runtime.Take[string](result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "3.5" {
		t.Fatalf("got %q, want %q", got, "3.5")
	}
}

func TestCallingANonFunctionValueFails(t *testing.T) {
	doc, err := syntax.Open(1, `(let x 1) (x 2)`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	res := analysis.Resolve(doc)

	asm, err := compiler.New(doc, res).CompileModule()
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	m := NewPrelude()

	if _, err := m.Run(context.Background(), asm); err == nil {
		t.Fatalf("expected an error calling a non-function value")
	}
}

func TestStepBudgetExceededYieldsTimeout(t *testing.T) {
	doc, err := syntax.Open(1, `(while true 1)`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	res := analysis.Resolve(doc)

	asm, err := compiler.New(doc, res).CompileModule()
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	m := NewPrelude()
	m.StepBudget = 1000

	_, err = m.Run(context.Background(), asm)
	if err == nil {
		t.Fatalf("expected a step-budget timeout for an infinite loop")
	}

	rerr, ok := err.(*runtime.RuntimeError)
	if !ok || rerr.Kind != runtime.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}
