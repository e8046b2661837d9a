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
	"github.com/ad-astra-go/adastra/pkg/compiler"
	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// Closure is the host value an OpMakeClosure instruction boxes into a Cell:
// a subroutine's Assembly together with the closure array it snapshotted
// from its defining frame.
type Closure struct {
	Asm      *compiler.Assembly
	Captured []runtime.Cell
}

// closureTypeId is the identity every script-level function value is
// registered under. It carries no host fields of its own (a bare marker
// struct), so two closures over different Assemblies still share one
// TypeId, the way every Go func value shares one reflect.Type regardless of
// what it closes over.
var closureTypeId = registry.NewTypeId(closureMarker{})

type closureMarker struct{}

// newClosureCell boxes cl as an owned Cell under closureTypeId.
func newClosureCell(origin runtime.Origin, cl *Closure) runtime.Cell {
	return runtime.Own(origin, closureTypeId, cl)
}

// asClosure downcasts cell back to its Closure payload, failing with
// ErrTypeMismatch if cell does not hold one.
func asClosure(cell runtime.Cell) (*Closure, error) {
	return runtime.Take[*Closure](cell)
}
