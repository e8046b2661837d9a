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

// Package prototype implements the host registration contract: the
// structured description of what a host-exposed package, type, or trait
// implementation contributes to the script's visible name space.
//
// This package defines the registration contract any metaprogramming layer
// must satisfy; it does not itself generate registration calls from host
// source.
package prototype

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// ComponentKind distinguishes the four component shapes a Package Prototype
// can contribute.
type ComponentKind uint8

const (
	// KindConstructor builds a new Cell from script-supplied arguments.
	KindConstructor ComponentKind = iota
	// KindAccessor reads a field from a receiver Cell.
	KindAccessor
	// KindMethod takes a receiver plus script-supplied arguments.
	KindMethod
	// KindConstant is a nullary producer, idempotent on repeated lookup.
	KindConstant
)

// Fn is the uniform invocation shape every Component reduces to: a receiver
// (Nil for package-level/constructor/constant components) plus zero or more
// argument Cells, producing a result Cell or a RuntimeError.
type Fn func(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error)

// Component is a single named script-visible operation: a constructor,
// accessor, method, or constant Package Prototype.
type Component struct {
	name string
	kind ComponentKind
	doc  string
	fn   Fn
}

// NewComponent constructs a Component. Constructors and constants are
// expected to be idempotent on repeated lookup; it is the caller's
// responsibility to supply an fn satisfying that.
func NewComponent(name string, kind ComponentKind, doc string, fn Fn) Component {
	return Component{name: name, kind: kind, doc: doc, fn: fn}
}

// Name implements registry.Component so operator-table entries can be
// stored directly on a registry.TypeMeta.
func (c Component) Name() string { return c.name }

// Kind returns which of the four component shapes this is.
func (c Component) Kind() ComponentKind { return c.kind }

// Doc returns the documentation string shown in hover descriptions.
func (c Component) Doc() string { return c.doc }

// Invoke calls the component's underlying function.
func (c Component) Invoke(origin runtime.Origin, receiver runtime.Cell, args []runtime.Cell) (runtime.Cell, error) {
	if c.fn == nil {
		runtime.Invariant("component %q has no implementation", c.name)
	}

	return c.fn(origin, receiver, args)
}

// Target identifies what a Prototype describes: a package-level name space,
// or the members of a specific registered type.
type Target struct {
	isType bool
	typeId registry.TypeId
	pkg    string
}

// ForPackage constructs a Target describing the top-level name space of a
// host package, grounded on the original source's `Prototype::for_package`.
func ForPackage(name string) Target {
	return Target{pkg: name}
}

// ForType constructs a Target describing the member set of a registered
// host type, grounded on `Prototype::for_type`.
func ForType(id registry.TypeId) Target {
	return Target{isType: true, typeId: id}
}

func (t Target) String() string {
	if t.isType {
		return t.typeId.String()
	}

	return "package " + t.pkg
}

// Prototype accumulates the Components a single registration call
// contributes to a Target, before being merged into the Package at
// finalization.
type Prototype struct {
	target     Target
	components map[string]Component
	operators  map[registry.OperatorKind]Component
}

// NewPrototype starts an empty contribution to target.
func NewPrototype(target Target) *Prototype {
	return &Prototype{
		target:     target,
		components: make(map[string]Component),
		operators:  make(map[registry.OperatorKind]Component),
	}
}

// Component registers a named component, failing if the name is already
// taken within this Prototype: collision is detected at registration time
// rather than deferred to lookup.
func (p *Prototype) Component(c Component) error {
	if _, exists := p.components[c.name]; exists {
		return fmt.Errorf("duplicate component name %q in %s", c.name, p.target)
	}

	p.components[c.name] = c

	return nil
}

// Operator installs an operator-table entry, failing if kind already has
// an entry in this Prototype. The component's arity and signature are not
// checked.
func (p *Prototype) Operator(kind registry.OperatorKind, c Component) error {
	if _, exists := p.operators[kind]; exists {
		return fmt.Errorf("duplicate operator %s in %s", kind, p.target)
	}

	p.operators[kind] = c

	return nil
}

// Package is the finalized name space a host package exposes to script: a
// lookup by name returning a Component reference suitable for invocation.
type Package struct {
	name       string
	mu         sync.RWMutex
	components map[string]Component
}

// Lookup returns the component registered under name, or false if absent.
func (pkg *Package) Lookup(name string) (Component, bool) {
	pkg.mu.RLock()
	defer pkg.mu.RUnlock()

	c, ok := pkg.components[name]

	return c, ok
}

// Names returns the sorted list of component names, used by the analyzer's
// completion query to enumerate package-level candidates.
func (pkg *Package) Names() []string {
	pkg.mu.RLock()
	defer pkg.mu.RUnlock()

	names := make([]string, 0, len(pkg.components))
	for name := range pkg.components {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Assembler finalizes Prototypes contributed for a single package Target
// into a Package, and installs type-targeted Prototypes' operator tables
// into the type registry's TypeMeta.
//
// Every referenced TypeId is checked for resolving against reg at
// finalization time.
type Assembler struct {
	reg      *registry.Registry
	packages map[string]*Prototype
	types    map[registry.TypeId]*Prototype
}

// NewAssembler constructs an Assembler that validates referenced TypeIds
// against reg.
func NewAssembler(reg *registry.Registry) *Assembler {
	return &Assembler{
		reg:      reg,
		packages: make(map[string]*Prototype),
		types:    make(map[registry.TypeId]*Prototype),
	}
}

// Contribute merges proto into the Assembler's pending state for its
// Target. Multiple registration calls may contribute to the same package
// Target; each call's Prototype is merged independently so duplicate
// component names across calls are still caught.
func (a *Assembler) Contribute(proto *Prototype) error {
	var existing *Prototype

	if proto.target.isType {
		existing = a.types[proto.target.typeId]
	} else {
		existing = a.packages[proto.target.pkg]
	}

	if existing == nil {
		if proto.target.isType {
			a.types[proto.target.typeId] = proto
		} else {
			a.packages[proto.target.pkg] = proto
		}

		return nil
	}

	for _, c := range proto.components {
		if err := existing.Component(c); err != nil {
			return err
		}
	}

	for kind, c := range proto.operators {
		if err := existing.Operator(kind, c); err != nil {
			return err
		}
	}

	return nil
}

// FinalizePackage merges every Prototype contributed for the named package
// into a Package lookup table.
func (a *Assembler) FinalizePackage(name string) (*Package, error) {
	proto, ok := a.packages[name]
	if !ok {
		return &Package{name: name, components: map[string]Component{}}, nil
	}

	return &Package{name: name, components: proto.components}, nil
}

// FinalizeType installs the operator table and member components
// contributed for id onto the registry's TypeMeta, failing if id does not
// resolve in the registry or if any declared member collides with one
// already present on the TypeMeta.
func (a *Assembler) FinalizeType(id registry.TypeId) error {
	proto, ok := a.types[id]
	if !ok {
		return nil
	}

	meta, err := a.reg.Lookup(id)
	if err != nil {
		return fmt.Errorf("finalizing prototype for %s: %w", id, err)
	}

	if meta.Components == nil {
		meta.Components = make(map[string]registry.Component)
	}

	for name, c := range proto.components {
		if _, exists := meta.Components[name]; exists {
			return fmt.Errorf("duplicate component name %q on type %s", name, id)
		}

		meta.Components[name] = c
	}

	if meta.Operators == nil {
		meta.Operators = make(map[registry.OperatorKind]registry.Component)
	}

	for kind, c := range proto.operators {
		if _, exists := meta.Operators[kind]; exists {
			return fmt.Errorf("duplicate operator %s on type %s", kind, id)
		}

		meta.Operators[kind] = c
	}

	return nil
}
