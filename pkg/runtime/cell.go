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
package runtime

import (
	"reflect"

	"github.com/ad-astra-go/adastra/pkg/registry"
)

// PayloadKind identifies which of the five payload variants a Cell
// currently holds.
type PayloadKind uint8

// The five payload variants.
const (
	PayloadNil PayloadKind = iota
	PayloadOwnedInline
	PayloadOwnedHeap
	PayloadBorrowedShared
	PayloadBorrowedExclusive
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadNil:
		return "Nil"
	case PayloadOwnedInline:
		return "OwnedInline"
	case PayloadOwnedHeap:
		return "OwnedHeap"
	case PayloadBorrowedShared:
		return "BorrowedShared"
	case PayloadBorrowedExclusive:
		return "BorrowedExclusive"
	default:
		return "Unknown"
	}
}

// Cell is the universal boxed script value: origin, type id, payload, and
// borrow state. Cells are moved, not cloned implicitly; copying a Cell whose
// payload is not trivially-Copy instead yields a BorrowedShared view over
// the same underlying box via Share.
type Cell struct {
	origin Origin
	typeId registry.TypeId
	kind   PayloadKind
	inline any
	box    *box
}

// Nil constructs a Cell of type Nil with a synthetic origin, used for
// missing return values and optional-absent.
func Nil() Cell {
	return Cell{kind: PayloadNil, origin: SyntheticOrigin("nil")}
}

// IsNil reports whether this Cell is the absent value.
func (c Cell) IsNil() bool { return c.kind == PayloadNil }

// Origin returns the source (or synthetic) location this Cell is anchored
// at for diagnostics.
func (c Cell) Origin() Origin { return c.origin }

// TypeId returns the dynamic type of this Cell's payload. Calling TypeId on
// a Nil cell returns the zero TypeId and should not be relied upon; check
// IsNil first.
func (c Cell) TypeId() registry.TypeId { return c.typeId }

// Kind returns which payload variant this Cell currently holds.
func (c Cell) Kind() PayloadKind { return c.kind }

// isTrivialCopyKind reports whether k is a reflect.Kind eligible for
// OwnedInline storage: small values a host type advertises as Copy simply by being one
// of Go's scalar kinds. Everything else (structs, slices, maps, pointers,
// interfaces) is stored OwnedHeap behind a box.
func isTrivialCopyKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// Own constructs an Owned Cell around value, dispatching between
// OwnedInline and OwnedHeap by the value's size/Copy-ness.
func Own(origin Origin, id registry.TypeId, value any) Cell {
	if value == nil || isTrivialCopyKind(reflect.TypeOf(value).Kind()) {
		return Cell{kind: PayloadOwnedInline, origin: origin, typeId: id, inline: value}
	}

	return Cell{kind: PayloadOwnedHeap, origin: origin, typeId: id, box: newBox(value)}
}

// Give constructs a BorrowedShared Cell pointing at a host value the caller
// retains ownership of; the consumer must not let the returned Cell (or any
// value derived from it) outlive the borrow, per the Cell.give contract.
func Give(origin Origin, id registry.TypeId, value any) Cell {
	b := newBox(value)
	b.sharedN = 1

	return Cell{kind: PayloadBorrowedShared, origin: origin, typeId: id, box: b}
}

// Take consumes c and yields its owned payload as T. It fails with
// ErrTypeMismatch if the payload's dynamic type is not T or c is Nil, or
// ErrNotOwned if c is a Borrowed* cell.
func Take[T any](c Cell) (T, error) {
	var zero T

	switch c.kind {
	case PayloadOwnedInline:
		v, ok := c.inline.(T)
		if !ok {
			return zero, Wrapf(ErrTypeMismatch, c.origin, "cannot take %T as %T", c.inline, zero)
		}

		return v, nil
	case PayloadOwnedHeap:
		if !c.box.idle() {
			return zero, Wrapf(ErrBorrowConflict, c.origin, "cannot take ownership: borrows outstanding")
		}

		v, ok := c.box.value.(T)
		if !ok {
			return zero, Wrapf(ErrTypeMismatch, c.origin, "cannot take %T as %T", c.box.value, zero)
		}

		return v, nil
	case PayloadNil:
		return zero, Wrapf(ErrTypeMismatch, c.origin, "cannot take ownership of nil")
	default:
		return zero, Wrapf(ErrNotOwned, c.origin, "cannot take ownership of a borrowed cell")
	}
}

// BorrowRef obtains a shared reference to c's payload as T, incrementing
// the shared-borrow count. It fails if an exclusive borrow is outstanding,
// or if c does not own/reference a T. Call ReleaseRef when done.
func BorrowRef[T any](c Cell) (T, error) {
	var zero T

	value, b, err := c.boxedValue()
	if err != nil {
		return zero, err
	}

	v, ok := value.(T)
	if !ok {
		return zero, Wrapf(ErrTypeMismatch, c.origin, "cannot borrow %T as %T", value, zero)
	}

	if b != nil {
		if err := b.acquireShared(c.origin); err != nil {
			return zero, err
		}
	}

	return v, nil
}

// BorrowMut obtains a unique mutable reference to c's payload as T,
// excluding any other borrow. Call ReleaseMut when done.
func BorrowMut[T any](c Cell) (T, error) {
	var zero T

	value, b, err := c.boxedValue()
	if err != nil {
		return zero, err
	}

	v, ok := value.(T)
	if !ok {
		return zero, Wrapf(ErrTypeMismatch, c.origin, "cannot borrow %T as %T", value, zero)
	}

	if b == nil {
		return zero, Wrapf(ErrBorrowConflict, c.origin, "cannot borrow inline value exclusively")
	}

	if err := b.acquireExclusive(c.origin); err != nil {
		return zero, err
	}

	return v, nil
}

// ReleaseRef releases a shared borrow previously acquired via BorrowRef.
func (c Cell) ReleaseRef() {
	if c.box != nil {
		c.box.releaseShared()
	}
}

// ReleaseMut releases an exclusive borrow previously acquired via
// BorrowMut.
func (c Cell) ReleaseMut() {
	if c.box != nil {
		c.box.releaseExclusive()
	}
}

// boxedValue returns the underlying host value and, for heap-backed
// variants, the box guarding it (nil for OwnedInline, which has no borrow
// state to arbitrate since it is always copied).
func (c Cell) boxedValue() (any, *box, error) {
	switch c.kind {
	case PayloadOwnedInline:
		return c.inline, nil, nil
	case PayloadOwnedHeap, PayloadBorrowedShared, PayloadBorrowedExclusive:
		return c.box.value, c.box, nil
	case PayloadNil:
		return nil, nil, Wrapf(ErrTypeMismatch, c.origin, "cannot borrow nil")
	default:
		Invariant("unreachable payload kind %v", c.kind)

		return nil, nil, nil
	}
}

// Share returns a second, BorrowedShared view over c's underlying box. It
// is the only way to obtain a second reference to a non-trivially-copyable
// Cell, per "taking a second reference produces a BorrowedShared view".
// Share panics via Invariant if called on a Nil or OwnedInline cell, since
// those have no box to share and should be copied by value instead.
func (c Cell) Share() Cell {
	if c.box == nil {
		Invariant("cannot Share a cell with no backing box (kind=%v)", c.kind)
	}

	c.box.sharedN++

	return Cell{kind: PayloadBorrowedShared, origin: c.origin, typeId: c.typeId, box: c.box}
}

// BorrowSliceRef and BorrowSliceMut sequence borrows over a slice of Cells,
// releasing any already-acquired borrows if a later element fails, so that
// a partial failure never leaks an outstanding borrow.
func BorrowSliceRef[T any](cells []Cell) ([]T, error) {
	out := make([]T, 0, len(cells))

	for i, c := range cells {
		v, err := BorrowRef[T](c)
		if err != nil {
			for j := 0; j < i; j++ {
				cells[j].ReleaseRef()
			}

			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

// BorrowSliceMut is the exclusive-borrow analogue of BorrowSliceRef.
func BorrowSliceMut[T any](cells []Cell) ([]T, error) {
	out := make([]T, 0, len(cells))

	for i, c := range cells {
		v, err := BorrowMut[T](c)
		if err != nil {
			for j := 0; j < i; j++ {
				cells[j].ReleaseMut()
			}

			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}
