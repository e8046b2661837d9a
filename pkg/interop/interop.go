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

// Package interop implements the Upcast/Downcast conversion gateway every
// script-visible value passes through, plus the built-in
// implementations for primitives and containers that original_source's
// exports/{boxed,cow,option,result,slice,unit}.rs supply for the Rust
// runtime.
package interop

import (
	"fmt"

	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// Upcast wraps a host value of type T into a Cell. Implementations compose:
// Optional[T] upcasts to Nil-or-value, []T upcasts preserving borrow mode
// element-wise, and so on.
type Upcast[T any] interface {
	Upcast(origin runtime.Origin, value T) (runtime.Cell, error)
}

// Downcast unwraps a Cell (received as a Provider) into a host value of
// type T, under whichever borrow mode the Provider was constructed with.
type Downcast[T any] interface {
	Downcast(origin runtime.Origin, provider runtime.Provider) (T, error)
}

// UpcastFunc adapts a plain function to the Upcast interface.
type UpcastFunc[T any] func(origin runtime.Origin, value T) (runtime.Cell, error)

// Upcast implements Upcast[T].
func (f UpcastFunc[T]) Upcast(origin runtime.Origin, value T) (runtime.Cell, error) {
	return f(origin, value)
}

// DowncastFunc adapts a plain function to the Downcast interface.
type DowncastFunc[T any] func(origin runtime.Origin, provider runtime.Provider) (T, error)

// Downcast implements Downcast[T].
func (f DowncastFunc[T]) Downcast(origin runtime.Origin, provider runtime.Provider) (T, error) {
	return f(origin, provider)
}

// Scalar builds an Upcast/Downcast pair for a host scalar type already
// registered in the registry, using Cell.own/Cell.take directly. This
// covers every primitive numeric type, bool, and string: the "owned,
// trivially round-trippable" case that dominates host interop (ad-hoc
// analogue of exports/unit.rs's zero-sized handling generalized to any
// Go comparable scalar).
func Scalar[T any](id registry.TypeId) (UpcastFunc[T], DowncastFunc[T]) {
	up := UpcastFunc[T](func(origin runtime.Origin, value T) (runtime.Cell, error) {
		return runtime.Own(origin, id, value), nil
	})

	down := DowncastFunc[T](func(origin runtime.Origin, provider runtime.Provider) (T, error) {
		cell, err := provider.RequireOwned()
		if err != nil {
			return runtime.Take[T](provider.Cell())
		}

		return runtime.Take[T](cell)
	})

	return up, down
}

// Unit is the zero-sized value host functions returning nothing upcast to,
// grounded on exports/unit.rs. It round-trips to/from Nil.
type Unit struct{}

// UpcastUnit upcasts the zero-sized Unit value to Nil.
func UpcastUnit(runtime.Origin, Unit) (runtime.Cell, error) {
	return runtime.Nil(), nil
}

// DowncastUnit downcasts Nil (or anything, since Unit carries no data) to
// Unit.
func DowncastUnit(runtime.Origin, runtime.Provider) (Unit, error) {
	return Unit{}, nil
}

// UpcastOption upcasts an Optional value: None becomes Nil, Some(v)
// delegates to the inner Upcast. Grounded on exports/option.rs.
func UpcastOption[T any](inner Upcast[T]) UpcastFunc[*T] {
	return func(origin runtime.Origin, value *T) (runtime.Cell, error) {
		if value == nil {
			return runtime.Nil(), nil
		}

		return inner.Upcast(origin, *value)
	}
}

// DowncastOption downcasts Nil to a nil *T ("absent"); any other Cell
// delegates to the inner Downcast and boxes the result. Grounded on
// exports/option.rs, and the "downcast Nil to optional" testable property
//.
func DowncastOption[T any](inner Downcast[T]) DowncastFunc[*T] {
	return func(origin runtime.Origin, provider runtime.Provider) (*T, error) {
		if provider.Cell().IsNil() {
			return nil, nil
		}

		v, err := inner.Downcast(origin, provider)
		if err != nil {
			return nil, err
		}

		return &v, nil
	}
}

// UpcastResult upcasts a (value, error) host return: a non-nil error
// becomes ErrUpcastHostError, otherwise the inner Upcast runs. Grounded on
// exports/result.rs's RuntimeError::UpcastResult variant, which this
// implementation models as ErrUpcastHostError.
func UpcastResult[T any](inner Upcast[T]) func(origin runtime.Origin, value T, hostErr error) (runtime.Cell, error) {
	return func(origin runtime.Origin, value T, hostErr error) (runtime.Cell, error) {
		if hostErr != nil {
			return runtime.Cell{}, &runtime.RuntimeError{
				Kind:    runtime.ErrUpcastHostError,
				Origin:  origin,
				Message: hostErr.Error(),
				Cause:   hostErr,
				Chain:   []runtime.Origin{origin},
			}
		}

		return inner.Upcast(origin, value)
	}
}

// UpcastSlice upcasts a []T by delegating element-wise and wrapping the
// resulting Cells into a host-facing slice Cell. Preserves element borrow
// mode since each element Cell is produced independently. Grounded on
// exports/slice.rs.
func UpcastSlice[T any](id registry.TypeId, inner Upcast[T]) UpcastFunc[[]T] {
	return func(origin runtime.Origin, values []T) (runtime.Cell, error) {
		cells := make([]runtime.Cell, len(values))

		for i, v := range values {
			c, err := inner.Upcast(origin, v)
			if err != nil {
				return runtime.Cell{}, fmt.Errorf("upcasting element %d: %w", i, err)
			}

			cells[i] = c
		}

		return runtime.Own(origin, id, cells), nil
	}
}

// DowncastSlice downcasts a slice-shaped Cell by constructing the host
// slice around element-wise delegated downcasts.
func DowncastSlice[T any](inner Downcast[T]) DowncastFunc[[]T] {
	return func(origin runtime.Origin, provider runtime.Provider) ([]T, error) {
		cells, err := runtime.Take[[]runtime.Cell](provider.Cell())
		if err != nil {
			return nil, err
		}

		out := make([]T, len(cells))

		for i, c := range cells {
			v, err := inner.Downcast(origin, runtime.Owned(c))
			if err != nil {
				return nil, fmt.Errorf("downcasting element %d: %w", i, err)
			}

			out[i] = v
		}

		return out, nil
	}
}

// MustTypeId is a convenience wrapper used by generated registration code
// to build the TypeId for a scalar host type from a zero value, matching
// the `reflect.TypeOf` usage throughout this package.
func MustTypeId[T any]() registry.TypeId {
	var zero T

	return registry.NewTypeId(zero)
}
