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
	"fmt"
	"strings"
)

// ErrorKind enumerates the fixed set of runtime/boundary error kinds.
type ErrorKind uint8

// The runtime/boundary error kinds.
const (
	ErrTypeMismatch ErrorKind = iota
	ErrNotOwned
	ErrBorrowConflict
	ErrUnregistered
	ErrDuplicateMismatch
	ErrUpcastHostError
	ErrInvokeArity
	ErrInvokeMissing
	ErrDivByZero
	ErrIndexOutOfRange
	ErrTimeout
	ErrInterrupted
	ErrInternalInvariant
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrNotOwned:
		return "NotOwned"
	case ErrBorrowConflict:
		return "BorrowConflict"
	case ErrUnregistered:
		return "Unregistered"
	case ErrDuplicateMismatch:
		return "DuplicateMismatch"
	case ErrUpcastHostError:
		return "UpcastHostError"
	case ErrInvokeArity:
		return "InvokeArity"
	case ErrInvokeMissing:
		return "InvokeMissing"
	case ErrDivByZero:
		return "DivByZero"
	case ErrIndexOutOfRange:
		return "IndexOutOfRange"
	case ErrTimeout:
		return "Timeout"
	case ErrInterrupted:
		return "Interrupted"
	case ErrInternalInvariant:
		return "InternalInvariant"
	default:
		return "Unknown"
	}
}

// RuntimeError is the typed error surfaced to the host caller across the
// Upcast/Downcast boundary and by the interpreter. As the interpreter
// unwinds frames it prepends each frame's origin to Chain, producing a
// trace from innermost to outermost call site.
type RuntimeError struct {
	Kind    ErrorKind
	Origin  Origin
	Message string
	Cause   error
	Chain   []Origin
}

// NewRuntimeError constructs a RuntimeError anchored at origin.
func NewRuntimeError(kind ErrorKind, origin Origin, message string) *RuntimeError {
	return &RuntimeError{Kind: kind, Origin: origin, Message: message, Chain: []Origin{origin}}
}

// Wrapf constructs a RuntimeError with a formatted message.
func Wrapf(kind ErrorKind, origin Origin, format string, args ...any) *RuntimeError {
	return NewRuntimeError(kind, origin, fmt.Sprintf(format, args...))
}

// Prepend records that frame origin observed this error while unwinding,
// and returns the same error for chaining at each call site. The outermost
// origin therefore ends up last in Chain, matching where the LSP adapter
// anchors the resulting diagnostic.
func (e *RuntimeError) Prepend(origin Origin) *RuntimeError {
	e.Chain = append(e.Chain, origin)

	return e
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)

	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	return b.String()
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *RuntimeError) Unwrap() error { return e.Cause }

// OutermostOrigin returns the last-recorded origin in the unwind chain, the
// location the LSP adapter should anchor a diagnostic at.
func (e *RuntimeError) OutermostOrigin() Origin {
	if len(e.Chain) == 0 {
		return e.Origin
	}

	return e.Chain[len(e.Chain)-1]
}

// Invariant panics with an ErrInternalInvariant-flavored message. It is the
// single chokepoint for bugs that should never be reachable via any
// fallible API, mirroring go-corset's eval.go panic-on-unknown-node idiom
// and the original Rust source's report::system_panic!. InternalInvariant
// failures are fatal by design: they are never silently recovered.
func Invariant(format string, args ...any) {
	panic(fmt.Sprintf("ad-astra: internal invariant violated: %s", fmt.Sprintf(format, args...)))
}
