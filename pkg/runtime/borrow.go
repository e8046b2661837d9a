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

import "sync"

// box is the single heap allocation backing an OwnedHeap value and every
// Borrowed{Shared,Exclusive} view derived from it. Cells never clone a box;
// they either move it (ownership transfer) or take a new reference to it
// (borrow), per the "Cells are moved, not cloned implicitly" invariant.
//
// Go has no compile-time borrow checker, so box enforces the ownership and
// borrow invariants at runtime with counters, exactly as DESIGN NOTES
// "Lifetimes at the boundary" prescribes for languages without one.
type box struct {
	mu        sync.Mutex
	value     any
	sharedN   int
	exclusive bool
}

func newBox(value any) *box {
	return &box{value: value}
}

// acquireShared increments the shared-reader count, failing if an exclusive
// borrow is outstanding.
func (b *box) acquireShared(origin Origin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exclusive {
		return Wrapf(ErrBorrowConflict, origin, "cannot borrow shared: exclusive borrow outstanding")
	}

	b.sharedN++

	return nil
}

// releaseShared decrements the shared-reader count.
func (b *box) releaseShared() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sharedN > 0 {
		b.sharedN--
	}
}

// acquireExclusive marks the box exclusively borrowed, failing if any
// shared or exclusive borrow is already outstanding.
func (b *box) acquireExclusive(origin Origin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exclusive {
		return Wrapf(ErrBorrowConflict, origin, "cannot borrow exclusive: exclusive borrow outstanding")
	}

	if b.sharedN > 0 {
		return Wrapf(ErrBorrowConflict, origin, "cannot borrow exclusive: %d shared borrow(s) outstanding", b.sharedN)
	}

	b.exclusive = true

	return nil
}

// releaseExclusive clears the exclusive-borrow flag.
func (b *box) releaseExclusive() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.exclusive = false
}

// idle reports whether the box currently has no outstanding borrows,
// used by tests verifying that "borrow counts return to their prior
// values on scope exit".
func (b *box) idle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sharedN == 0 && !b.exclusive
}
