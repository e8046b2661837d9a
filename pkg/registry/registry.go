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
package registry

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Error kinds returned by Registry operations.
var (
	// ErrUnregistered is returned by Lookup when no TypeMeta is registered
	// under the given TypeId.
	ErrUnregistered = fmt.Errorf("unregistered type")
	// ErrDuplicateMismatch is returned by Register when a TypeId is
	// re-registered with structurally different metadata.
	ErrDuplicateMismatch = fmt.Errorf("duplicate type registration with mismatching metadata")
)

var log_ = log.WithField("component", "registry")

// Registry is the process-wide, thread-safe catalog mapping TypeId to
// TypeMeta. The zero value is ready to use; Default returns a process-wide
// singleton lazily initialized on first use, matching the "Global state"
// design note: the registry must be initialized at first use, be
// thread-safe, provide monotonic semantics, and never expose a clear
// operation.
//
// Writers serialize on a single mutex and verify identity on collision;
// readers take the read lock, so steady-state lookups never block each
// other but do briefly synchronize with in-flight writers (an acceptable
// cost given registration happens once at process start
// "Scheduling").
type Registry struct {
	mu      sync.RWMutex
	entries map[TypeId]*TypeMeta
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry singleton, initializing it on
// first call.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
	})

	return defaultReg
}

// New constructs an empty registry. Most callers should use Default; New is
// exposed for analyzer/interpreter tests that need an isolated catalog.
func New() *Registry {
	return &Registry{entries: make(map[TypeId]*TypeMeta)}
}

// Register idempotently inserts meta under id. If an entry already exists
// for id, Register succeeds silently when the existing metadata is
// structurally identical, and fails with ErrDuplicateMismatch otherwise.
// Per the registry-monotonicity invariant, a TypeId once registered
// can never be unregistered or redefined.
func (r *Registry) Register(id TypeId, meta *TypeMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[TypeId]*TypeMeta)
	}

	if existing, ok := r.entries[id]; ok {
		if structurallyEqual(existing, meta) {
			return nil
		}

		log_.WithField("type", id.String()).Warn("duplicate registration with mismatching metadata")

		return fmt.Errorf("%w: %s", ErrDuplicateMismatch, id)
	}

	meta.Id = id
	r.entries[id] = meta
	log_.WithField("type", id.String()).Debug("registered host type")

	return nil
}

// MustRegister is like Register but panics with an invariant-violation
// message on failure (package runtime imports this package, so
// runtime.Invariant is not used here). It exists for generated registration call chains, which
// are expected to never legitimately fail: a failure there indicates two
// conflicting registrations of the same host item, a programming error.
func (r *Registry) MustRegister(id TypeId, meta *TypeMeta) {
	if err := r.Register(id, meta); err != nil {
		panic(fmt.Sprintf("ad-astra: invariant violated: %v", err))
	}
}

// Lookup returns the metadata registered under id, or ErrUnregistered.
func (r *Registry) Lookup(id TypeId) (*TypeMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregistered, id)
	}

	return meta, nil
}

// Capabilities returns the capability set of the type registered under id,
// or CapNone if unregistered: a completion-scoring helper should not require
// error handling on the hot path.
func (r *Registry) Capabilities(id TypeId) CapabilitySet {
	meta, err := r.Lookup(id)
	if err != nil {
		return CapabilitySet(CapNone)
	}

	return meta.Capabilities
}

// Iter calls fn once for each registered (TypeId, *TypeMeta) pair, in an
// unspecified order, over a consistent snapshot taken under the read lock.
// fn must not call back into the registry.
func (r *Registry) Iter(fn func(TypeId, *TypeMeta)) {
	r.mu.RLock()
	snapshot := make([]*TypeMeta, 0, len(r.entries))
	for _, meta := range r.entries {
		snapshot = append(snapshot, meta)
	}
	r.mu.RUnlock()

	for _, meta := range snapshot {
		fn(meta.Id, meta)
	}
}
