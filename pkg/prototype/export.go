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
	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

// ExportConfig carries the naming/visibility knobs a single registration
// call may set, the supplemented (non-macro) remainder of
// original_source/export/config.rs: that file's debug-dump facility is
// proc-macro-expansion-time tooling and out of scope, but the
// concept of a per-registration configuration envelope survives as the
// options a conforming registration call chain is built from.
type ExportConfig struct {
	// Rename overrides the script-visible name; empty means "use the host
	// identifier unchanged".
	Rename string
	// Doc is the documentation string attached to the resulting Component
	// or TypeMeta.
	Doc string
	// Shallow mirrors the SHALLOW attribute flag threaded through
	// item_const.rs and item_trait.rs. No diagnostic in this module reads
	// it.
	Shallow bool
}

func (cfg ExportConfig) name(fallback string) string {
	if cfg.Rename != "" {
		return cfg.Rename
	}

	return fallback
}

// ConstComponent builds a KindConstant Component from a host constant
// value, grounded on item_const.rs's `Cell::give(origin, &IDENT)`
// constructor shape: repeated lookup always gives back a fresh borrowed
// view of the same host constant.
func ConstComponent[T any](cfg ExportConfig, hostName string, value *T, up func(runtime.Origin, *T) (runtime.Cell, error)) Component {
	return NewComponent(cfg.name(hostName), KindConstant, cfg.Doc, func(origin runtime.Origin, _ runtime.Cell, _ []runtime.Cell) (runtime.Cell, error) {
		return up(origin, value)
	})
}

// TypeComponent builds an accessor or method Component exposed on a host
// type's Prototype, grounded on item_type.rs's member-export path.
func TypeComponent(cfg ExportConfig, hostName string, kind ComponentKind, fn Fn) Component {
	return NewComponent(cfg.name(hostName), kind, cfg.Doc, fn)
}

// TraitImplComponent builds the Component an operator-table entry
// contributed by a trait-style implementation resolves to, grounded on
// item_trait.rs's per-rotation `Prototype::for_type` contribution for each
// monomorphization the trait polymorphism loop visits.
func TraitImplComponent(cfg ExportConfig, kind registry.OperatorKind, fn Fn) Component {
	return NewComponent(kind.String(), KindMethod, cfg.Doc, fn)
}
