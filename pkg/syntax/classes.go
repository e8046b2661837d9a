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
package syntax

import "github.com/bits-and-blooms/bitset"

// ClassTag enumerates the fixed node classes, mirroring
// original_source's syntax/classes.rs ScriptClass enum.
type ClassTag uint8

const (
	ClassAllScopes ClassTag = iota
	ClassAllIdents
	ClassAllThese
	ClassAllCrates
	ClassAllFields
	ClassIdent
	ClassField
)

// ScriptClass identifies one of the incremental-query classes a node can
// belong to. Ident and Field classes additionally carry the identifier
// text they're keyed by.
type ScriptClass struct {
	Tag  ClassTag
	Name string
}

// AllScopes, AllIdents, AllThese, and AllCrates are the unparameterized
// classes.
var (
	AllScopes = ScriptClass{Tag: ClassAllScopes}
	AllIdents = ScriptClass{Tag: ClassAllIdents}
	AllThese  = ScriptClass{Tag: ClassAllThese}
	AllCrates = ScriptClass{Tag: ClassAllCrates}
	AllFields = ScriptClass{Tag: ClassAllFields}
)

// Ident builds the class of all identifier nodes spelling name.
func Ident(name string) ScriptClass { return ScriptClass{Tag: ClassIdent, Name: name} }

// Field builds the class of all field-access nodes spelling name.
func Field(name string) ScriptClass { return ScriptClass{Tag: ClassField, Name: name} }

// ClassIndex tracks, for every ScriptClass, the set of node ordinals
// belonging to it, as a github.com/bits-and-blooms/bitset.BitSet keyed by
// NodeRef. Changed diffs two ClassIndex snapshots bit-by-bit to report
// which classes an edit touched. Package analysis does not key its caches
// by class: it re-resolves the whole document after any edit.
type ClassIndex struct {
	scopes *bitset.BitSet
	idents *bitset.BitSet
	these  *bitset.BitSet
	crates *bitset.BitSet
	fields *bitset.BitSet

	identByName map[string]*bitset.BitSet
	fieldByName map[string]*bitset.BitSet
}

// BuildClassIndex classifies every node in nodes, grounded on
// original_source's ScriptClassifier::classify.
func BuildClassIndex(nodes []Node) *ClassIndex {
	idx := &ClassIndex{
		scopes:      bitset.New(uint(len(nodes))),
		idents:      bitset.New(uint(len(nodes))),
		these:       bitset.New(uint(len(nodes))),
		crates:      bitset.New(uint(len(nodes))),
		fields:      bitset.New(uint(len(nodes))),
		identByName: make(map[string]*bitset.BitSet),
		fieldByName: make(map[string]*bitset.BitSet),
	}

	for i, n := range nodes {
		ord := uint(i)

		if n.IsScope() {
			idx.scopes.Set(ord)
		}

		switch n.Kind {
		case NodeIdent:
			idx.idents.Set(ord)
			idx.namedSet(idx.identByName, n.Text, len(nodes)).Set(ord)
		case NodeThis:
			idx.these.Set(ord)
		case NodeCrate:
			idx.crates.Set(ord)
		case NodeField:
			idx.fields.Set(ord)
			idx.namedSet(idx.fieldByName, n.Text, len(nodes)).Set(ord)
		}
	}

	return idx
}

func (idx *ClassIndex) namedSet(m map[string]*bitset.BitSet, name string, size int) *bitset.BitSet {
	bs, ok := m[name]
	if !ok {
		bs = bitset.New(uint(size))
		m[name] = bs
	}

	return bs
}

func (idx *ClassIndex) setFor(class ScriptClass) *bitset.BitSet {
	switch class.Tag {
	case ClassAllScopes:
		return idx.scopes
	case ClassAllIdents:
		return idx.idents
	case ClassAllThese:
		return idx.these
	case ClassAllCrates:
		return idx.crates
	case ClassAllFields:
		return idx.fields
	case ClassIdent:
		return idx.identByName[class.Name]
	case ClassField:
		return idx.fieldByName[class.Name]
	default:
		return nil
	}
}

// Members returns every NodeRef belonging to class, in ascending order.
func (idx *ClassIndex) Members(class ScriptClass) []NodeRef {
	bs := idx.setFor(class)
	if bs == nil {
		return nil
	}

	members := make([]NodeRef, 0, bs.Count())

	for i, e := bs.NextSet(0); e; i, e = bs.NextSet(i + 1) {
		members = append(members, NodeRef(i))
	}

	return members
}

// Changed reports the set of ScriptClasses whose membership differs between
// idx and other, restricted to the unparameterized classes plus any
// Ident/Field name present in either index. Document.Edit returns this
// list to its caller; package analysis does not use it to invalidate
// queries per class.
func (idx *ClassIndex) Changed(other *ClassIndex) []ScriptClass {
	var changed []ScriptClass

	pairs := []struct {
		tag ClassTag
		a   *bitset.BitSet
		b   *bitset.BitSet
	}{
		{ClassAllScopes, idx.scopes, other.scopes},
		{ClassAllIdents, idx.idents, other.idents},
		{ClassAllThese, idx.these, other.these},
		{ClassAllCrates, idx.crates, other.crates},
		{ClassAllFields, idx.fields, other.fields},
	}

	for _, pair := range pairs {
		if !pair.a.Equal(pair.b) {
			changed = append(changed, ScriptClass{Tag: pair.tag})
		}
	}

	seen := make(map[string]bool)

	for name := range idx.identByName {
		seen[name] = true
	}

	for name := range other.identByName {
		seen[name] = true
	}

	for name := range seen {
		a := idx.identByName[name]
		b := other.identByName[name]

		if !bitsetsEqual(a, b) {
			changed = append(changed, Ident(name))
		}
	}

	seen = make(map[string]bool)

	for name := range idx.fieldByName {
		seen[name] = true
	}

	for name := range other.fieldByName {
		seen[name] = true
	}

	for name := range seen {
		a := idx.fieldByName[name]
		b := other.fieldByName[name]

		if !bitsetsEqual(a, b) {
			changed = append(changed, Field(name))
		}
	}

	return changed
}

func bitsetsEqual(a, b *bitset.BitSet) bool {
	if a == nil {
		return b == nil || b.Count() == 0
	}

	if b == nil {
		return a.Count() == 0
	}

	return a.Equal(b)
}
