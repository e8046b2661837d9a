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
package interop

import (
	"errors"
	"testing"

	"github.com/ad-astra-go/adastra/pkg/registry"
	"github.com/ad-astra-go/adastra/pkg/runtime"
)

func TestScalarRoundTrip(t *testing.T) {
	id := MustTypeId[string]()
	up, down := Scalar[string](id)

	origin := runtime.SyntheticOrigin("test")

	cell, err := up.Upcast(origin, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := down.Downcast(origin, runtime.Owned(cell))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
}

func TestOptionAbsenceDowncastsToNilWithoutTypeMismatch(t *testing.T) {
	id := MustTypeId[string]()
	_, downString := Scalar[string](id)
	downOption := DowncastOption[string](downString)

	origin := runtime.SyntheticOrigin("find")

	got, err := downOption(origin, runtime.Owned(runtime.Nil()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != nil {
		t.Fatalf("got %v, want nil (absent)", got)
	}
}

func TestOptionPresentDelegates(t *testing.T) {
	id := MustTypeId[string]()
	upString, downString := Scalar[string](id)
	upOption := UpcastOption[string](upString)
	downOption := DowncastOption[string](downString)

	origin := runtime.SyntheticOrigin("find")
	value := "astra"

	cell, err := upOption(origin, &value)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := downOption(origin, runtime.Owned(cell))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got == nil || *got != value {
		t.Fatalf("got %v, want %q", got, value)
	}
}

func TestUpcastResultHostError(t *testing.T) {
	id := MustTypeId[int]()
	upInt, _ := Scalar[int](id)
	upResult := UpcastResult[int](upInt)

	origin := runtime.SyntheticOrigin("host fn")

	_, err := upResult(origin, 0, errors.New("boom"))

	var rerr *runtime.RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != runtime.ErrUpcastHostError {
		t.Fatalf("got %v, want ErrUpcastHostError", err)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	elemId := MustTypeId[int]()
	upInt, downInt := Scalar[int](elemId)

	sliceId := registry.NewTypeId([]runtime.Cell{})
	upSlice := UpcastSlice[int](sliceId, upInt)
	downSlice := DowncastSlice[int](downInt)

	origin := runtime.SyntheticOrigin("test")
	want := []int{1, 2, 3}

	cell, err := upSlice.Upcast(origin, want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := downSlice.Downcast(origin, runtime.Owned(cell))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
