/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pgtypes

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
)

// AdapterRegistry holds decoding strategies in caller-defined priority
// order: lookups try candidates front to back and the first accepting
// adapter wins, so more specific adapters register before generic
// fallbacks.
type AdapterRegistry struct {
	candidates []Adapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		candidates: make([]Adapter, 0, 32),
	}
}

// Register appends an adapter behind all previously registered ones.
func (r *AdapterRegistry) Register(
	adapter Adapter,
) {

	r.candidates = append(r.candidates, adapter)
}

// Lookup returns the first adapter accepting the descriptor.
func (r *AdapterRegistry) Lookup(
	td TypeDescriptor,
) (Adapter, bool) {

	for _, candidate := range r.candidates {
		if candidate.CanFetch(td) {
			return candidate, true
		}
	}
	return nil, false
}

// NumAdapters reports the number of registered candidates.
func (r *AdapterRegistry) NumAdapters() int {
	return len(r.candidates)
}

// Decode resolves an adapter for the descriptor and runs its decode
// routine against the buffer, boxing fixed-width results. Exhausting
// all candidates is an error; an adapter whose accessor tag disagrees
// with its decode interface is a bug and panics.
func (r *AdapterRegistry) Decode(
	td TypeDescriptor, buffer memory.Buffer,
) (any, error) {

	// The message sticks to the oid: resolving the name needs the
	// catalog tuple, which is exactly what an unknown oid lacks.
	adapter, found := r.Lookup(td)
	if !found {
		return nil, errors.Errorf("no adapter registered for type oid %d", td.Oid())
	}
	return DecodeWith(adapter, td, buffer)
}

// DecodeWith dispatches to the adapter's hard-coded decode routine.
// The caller must already have checked CanFetch.
func DecodeWith(
	adapter Adapter, td TypeDescriptor, buffer memory.Buffer,
) (any, error) {

	switch adapter.Accessor().Kind() {
	case AccessReference:
		return adapter.(ReferenceAdapter).Decode(buffer, td)
	case AccessInt8:
		return adapter.(Int8Adapter).DecodeInt8(buffer), nil
	case AccessInt16:
		return adapter.(Int16Adapter).DecodeInt16(buffer), nil
	case AccessInt32:
		return adapter.(Int32Adapter).DecodeInt32(buffer), nil
	case AccessInt64:
		return adapter.(Int64Adapter).DecodeInt64(buffer), nil
	case AccessUint32:
		return adapter.(Uint32Adapter).DecodeUint32(buffer), nil
	case AccessUint64:
		return adapter.(Uint64Adapter).DecodeUint64(buffer), nil
	case AccessFloat32:
		return adapter.(Float32Adapter).DecodeFloat32(buffer), nil
	case AccessFloat64:
		return adapter.(Float64Adapter).DecodeFloat64(buffer), nil
	case AccessBoolean:
		return adapter.(BooleanAdapter).DecodeBoolean(buffer), nil
	case AccessChar:
		return adapter.(CharAdapter).DecodeChar(buffer), nil
	}
	panic(fmt.Sprintf("pgtypes: adapter %T carries an unknown accessor kind", adapter))
}
