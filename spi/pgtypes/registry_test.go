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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/varlenahq/pg-datum-marshal/spi/memory"
)

type stubDescriptor struct {
	oid  uint32
	name string
}

func (d stubDescriptor) Oid() uint32                        { return d.oid }
func (d stubDescriptor) Name() string                       { return d.name }
func (d stubDescriptor) Namespace() string                  { return "pg_catalog" }
func (d stubDescriptor) Kind() TypeKind                     { return BaseKind }
func (d stubDescriptor) Length() (int16, error)             { return 4, nil }
func (d stubDescriptor) ByValue() (bool, error)             { return true, nil }
func (d stubDescriptor) Alignment() (Alignment, error)      { return AlignInt, nil }
func (d stubDescriptor) IsArray() bool                      { return false }
func (d stubDescriptor) OidElement() uint32                 { return 0 }
func (d stubDescriptor) ElementType() (TypeDescriptor, error) {
	return nil, nil
}
func (d stubDescriptor) Modifier() Typmod                  { return NoTypmod() }
func (d stubDescriptor) RowLayout() (*RowLayout, error)    { return nil, nil }

type stubInt32Adapter struct {
	accepts uint32
	label   string
}

func (a stubInt32Adapter) Accessor() Accessor {
	return Configure(AccessInt32)
}

func (a stubInt32Adapter) CanFetch(td TypeDescriptor) bool {
	return td.Oid() == a.accepts
}

func (a stubInt32Adapter) DecodeInt32(buffer memory.Buffer) int32 {
	return buffer.Int32(0)
}

func Test_Registry_First_Accepting_Adapter_Wins(t *testing.T) {
	registry := NewAdapterRegistry()
	first := stubInt32Adapter{accepts: 23, label: "first"}
	second := stubInt32Adapter{accepts: 23, label: "second"}
	registry.Register(first)
	registry.Register(second)
	assert.Equal(t, 2, registry.NumAdapters())

	found, ok := registry.Lookup(stubDescriptor{oid: 23, name: "int4"})
	assert.True(t, ok)
	assert.Equal(t, first, found)
}

func Test_Registry_Exhaustion_Is_An_Error(t *testing.T) {
	registry := NewAdapterRegistry()
	registry.Register(stubInt32Adapter{accepts: 23})

	_, ok := registry.Lookup(stubDescriptor{oid: 16, name: "bool"})
	assert.False(t, ok)

	_, err := registry.Decode(
		stubDescriptor{oid: 16, name: "bool"}, memory.NewBuffer(nil, []byte{1}),
	)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "no adapter registered")
}

func Test_Registry_Decode_Boxes_Fixed_Width_Values(t *testing.T) {
	registry := NewAdapterRegistry()
	registry.Register(stubInt32Adapter{accepts: 23})

	value, err := registry.Decode(
		stubDescriptor{oid: 23, name: "int4"},
		memory.NewBuffer(nil, []byte{0, 0, 0, 42}),
	)
	assert.Nil(t, err)
	assert.Equal(t, int32(42), value)
}

func Test_Accessor_Configure_Widths(t *testing.T) {
	assert.Equal(t, -1, Configure(AccessReference).Width())
	assert.True(t, Configure(AccessReference).ByReference())
	assert.Equal(t, 1, Configure(AccessBoolean).Width())
	assert.Equal(t, 2, Configure(AccessInt16).Width())
	assert.Equal(t, 4, Configure(AccessUint32).Width())
	assert.Equal(t, 8, Configure(AccessFloat64).Width())
	assert.False(t, Configure(AccessInt64).ByReference())
}

func Test_Typmod_Sentinel(t *testing.T) {
	assert.False(t, NoTypmod().Valid())
	assert.True(t, TypmodOf(-1).Valid())
	assert.Equal(t, int32(-1), TypmodOf(-1).Value())
	assert.NotEqual(t, NoTypmod(), TypmodOf(0))
	assert.Panics(t, func() {
		NoTypmod().Value()
	})
}
