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

package adapters

import (
	"testing"

	"github.com/jackc/pgio"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// arrayHeader renders the stripped array payload prefix: ndim,
// dataoffset, element oid, then the dims and bounds vectors.
func arrayHeader(
	dataOffset int32, elementOid uint32, dims []int32, bounds []int32,
) []byte {

	data := pgio.AppendInt32(nil, int32(len(dims)))
	data = pgio.AppendInt32(data, dataOffset)
	data = pgio.AppendUint32(data, elementOid)
	for _, dim := range dims {
		data = pgio.AppendInt32(data, dim)
	}
	for _, bound := range bounds {
		data = pgio.AppendInt32(data, bound)
	}
	return data
}

// countingInt4 observes how often the element decoder actually runs.
type countingInt4 struct {
	*Int4Adapter
	calls *int
}

func (c countingInt4) DecodeInt32(
	buffer memory.Buffer,
) int32 {

	*c.calls++
	return c.Int4Adapter.DecodeInt32(buffer)
}

func Test_Array_Without_Null_Bitmap(t *testing.T) {
	data := arrayHeader(0, pgtype.Int4OID, []int32{3}, []int32{1})
	for _, value := range []int32{1, 2, 3} {
		data = pgio.AppendInt32(data, value)
	}

	adapter := NewArrayAdapter(NewInt4Adapter(), fakeResolver(int4Type))
	value, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.Nil(t, err)

	flat := value.(pgtypes.FlatArray)
	assert.Equal(t, []int32{3}, flat.Dims)
	assert.Equal(t, []int32{1}, flat.Bounds)
	assert.Equal(t, []any{int32(1), int32(2), int32(3)}, flat.Elements)
}

func Test_Array_Null_Slots_Skip_The_Element_Decoder(t *testing.T) {
	// {1, NULL, 3}: bitmap byte 0b101, data starts at the next
	// 4-byte boundary past the bitmap; dataoffset counts the stripped
	// varlena header too.
	data := arrayHeader(28, pgtype.Int4OID, []int32{3}, []int32{1})
	data = append(data, 0x05)
	data = append(data, 0, 0, 0)
	data = pgio.AppendInt32(data, 1)
	data = pgio.AppendInt32(data, 3)

	calls := 0
	element := countingInt4{Int4Adapter: NewInt4Adapter(), calls: &calls}
	adapter := NewArrayAdapter(element, fakeResolver(int4Type))

	value, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.Nil(t, err)

	flat := value.(pgtypes.FlatArray)
	assert.Equal(t, []any{int32(1), nil, int32(3)}, flat.Elements)
	assert.Equal(t, 2, calls)
}

func Test_Array_Zero_Dimensions_Is_Empty(t *testing.T) {
	data := arrayHeader(0, pgtype.Int4OID, nil, nil)

	calls := 0
	element := countingInt4{Int4Adapter: NewInt4Adapter(), calls: &calls}
	adapter := NewArrayAdapter(element, fakeResolver(int4Type))

	value, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.Nil(t, err)

	flat := value.(pgtypes.FlatArray)
	assert.Empty(t, flat.Elements)
	assert.Empty(t, flat.Dims)
	assert.Equal(t, 0, calls)
}

func Test_Array_Nested_Shape(t *testing.T) {
	data := arrayHeader(0, pgtype.Int4OID, []int32{2, 2}, []int32{1, 1})
	for _, value := range []int32{1, 2, 3, 4} {
		data = pgio.AppendInt32(data, value)
	}

	adapter := NewArrayAdapter(
		NewInt4Adapter(), fakeResolver(int4Type),
		WithShape(pgtypes.NestedShape{}),
	)
	value, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.Nil(t, err)
	assert.Equal(t, []any{
		[]any{int32(1), int32(2)},
		[]any{int32(3), int32(4)},
	}, value)
}

func Test_Array_Fixed_Dimensionality_Rejects_Mismatch(t *testing.T) {
	data := arrayHeader(0, pgtype.Int4OID, []int32{2, 2}, []int32{1, 1})
	for _, value := range []int32{1, 2, 3, 4} {
		data = pgio.AppendInt32(data, value)
	}

	adapter := NewArrayAdapter(
		NewInt4Adapter(), fakeResolver(int4Type), WithFixedDimensions(1),
	)
	_, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.NotNil(t, err)
	decodeErr, ok := pgtypes.AsDecodeError(err)
	assert.True(t, ok)
	assert.Contains(t, decodeErr.Expected, "exactly 1 dimensions")
}

func Test_Array_Excessive_Dimensions_Fail(t *testing.T) {
	data := arrayHeader(0, pgtype.Int4OID,
		[]int32{1, 1, 1, 1, 1, 1, 1}, []int32{1, 1, 1, 1, 1, 1, 1})

	adapter := NewArrayAdapter(NewInt4Adapter(), fakeResolver(int4Type))
	_, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.NotNil(t, err)
	_, ok := pgtypes.AsDecodeError(err)
	assert.True(t, ok)
}

func Test_Array_Payload_Element_Oid_Must_Match_Adapter(t *testing.T) {
	// The payload claims text elements, the adapter decodes int4.
	data := arrayHeader(0, pgtype.TextOID, []int32{1}, []int32{1})
	data = pgio.AppendInt32(data, 1)

	adapter := NewArrayAdapter(
		NewInt4Adapter(), fakeResolver(int4Type, textType),
	)
	_, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.NotNil(t, err)
	_, ok := pgtypes.AsDecodeError(err)
	assert.True(t, ok)
}

func Test_Array_Unknown_Payload_Element_Oid_Fails(t *testing.T) {
	data := arrayHeader(0, 99999, []int32{1}, []int32{1})
	data = pgio.AppendInt32(data, 1)

	adapter := NewArrayAdapter(NewInt4Adapter(), fakeResolver(int4Type))
	_, err := adapter.Decode(buffer(data), int4ArrayType)
	assert.NotNil(t, err)
}

func Test_Array_Of_Short_Varlena_Elements(t *testing.T) {
	// {"ab", "c"}: short varlena headers sit unaligned after the
	// first element.
	data := arrayHeader(0, pgtype.TextOID, []int32{2}, []int32{1})
	data = append(data, 0x80|3, 'a', 'b')
	data = append(data, 0x80|2, 'c')

	adapter := NewArrayAdapter(NewTextAdapter(), fakeResolver(textType))
	value, err := adapter.Decode(buffer(data), textArrayType)
	assert.Nil(t, err)

	flat := value.(pgtypes.FlatArray)
	assert.Equal(t, []any{"ab", "c"}, flat.Elements)
}

func Test_Array_Of_Long_Varlena_Elements(t *testing.T) {
	// Long headers start at the element alignment boundary.
	data := arrayHeader(0, pgtype.TextOID, []int32{2}, []int32{1})
	data = memory.AppendVarlenaHeader(data, 5)
	data = append(data, "hello"...)
	// 20 + 9 = 29, next long header aligns to 32.
	data = append(data, 0, 0, 0)
	data = memory.AppendVarlenaHeader(data, 5)
	data = append(data, "world"...)

	adapter := NewArrayAdapter(NewTextAdapter(), fakeResolver(textType))
	value, err := adapter.Decode(buffer(data), textArrayType)
	assert.Nil(t, err)

	flat := value.(pgtypes.FlatArray)
	assert.Equal(t, []any{"hello", "world"}, flat.Elements)
}
