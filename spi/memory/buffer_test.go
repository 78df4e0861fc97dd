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

package memory

import (
	"testing"

	"github.com/jackc/pgio"
	"github.com/stretchr/testify/assert"
)

func Test_Buffer_Big_Endian_Reads(t *testing.T) {
	data := pgio.AppendUint16(nil, 0xBEEF)
	data = pgio.AppendInt32(data, -17)
	data = pgio.AppendUint64(data, 0x0102030405060708)

	buffer := NewBuffer(nil, data)
	assert.Equal(t, uint16(0xBEEF), buffer.Uint16(0))
	assert.Equal(t, int32(-17), buffer.Int32(2))
	assert.Equal(t, uint64(0x0102030405060708), buffer.Uint64(6))
	assert.Equal(t, 14, buffer.Length())
}

func Test_Buffer_Out_Of_Bounds_Read_Panics(t *testing.T) {
	buffer := NewBuffer(nil, []byte{1, 2, 3})
	assert.Panics(t, func() {
		buffer.Uint32(0)
	})
	assert.Panics(t, func() {
		buffer.Byte(3)
	})
}

func Test_Buffer_Slice_Is_Relative(t *testing.T) {
	buffer := NewBuffer(nil, []byte{0, 0, 0, 7, 0, 0, 0, 9})
	nested := buffer.Slice(4, 4)
	assert.Equal(t, int32(9), nested.Int32(0))
	assert.Equal(t, 4, nested.Length())

	tail := buffer.Tail(4)
	assert.Equal(t, int32(9), tail.Int32(0))
}

func Test_Buffer_Access_After_Unpin_Panics(t *testing.T) {
	released := false
	pin := NewPin(func() {
		released = true
	})
	buffer := NewBuffer(pin, []byte{0, 0, 0, 7})
	assert.Equal(t, int32(7), buffer.Int32(0))

	pin.Unpin()
	assert.True(t, released)
	assert.Panics(t, func() {
		buffer.Int32(0)
	})

	// Idempotent release.
	pin.Unpin()
	assert.False(t, pin.Held())
}

func Test_Buffer_Bytes_Survive_Unpin(t *testing.T) {
	pin := NewPin(nil)
	buffer := NewBuffer(pin, []byte{1, 2, 3, 4})
	copied := buffer.Bytes(1, 2)
	pin.Unpin()
	assert.Equal(t, []byte{2, 3}, copied)
}

func Test_Align(t *testing.T) {
	assert.Equal(t, 0, Align(0, 4))
	assert.Equal(t, 4, Align(1, 4))
	assert.Equal(t, 4, Align(4, 4))
	assert.Equal(t, 8, Align(5, 8))
	assert.Equal(t, 13, Align(13, 1))
}

func Test_Varlena_Long_Header(t *testing.T) {
	payload := []byte("hello")
	data := AppendVarlenaHeader(nil, len(payload))
	data = append(data, payload...)

	buffer := NewBuffer(nil, data)

	total, err := VarlenaTotalSize(buffer, 0)
	assert.Nil(t, err)
	assert.Equal(t, len(payload)+VarlenaHeaderSize, total)

	view, consumed, err := VarlenaPayload(buffer, 0)
	assert.Nil(t, err)
	assert.Equal(t, total, consumed)
	assert.Equal(t, payload, view.Bytes(0, view.Length()))
}

func Test_Varlena_Short_Header(t *testing.T) {
	// Total length (header included) in the low 7 bits, high bit set.
	data := []byte{0x80 | 3, 'h', 'i'}
	buffer := NewBuffer(nil, data)

	view, consumed, err := VarlenaPayload(buffer, 0)
	assert.Nil(t, err)
	assert.Equal(t, 3, consumed)
	assert.Equal(t, []byte("hi"), view.Bytes(0, view.Length()))
}

func Test_Varlena_Toast_Marker_Fails(t *testing.T) {
	buffer := NewBuffer(nil, []byte{0x80, 0, 0, 0})
	_, err := VarlenaTotalSize(buffer, 0)
	assert.ErrorIs(t, err, ErrVarlenaToasted)
}

func Test_Varlena_Compressed_Fails(t *testing.T) {
	buffer := NewBuffer(nil, []byte{0x40, 0, 0, 9})
	_, _, err := VarlenaPayload(buffer, 0)
	assert.ErrorIs(t, err, ErrVarlenaCompressed)
}
