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
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer is a bounds-checked, absolute-offset view over a pinned block
// of memory. All multi-byte reads use the buffer's byte order (big
// endian unless chosen otherwise). Reading past the declared capacity
// is a programming error and panics; it never truncates.
type Buffer struct {
	pin   *Pin
	data  []byte
	order binary.ByteOrder
}

// NewBuffer builds a big endian view over data, guarded by pin. A nil
// pin produces an unguarded view over process-owned memory.
func NewBuffer(
	pin *Pin, data []byte,
) Buffer {

	return Buffer{
		pin:   pin,
		data:  data,
		order: binary.BigEndian,
	}
}

func NewBufferWithOrder(
	pin *Pin, data []byte, order binary.ByteOrder,
) Buffer {

	return Buffer{
		pin:   pin,
		data:  data,
		order: order,
	}
}

func (b Buffer) Length() int {
	return len(b.data)
}

func (b Buffer) Order() binary.ByteOrder {
	return b.order
}

func (b Buffer) boundsCheck(
	offset, width int,
) {

	b.pin.ensureHeld()
	if offset < 0 || width < 0 || offset+width > len(b.data) {
		panic(fmt.Sprintf(
			"memory: read of %d bytes at offset %d exceeds buffer capacity %d",
			width, offset, len(b.data),
		))
	}
}

func (b Buffer) Byte(
	offset int,
) byte {

	b.boundsCheck(offset, 1)
	return b.data[offset]
}

func (b Buffer) Int8(
	offset int,
) int8 {

	return int8(b.Byte(offset))
}

func (b Buffer) Uint16(
	offset int,
) uint16 {

	b.boundsCheck(offset, 2)
	return b.order.Uint16(b.data[offset:])
}

func (b Buffer) Int16(
	offset int,
) int16 {

	return int16(b.Uint16(offset))
}

func (b Buffer) Uint32(
	offset int,
) uint32 {

	b.boundsCheck(offset, 4)
	return b.order.Uint32(b.data[offset:])
}

func (b Buffer) Int32(
	offset int,
) int32 {

	return int32(b.Uint32(offset))
}

func (b Buffer) Uint64(
	offset int,
) uint64 {

	b.boundsCheck(offset, 8)
	return b.order.Uint64(b.data[offset:])
}

func (b Buffer) Int64(
	offset int,
) int64 {

	return int64(b.Uint64(offset))
}

func (b Buffer) Float32(
	offset int,
) float32 {

	return math.Float32frombits(b.Uint32(offset))
}

func (b Buffer) Float64(
	offset int,
) float64 {

	return math.Float64frombits(b.Uint64(offset))
}

// Slice returns a nested view sharing the same pin. Offsets inside the
// nested view are relative to its own start.
func (b Buffer) Slice(
	offset, length int,
) Buffer {

	b.boundsCheck(offset, length)
	return Buffer{
		pin:   b.pin,
		data:  b.data[offset : offset+length],
		order: b.order,
	}
}

// Tail returns the nested view from offset to the end of the buffer.
func (b Buffer) Tail(
	offset int,
) Buffer {

	return b.Slice(offset, len(b.data)-offset)
}

// Bytes copies the requested range out of the pinned region, so the
// result stays valid after the pin is released.
func (b Buffer) Bytes(
	offset, length int,
) []byte {

	b.boundsCheck(offset, length)
	copied := make([]byte, length)
	copy(copied, b.data[offset:offset+length])
	return copied
}

// Align rounds offset up to the next multiple of alignment.
func Align(
	offset, alignment int,
) int {

	if alignment <= 1 {
		return offset
	}
	return (offset + alignment - 1) &^ (alignment - 1)
}
