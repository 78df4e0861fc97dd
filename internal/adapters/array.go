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
	"fmt"
	"math"

	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// Stored array layout, after the generic varlena header has been
// stripped by the caller:
//
//	int32   ndim
//	int32   dataoffset (zero when no null bitmap is present)
//	uint32  element oid
//	int32   dims[ndim]
//	int32   lbounds[ndim]
//	[null bitmap, ceil(n/8) bytes, iff dataoffset != 0]
//	element data, aligned per the element type's alignment class
//
// A nonzero dataoffset counts from the start of the varlena value
// including its stripped 4-byte header, hence the adjustment below.
// The null bitmap is LSB-first with a set bit meaning the element is
// present.
const (
	arrayHeaderSize = 12
	maxArrayDims    = 6
)

// ArrayAdapter decodes arrays of one element type into the aggregate
// its shape contract produces.
type ArrayAdapter struct {
	accessor pgtypes.Accessor
	element  pgtypes.Adapter
	resolve  pgtypes.TypeResolver
	shape    pgtypes.ArrayShape

	// fixedDims > 0 restricts the adapter to payloads of exactly that
	// dimensionality.
	fixedDims int
}

type ArrayOption func(adapter *ArrayAdapter)

// WithFixedDimensions makes the adapter reject payloads whose encoded
// dimension count differs from n.
func WithFixedDimensions(n int) ArrayOption {
	return func(adapter *ArrayAdapter) {
		adapter.fixedDims = n
	}
}

// WithShape replaces the default flat shape contract.
func WithShape(shape pgtypes.ArrayShape) ArrayOption {
	return func(adapter *ArrayAdapter) {
		adapter.shape = shape
	}
}

func NewArrayAdapter(
	element pgtypes.Adapter, resolve pgtypes.TypeResolver, options ...ArrayOption,
) *ArrayAdapter {

	adapter := &ArrayAdapter{
		accessor: pgtypes.Configure(pgtypes.AccessReference),
		element:  element,
		resolve:  resolve,
		shape:    pgtypes.FlatShape{},
	}
	for _, option := range options {
		option(adapter)
	}
	return adapter
}

func (a *ArrayAdapter) Accessor() pgtypes.Accessor {
	return a.accessor
}

func (a *ArrayAdapter) CanFetch(
	td pgtypes.TypeDescriptor,
) bool {

	if !td.IsArray() {
		return false
	}
	elementType, err := td.ElementType()
	if err != nil {
		return false
	}
	return a.element.CanFetch(elementType)
}

func (a *ArrayAdapter) Decode(
	buffer memory.Buffer, td pgtypes.TypeDescriptor,
) (any, error) {

	ndim := int(buffer.Int32(0))
	dataOffset := int(buffer.Int32(4))
	elementOid := buffer.Uint32(8)

	if ndim < 0 || ndim > maxArrayDims {
		return nil, pgtypes.NewDecodeError(
			"array", fmt.Sprintf("at most %d dimensions", maxArrayDims),
			fmt.Sprintf("%d dimensions", ndim),
		)
	}
	if a.fixedDims > 0 && ndim != a.fixedDims {
		return nil, pgtypes.NewDecodeError(
			"array", fmt.Sprintf("exactly %d dimensions", a.fixedDims),
			fmt.Sprintf("%d dimensions", ndim),
		)
	}

	// The payload names its element type; it has to be one the
	// configured element adapter accepts. Anything else is corrupt or
	// mislabelled data, not a reason to coerce.
	elementType, err := a.resolve(elementOid)
	if err != nil {
		return nil, err
	}
	if !a.element.CanFetch(elementType) {
		return nil, pgtypes.NewDecodeError(
			"array", "an element type accepted by the configured element adapter",
			fmt.Sprintf("%s (oid %d)", elementType.Name(), elementOid),
		)
	}

	dims := make([]int32, ndim)
	bounds := make([]int32, ndim)
	for i := 0; i < ndim; i++ {
		dims[i] = buffer.Int32(arrayHeaderSize + i*4)
		bounds[i] = buffer.Int32(arrayHeaderSize + ndim*4 + i*4)
	}

	nItems, err := itemCount(dims)
	if err != nil {
		return nil, err
	}

	elementLength, err := elementType.Length()
	if err != nil {
		return nil, err
	}
	elementAlignment, err := elementType.Alignment()
	if err != nil {
		return nil, err
	}
	align := elementAlignment.Size()

	var bitmap memory.Buffer
	hasBitmap := dataOffset != 0

	dimsEnd := arrayHeaderSize + ndim*8
	var dataStart int
	if hasBitmap {
		bitmapLength := (nItems + 7) / 8
		bitmap = buffer.Slice(dimsEnd, bitmapLength)
		// dataoffset counts the stripped varlena header too.
		dataStart = dataOffset - memory.VarlenaHeaderSize
	} else {
		dataStart = memory.Align(dimsEnd, align)
	}

	writer, err := a.shape.Begin(dims, bounds)
	if err != nil {
		return nil, err
	}

	cursor := dataStart
	for i := 0; i < nItems; i++ {
		if hasBitmap && !bitmapBit(bitmap, i) {
			// The element adapter is never consulted for a null slot.
			if err := writer.Set(i, nil); err != nil {
				return nil, err
			}
			continue
		}

		elementView, next, err := a.elementAt(buffer, cursor, elementLength, align)
		if err != nil {
			return nil, err
		}

		value, err := pgtypes.DecodeWith(a.element, elementType, elementView)
		if err != nil {
			return nil, err
		}
		if err := writer.Set(i, value); err != nil {
			return nil, err
		}
		cursor = next
	}

	return writer.Finish()
}

// elementAt slices the element view beginning at or after cursor and
// reports the cursor position past it.
func (a *ArrayAdapter) elementAt(
	buffer memory.Buffer, cursor int, elementLength int16, align int,
) (memory.Buffer, int, error) {

	if elementLength >= 0 {
		start := memory.Align(cursor, align)
		return buffer.Slice(start, int(elementLength)), start + int(elementLength), nil
	}
	if elementLength != pgtypes.VariableLength {
		return memory.Buffer{}, 0, pgtypes.NewDecodeError(
			"array", "fixed-width or varlena elements",
			fmt.Sprintf("element length %d", elementLength),
		)
	}

	// Short varlena headers sit unaligned; long ones start at the
	// element alignment boundary.
	start := cursor
	if buffer.Byte(start)&0x80 == 0 {
		start = memory.Align(cursor, align)
	}
	payload, total, err := memory.VarlenaPayload(buffer, start)
	if err != nil {
		return memory.Buffer{}, 0, err
	}
	return payload, start + total, nil
}

func itemCount(
	dims []int32,
) (int, error) {

	// A zero-dimensional payload is the empty array.
	if len(dims) == 0 {
		return 0, nil
	}

	count := int64(1)
	for _, dim := range dims {
		if dim < 0 {
			return 0, pgtypes.NewDecodeError(
				"array", "non-negative dimension lengths", fmt.Sprintf("%d", dim),
			)
		}
		count *= int64(dim)
		if count > math.MaxInt32 {
			return 0, pgtypes.NewDecodeError(
				"array", "an item count within int32 range", "dimension product overflow",
			)
		}
	}
	return int(count), nil
}

// bitmapBit reports whether slot i carries a value: LSB-first, set
// means present.
func bitmapBit(
	bitmap memory.Buffer, i int,
) bool {

	return bitmap.Byte(i/8)&(1<<(i%8)) != 0
}
