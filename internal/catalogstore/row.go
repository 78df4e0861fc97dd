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

package catalogstore

import (
	"github.com/go-errors/errors"

	"github.com/varlenahq/pg-datum-marshal/spi/memory"
)

// catalogRow serves one snapshot row. Datum buffers share the row's
// pin; any access through them after Close panics instead of reading
// memory the caller no longer owns.
type catalogRow struct {
	block *classBlock
	pin   *memory.Pin

	// datums[i] indexes the i-th column inside the raw block,
	// length -1 marking null.
	datums []datumRef
}

type datumRef struct {
	offset int
	length int
}

func (cb *classBlock) row(
	ref rowRef,
) *catalogRow {

	reader := blockReader{data: cb.raw, pos: ref.offset}
	datums := make([]datumRef, len(cb.columns))
	for i := range datums {
		flag := reader.data[reader.pos]
		reader.pos++
		if flag == datumNull {
			datums[i] = datumRef{length: -1}
			continue
		}
		length, _ := reader.uint32()
		datums[i] = datumRef{
			offset: reader.pos,
			length: int(length),
		}
		reader.pos += int(length)
	}

	return &catalogRow{
		block:  cb,
		pin:    memory.NewPin(nil),
		datums: datums,
	}
}

func (r *catalogRow) datum(
	column string,
) (datumRef, error) {

	index, present := r.block.byName[column]
	if !present {
		return datumRef{}, errors.Errorf(
			"catalog %d has no column %s", r.block.entry.classOid, column,
		)
	}
	return r.datums[index], nil
}

func (r *catalogRow) Datum(
	column string,
) (memory.Buffer, bool, error) {

	ref, err := r.datum(column)
	if err != nil {
		return memory.Buffer{}, false, err
	}
	if ref.length < 0 {
		return memory.Buffer{}, true, nil
	}
	view := memory.NewBuffer(
		r.pin, r.block.raw[ref.offset:ref.offset+ref.length],
	)
	return view, false, nil
}

func (r *catalogRow) value(
	column string, width int,
) (memory.Buffer, error) {

	view, null, err := r.Datum(column)
	if err != nil {
		return memory.Buffer{}, err
	}
	if null {
		return memory.Buffer{}, errors.Errorf(
			"catalog column %s is unexpectedly null", column,
		)
	}
	if width > 0 && view.Length() < width {
		return memory.Buffer{}, errors.Errorf(
			"catalog column %s holds %d bytes, need %d",
			column, view.Length(), width,
		)
	}
	return view, nil
}

func (r *catalogRow) Oid(
	column string,
) (uint32, error) {

	view, err := r.value(column, 4)
	if err != nil {
		return 0, err
	}
	return view.Uint32(0), nil
}

func (r *catalogRow) Int16(
	column string,
) (int16, error) {

	view, err := r.value(column, 2)
	if err != nil {
		return 0, err
	}
	return view.Int16(0), nil
}

func (r *catalogRow) Int32(
	column string,
) (int32, error) {

	view, err := r.value(column, 4)
	if err != nil {
		return 0, err
	}
	return view.Int32(0), nil
}

func (r *catalogRow) Bool(
	column string,
) (bool, error) {

	view, err := r.value(column, 1)
	if err != nil {
		return false, err
	}
	return view.Byte(0) != 0, nil
}

func (r *catalogRow) Char(
	column string,
) (byte, error) {

	view, err := r.value(column, 1)
	if err != nil {
		return 0, err
	}
	return view.Byte(0), nil
}

func (r *catalogRow) Name(
	column string,
) (string, error) {

	view, err := r.value(column, 0)
	if err != nil {
		return "", err
	}
	return string(view.Bytes(0, view.Length())), nil
}

func (r *catalogRow) Close() {
	r.pin.Unpin()
}
