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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// baseAdapter carries the accessor tag and the oid acceptance set
// shared by all fixed-width adapters.
type baseAdapter struct {
	accessor pgtypes.Accessor
	accepts  []uint32
}

func newBaseAdapter(
	kind pgtypes.AccessKind, accepts ...uint32,
) baseAdapter {

	return baseAdapter{
		accessor: pgtypes.Configure(kind),
		accepts:  accepts,
	}
}

func (a baseAdapter) Accessor() pgtypes.Accessor {
	return a.accessor
}

func (a baseAdapter) CanFetch(
	td pgtypes.TypeDescriptor,
) bool {

	return lo.Contains(a.accepts, td.Oid())
}

// Int2Adapter decodes smallint.
type Int2Adapter struct {
	baseAdapter
}

func NewInt2Adapter() *Int2Adapter {
	return &Int2Adapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessInt16, pgtype.Int2OID),
	}
}

func (a *Int2Adapter) DecodeInt16(
	buffer memory.Buffer,
) int16 {

	return buffer.Int16(0)
}

// Int4Adapter decodes integer.
type Int4Adapter struct {
	baseAdapter
}

func NewInt4Adapter() *Int4Adapter {
	return &Int4Adapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessInt32, pgtype.Int4OID),
	}
}

func (a *Int4Adapter) DecodeInt32(
	buffer memory.Buffer,
) int32 {

	return buffer.Int32(0)
}

// Int8Adapter decodes bigint.
type Int8Adapter struct {
	baseAdapter
}

func NewInt8Adapter() *Int8Adapter {
	return &Int8Adapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessInt64, pgtype.Int8OID),
	}
}

func (a *Int8Adapter) DecodeInt64(
	buffer memory.Buffer,
) int64 {

	return buffer.Int64(0)
}

// Float4Adapter decodes real.
type Float4Adapter struct {
	baseAdapter
}

func NewFloat4Adapter() *Float4Adapter {
	return &Float4Adapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessFloat32, pgtype.Float4OID),
	}
}

func (a *Float4Adapter) DecodeFloat32(
	buffer memory.Buffer,
) float32 {

	return buffer.Float32(0)
}

// Float8Adapter decodes double precision.
type Float8Adapter struct {
	baseAdapter
}

func NewFloat8Adapter() *Float8Adapter {
	return &Float8Adapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessFloat64, pgtype.Float8OID),
	}
}

func (a *Float8Adapter) DecodeFloat64(
	buffer memory.Buffer,
) float64 {

	return buffer.Float64(0)
}

// BoolAdapter decodes boolean.
type BoolAdapter struct {
	baseAdapter
}

func NewBoolAdapter() *BoolAdapter {
	return &BoolAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessBoolean, pgtype.BoolOID),
	}
}

func (a *BoolAdapter) DecodeBoolean(
	buffer memory.Buffer,
) bool {

	return buffer.Byte(0) != 0
}

// CharAdapter decodes the single-byte "char" type.
type CharAdapter struct {
	baseAdapter
}

func NewCharAdapter() *CharAdapter {
	return &CharAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessChar, pgtypes.CharOID),
	}
}

func (a *CharAdapter) DecodeChar(
	buffer memory.Buffer,
) byte {

	return buffer.Byte(0)
}
