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
	"math"
	"testing"

	"github.com/go-errors/errors"
	"github.com/jackc/pgio"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// fakeType is the static descriptor used across the adapter tests.
type fakeType struct {
	oid     uint32
	name    string
	length  int16
	align   pgtypes.Alignment
	element *fakeType
}

func (d *fakeType) Oid() uint32                   { return d.oid }
func (d *fakeType) Name() string                  { return d.name }
func (d *fakeType) Namespace() string             { return "pg_catalog" }
func (d *fakeType) Kind() pgtypes.TypeKind        { return pgtypes.BaseKind }
func (d *fakeType) Length() (int16, error)        { return d.length, nil }
func (d *fakeType) ByValue() (bool, error)        { return d.length > 0 && d.length <= 8, nil }
func (d *fakeType) IsArray() bool                 { return d.element != nil }
func (d *fakeType) Modifier() pgtypes.Typmod      { return pgtypes.NoTypmod() }

func (d *fakeType) Alignment() (pgtypes.Alignment, error) {
	if d.align == 0 {
		return pgtypes.AlignInt, nil
	}
	return d.align, nil
}

func (d *fakeType) OidElement() uint32 {
	if d.element == nil {
		return 0
	}
	return d.element.oid
}

func (d *fakeType) ElementType() (pgtypes.TypeDescriptor, error) {
	if d.element == nil {
		return nil, errors.New("no element type")
	}
	return d.element, nil
}

func (d *fakeType) RowLayout() (*pgtypes.RowLayout, error) {
	return nil, errors.New("not a row type")
}

var (
	int2Type   = &fakeType{oid: pgtype.Int2OID, name: "int2", length: 2, align: pgtypes.AlignShort}
	int4Type   = &fakeType{oid: pgtype.Int4OID, name: "int4", length: 4}
	int8Type   = &fakeType{oid: pgtype.Int8OID, name: "int8", length: 8, align: pgtypes.AlignDouble}
	float8Type = &fakeType{oid: pgtype.Float8OID, name: "float8", length: 8, align: pgtypes.AlignDouble}
	boolType   = &fakeType{oid: pgtype.BoolOID, name: "bool", length: 1, align: pgtypes.AlignChar}
	textType   = &fakeType{oid: pgtype.TextOID, name: "text", length: pgtypes.VariableLength}
	uuidType   = &fakeType{oid: pgtype.UUIDOID, name: "uuid", length: 16, align: pgtypes.AlignChar}
	tidType    = &fakeType{oid: pgtype.TIDOID, name: "tid", length: 6, align: pgtypes.AlignShort}
	dateType   = &fakeType{oid: pgtype.DateOID, name: "date", length: 4}
	tsType     = &fakeType{oid: pgtype.TimestampOID, name: "timestamp", length: 8, align: pgtypes.AlignDouble}
	ivalType   = &fakeType{oid: pgtype.IntervalOID, name: "interval", length: 16, align: pgtypes.AlignDouble}

	int4ArrayType = &fakeType{
		oid: pgtype.Int4ArrayOID, name: "_int4",
		length: pgtypes.VariableLength, element: int4Type,
	}
	textArrayType = &fakeType{
		oid: pgtype.TextArrayOID, name: "_text",
		length: pgtypes.VariableLength, element: textType,
	}
)

func fakeResolver(types ...*fakeType) pgtypes.TypeResolver {
	index := make(map[uint32]*fakeType, len(types))
	for _, td := range types {
		index[td.oid] = td
	}
	return func(oid uint32) (pgtypes.TypeDescriptor, error) {
		td, present := index[oid]
		if !present {
			return nil, errors.Errorf("unknown type oid %d", oid)
		}
		return td, nil
	}
}

func buffer(data []byte) memory.Buffer {
	return memory.NewBuffer(nil, data)
}

func Test_Scalar_Adapters_Decode_Fixed_Width_Values(t *testing.T) {
	value, err := pgtypes.DecodeWith(
		NewInt2Adapter(), int2Type, buffer(pgio.AppendUint16(nil, 0x8001)),
	)
	assert.Nil(t, err)
	assert.Equal(t, int16(-32767), value)

	value, err = pgtypes.DecodeWith(
		NewInt4Adapter(), int4Type, buffer(pgio.AppendInt32(nil, -4711)),
	)
	assert.Nil(t, err)
	assert.Equal(t, int32(-4711), value)

	value, err = pgtypes.DecodeWith(
		NewInt8Adapter(), int8Type, buffer(pgio.AppendInt64(nil, math.MaxInt64)),
	)
	assert.Nil(t, err)
	assert.Equal(t, int64(math.MaxInt64), value)

	value, err = pgtypes.DecodeWith(
		NewFloat8Adapter(), float8Type,
		buffer(pgio.AppendUint64(nil, math.Float64bits(3.5))),
	)
	assert.Nil(t, err)
	assert.Equal(t, 3.5, value)

	value, err = pgtypes.DecodeWith(NewBoolAdapter(), boolType, buffer([]byte{1}))
	assert.Nil(t, err)
	assert.Equal(t, true, value)
}

func Test_Scalar_Adapters_Accept_Only_Their_Oids(t *testing.T) {
	assert.True(t, NewInt4Adapter().CanFetch(int4Type))
	assert.False(t, NewInt4Adapter().CanFetch(int8Type))
	assert.False(t, NewBoolAdapter().CanFetch(textType))
	assert.True(t, NewTimestampAdapter().CanFetch(tsType))
}

func Test_Oid_Family_Adapters(t *testing.T) {
	oidType := &fakeType{oid: pgtype.OIDOID, name: "oid", length: 4}
	value, err := pgtypes.DecodeWith(
		NewOidAdapter(), oidType, buffer(pgio.AppendUint32(nil, 16384)),
	)
	assert.Nil(t, err)
	assert.Equal(t, uint32(16384), value)

	xid8Type := &fakeType{oid: pgtypes.Xid8OID, name: "xid8", length: 8, align: pgtypes.AlignDouble}
	value, err = pgtypes.DecodeWith(
		NewXid8Adapter(), xid8Type, buffer(pgio.AppendUint64(nil, 1<<40)),
	)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1<<40), value)
}

func Test_Tid_Adapter_Reads_Block_And_Offset(t *testing.T) {
	data := pgio.AppendUint32(nil, 7)
	data = pgio.AppendUint16(data, 12)

	value, err := pgtypes.DecodeWith(NewTidAdapter(), tidType, buffer(data))
	assert.Nil(t, err)
	assert.Equal(t, pgtype.TID{
		BlockNumber:  7,
		OffsetNumber: 12,
		Valid:        true,
	}, value)
}

func Test_Datetime_Adapters(t *testing.T) {
	value, err := pgtypes.DecodeWith(
		NewDateAdapter(), dateType, buffer(pgio.AppendInt32(nil, 366)),
	)
	assert.Nil(t, err)
	assert.Equal(t, pgtypes.Date{Days: 366}, value)
	assert.Equal(t, "2001-01-01", value.(pgtypes.Date).String())

	value, err = pgtypes.DecodeWith(
		NewTimestampAdapter(), tsType, buffer(pgio.AppendInt64(nil, math.MaxInt64)),
	)
	assert.Nil(t, err)
	assert.True(t, value.(pgtypes.Timestamp).IsPositiveInfinity())

	ivalData := pgio.AppendInt64(nil, 3600000000)
	ivalData = pgio.AppendInt32(ivalData, 2)
	ivalData = pgio.AppendInt32(ivalData, 13)
	value, err = pgtypes.DecodeWith(NewIntervalAdapter(), ivalType, buffer(ivalData))
	assert.Nil(t, err)
	assert.Equal(t, pgtype.Interval{
		Microseconds: 3600000000,
		Days:         2,
		Months:       13,
		Valid:        true,
	}, value)
}

func Test_Text_Adapter_Returns_String(t *testing.T) {
	value, err := pgtypes.DecodeWith(
		NewTextAdapter(), textType, buffer([]byte("varlena stripped")),
	)
	assert.Nil(t, err)
	assert.Equal(t, "varlena stripped", value)
}

func Test_Uuid_Adapter(t *testing.T) {
	raw := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}
	value, err := pgtypes.DecodeWith(NewUuidAdapter(), uuidType, buffer(raw))
	assert.Nil(t, err)
	assert.Equal(t, "00112233-4455-6677-8899-aabbccddeeff", value)

	_, err = pgtypes.DecodeWith(NewUuidAdapter(), uuidType, buffer(raw[:12]))
	assert.NotNil(t, err)
	_, ok := pgtypes.AsDecodeError(err)
	assert.True(t, ok)
}

func Test_Default_Registry_Prefers_Specific_Adapters(t *testing.T) {
	registry := NewDefaultRegistry(fakeResolver(
		int4Type, textType, int4ArrayType, textArrayType,
	))

	adapter, ok := registry.Lookup(int4Type)
	assert.True(t, ok)
	assert.IsType(t, &Int4Adapter{}, adapter)

	adapter, ok = registry.Lookup(int4ArrayType)
	assert.True(t, ok)
	assert.IsType(t, &ArrayAdapter{}, adapter)
}
