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
	"github.com/go-errors/errors"
)

// RowColumn is one attribute of a tuple layout.
type RowColumn struct {
	name     string
	oidType  uint32
	modifier Typmod
	attNum   int16
	nullable bool
}

func NewRowColumn(
	name string, oidType uint32, modifier Typmod, attNum int16, nullable bool,
) RowColumn {

	return RowColumn{
		name:     name,
		oidType:  oidType,
		modifier: modifier,
		attNum:   attNum,
		nullable: nullable,
	}
}

func (rc RowColumn) Name() string {
	return rc.name
}

func (rc RowColumn) OidType() uint32 {
	return rc.oidType
}

func (rc RowColumn) Modifier() Typmod {
	return rc.modifier
}

func (rc RowColumn) AttNum() int16 {
	return rc.attNum
}

func (rc RowColumn) Nullable() bool {
	return rc.nullable
}

// RowLayout describes the attribute order of a composite or blessed
// row type. Layouts are immutable once built.
type RowLayout struct {
	rowType uint32
	columns []RowColumn
	byName  map[string]int
}

// NewRowLayout builds an anonymous layout, carrying the generic record
// oid the way the engine tags engine-blessed tuple descriptors.
func NewRowLayout(
	columns []RowColumn,
) *RowLayout {

	return NewCompositeRowLayout(RecordOID, columns)
}

// NewCompositeRowLayout names the composite type the layout describes.
func NewCompositeRowLayout(
	rowTypeOid uint32, columns []RowColumn,
) *RowLayout {

	byName := make(map[string]int, len(columns))
	for i, column := range columns {
		byName[column.name] = i
	}
	return &RowLayout{
		rowType: rowTypeOid,
		columns: columns,
		byName:  byName,
	}
}

// RowTypeOid is the pg_type oid of the composite type the layout
// belongs to, or the generic record oid for anonymous layouts.
func (rl *RowLayout) RowTypeOid() uint32 {
	return rl.rowType
}

func (rl *RowLayout) NumColumns() int {
	return len(rl.columns)
}

func (rl *RowLayout) Columns() []RowColumn {
	columns := make([]RowColumn, len(rl.columns))
	copy(columns, rl.columns)
	return columns
}

func (rl *RowLayout) Column(
	index int,
) RowColumn {

	return rl.columns[index]
}

func (rl *RowLayout) ColumnByName(
	name string,
) (RowColumn, error) {

	if index, present := rl.byName[name]; present {
		return rl.columns[index], nil
	}
	return RowColumn{}, errors.Errorf("no column named %s in row layout", name)
}
