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

package testsupport

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/varlenahq/pg-datum-marshal/internal/catalogstore"
	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// TypeSpec describes one pg_type row of a test catalog.
type TypeSpec struct {
	Oid       uint32
	Name      string
	Namespace uint32
	Kind      pgtypes.TypeKind
	Length    int16
	ByValue   bool
	Alignment pgtypes.Alignment
	Element   uint32
	Relation  uint32
	Array     uint32
	Category  byte
}

// ColumnSpec describes one pg_attribute row of a test relation.
type ColumnSpec struct {
	Name     string
	TypeOid  uint32
	Modifier int32
	AttNum   int16
	NotNull  bool
	Dropped  bool
}

// RelationSpec describes one pg_class row plus its attributes. When
// RowType is set, a matching composite pg_type row is written as well.
type RelationSpec struct {
	Oid       uint32
	Name      string
	Namespace uint32
	RowType   uint32
	Kind      byte
	Columns   []ColumnSpec
}

// CatalogBuilder assembles an in-memory catalog snapshot for tests.
type CatalogBuilder struct {
	writer     *catalogstore.SnapshotWriter
	types      *catalogstore.ClassWriter
	classes    *catalogstore.ClassWriter
	attributes *catalogstore.ClassWriter
	namespaces *catalogstore.ClassWriter
}

func NewCatalogBuilder() *CatalogBuilder {
	writer := catalogstore.NewSnapshotWriter()
	return &CatalogBuilder{
		writer: writer,
		types: writer.Class(
			catalog.TypeClass,
			"typname", "typnamespace", "typtype", "typlen", "typbyval",
			"typalign", "typelem", "typrelid", "typarray", "typcategory",
		),
		classes: writer.Class(
			catalog.ClassClass,
			"relname", "relnamespace", "reltype", "relkind", "relnatts",
		),
		attributes: writer.Class(
			catalog.AttributeClass,
			"attname", "atttypid", "atttypmod", "attnum",
			"attnotnull", "attisdropped",
		),
		namespaces: writer.Class(
			catalog.NamespaceClass,
			"nspname",
		),
	}
}

const (
	// PgCatalogNamespace is the namespace oid preloaded by
	// WithStandardTypes.
	PgCatalogNamespace uint32 = 11
)

func (cb *CatalogBuilder) Namespace(
	oid uint32, name string,
) *CatalogBuilder {

	cb.namespaces.Row(oid, catalogstore.NameDatum(name))
	return cb
}

func (cb *CatalogBuilder) Type(
	spec TypeSpec,
) *CatalogBuilder {

	if spec.Namespace == 0 {
		spec.Namespace = PgCatalogNamespace
	}
	if spec.Kind == 0 {
		spec.Kind = pgtypes.BaseKind
	}
	if spec.Alignment == 0 {
		spec.Alignment = pgtypes.AlignInt
	}
	cb.types.Row(spec.Oid,
		catalogstore.NameDatum(spec.Name),
		catalogstore.Uint32Datum(spec.Namespace),
		catalogstore.CharDatum(byte(spec.Kind)),
		catalogstore.Int16Datum(spec.Length),
		catalogstore.BoolDatum(spec.ByValue),
		catalogstore.CharDatum(byte(spec.Alignment)),
		catalogstore.Uint32Datum(spec.Element),
		catalogstore.Uint32Datum(spec.Relation),
		catalogstore.Uint32Datum(spec.Array),
		catalogstore.CharDatum(spec.Category),
	)
	return cb
}

func (cb *CatalogBuilder) Relation(
	spec RelationSpec,
) *CatalogBuilder {

	if spec.Namespace == 0 {
		spec.Namespace = PgCatalogNamespace
	}
	if spec.Kind == 0 {
		spec.Kind = 'r'
	}
	cb.classes.Row(spec.Oid,
		catalogstore.NameDatum(spec.Name),
		catalogstore.Uint32Datum(spec.Namespace),
		catalogstore.Uint32Datum(spec.RowType),
		catalogstore.CharDatum(spec.Kind),
		catalogstore.Int16Datum(int16(len(spec.Columns))),
	)
	for _, column := range spec.Columns {
		cb.attributes.Row(spec.Oid,
			catalogstore.NameDatum(column.Name),
			catalogstore.Uint32Datum(column.TypeOid),
			catalogstore.Int32Datum(column.Modifier),
			catalogstore.Int16Datum(column.AttNum),
			catalogstore.BoolDatum(column.NotNull),
			catalogstore.BoolDatum(column.Dropped),
		)
	}
	if spec.RowType != 0 {
		cb.Type(TypeSpec{
			Oid:       spec.RowType,
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Kind:      pgtypes.CompositeKind,
			Length:    pgtypes.VariableLength,
			Alignment: pgtypes.AlignDouble,
			Relation:  spec.Oid,
			Category:  'C',
		})
	}
	return cb
}

// WithStandardTypes preloads the builtin scalar and array types the
// default adapter registry knows how to decode.
func (cb *CatalogBuilder) WithStandardTypes() *CatalogBuilder {
	cb.Namespace(PgCatalogNamespace, "pg_catalog")

	scalar := func(
		oid uint32, name string, length int16, byValue bool,
		alignment pgtypes.Alignment, category byte, arrayOid uint32,
	) {
		cb.Type(TypeSpec{
			Oid:       oid,
			Name:      name,
			Length:    length,
			ByValue:   byValue,
			Alignment: alignment,
			Array:     arrayOid,
			Category:  category,
		})
		if arrayOid != 0 {
			cb.Type(TypeSpec{
				Oid:       arrayOid,
				Name:      "_" + name,
				Length:    pgtypes.VariableLength,
				Alignment: alignment,
				Element:   oid,
				Category:  'A',
			})
		}
	}

	scalar(pgtype.BoolOID, "bool", 1, true, pgtypes.AlignChar, 'B', pgtype.BoolArrayOID)
	scalar(pgtype.ByteaOID, "bytea", pgtypes.VariableLength, false, pgtypes.AlignInt, 'U', pgtype.ByteaArrayOID)
	scalar(pgtypes.CharOID, "char", 1, true, pgtypes.AlignChar, 'Z', 0)
	scalar(pgtype.NameOID, "name", 64, false, pgtypes.AlignChar, 'S', 0)
	scalar(pgtype.Int2OID, "int2", 2, true, pgtypes.AlignShort, 'N', pgtype.Int2ArrayOID)
	scalar(pgtype.Int4OID, "int4", 4, true, pgtypes.AlignInt, 'N', pgtype.Int4ArrayOID)
	scalar(pgtype.Int8OID, "int8", 8, true, pgtypes.AlignDouble, 'N', pgtype.Int8ArrayOID)
	scalar(pgtype.Float4OID, "float4", 4, true, pgtypes.AlignInt, 'N', pgtype.Float4ArrayOID)
	scalar(pgtype.Float8OID, "float8", 8, true, pgtypes.AlignDouble, 'N', pgtype.Float8ArrayOID)
	scalar(pgtype.TextOID, "text", pgtypes.VariableLength, false, pgtypes.AlignInt, 'S', pgtype.TextArrayOID)
	scalar(pgtype.VarcharOID, "varchar", pgtypes.VariableLength, false, pgtypes.AlignInt, 'S', pgtype.VarcharArrayOID)
	scalar(pgtype.OIDOID, "oid", 4, true, pgtypes.AlignInt, 'N', 0)
	scalar(pgtype.TIDOID, "tid", 6, false, pgtypes.AlignShort, 'U', 0)
	scalar(pgtype.XIDOID, "xid", 4, true, pgtypes.AlignInt, 'U', 0)
	scalar(pgtype.CIDOID, "cid", 4, true, pgtypes.AlignInt, 'U', 0)
	scalar(pgtypes.Xid8OID, "xid8", 8, true, pgtypes.AlignDouble, 'U', pgtypes.Xid8ArrayOID)
	scalar(pgtype.DateOID, "date", 4, true, pgtypes.AlignInt, 'D', pgtype.DateArrayOID)
	scalar(pgtype.TimeOID, "time", 8, true, pgtypes.AlignDouble, 'D', 0)
	scalar(pgtypes.TimeTZOID, "timetz", 12, false, pgtypes.AlignDouble, 'D', 0)
	scalar(pgtype.TimestampOID, "timestamp", 8, true, pgtypes.AlignDouble, 'D', pgtype.TimestampArrayOID)
	scalar(pgtype.TimestamptzOID, "timestamptz", 8, true, pgtypes.AlignDouble, 'D', pgtype.TimestamptzArrayOID)
	scalar(pgtype.IntervalOID, "interval", 16, false, pgtypes.AlignDouble, 'T', 0)
	scalar(pgtype.NumericOID, "numeric", pgtypes.VariableLength, false, pgtypes.AlignInt, 'N', pgtype.NumericArrayOID)
	scalar(pgtype.UUIDOID, "uuid", 16, false, pgtypes.AlignChar, 'U', pgtype.UUIDArrayOID)

	cb.Type(TypeSpec{
		Oid:       pgtypes.RecordOID,
		Name:      "record",
		Kind:      pgtypes.PseudoKind,
		Length:    pgtypes.VariableLength,
		Alignment: pgtypes.AlignDouble,
		Category:  'P',
	})
	return cb
}

// Build renders the snapshot and serves it from memory.
func (cb *CatalogBuilder) Build() (*catalogstore.Store, error) {
	return catalogstore.NewStoreFromBytes(cb.writer.Bytes())
}
