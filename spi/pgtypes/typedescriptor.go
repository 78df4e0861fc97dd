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

// TypeKind mirrors pg_type.typtype.
type TypeKind rune

const (
	BaseKind      TypeKind = 'b'
	CompositeKind TypeKind = 'c'
	DomainKind    TypeKind = 'd'
	EnumKind      TypeKind = 'e'
	PseudoKind    TypeKind = 'p'
	RangeKind     TypeKind = 'r'
)

// Alignment mirrors pg_type.typalign.
type Alignment rune

const (
	AlignChar   Alignment = 'c'
	AlignShort  Alignment = 's'
	AlignInt    Alignment = 'i'
	AlignDouble Alignment = 'd'
)

// Size returns the byte alignment the class demands.
func (a Alignment) Size() int {
	switch a {
	case AlignChar:
		return 1
	case AlignShort:
		return 2
	case AlignInt:
		return 4
	case AlignDouble:
		return 8
	}
	panic("pgtypes: unknown alignment class " + string(a))
}

// Declared lengths with special meaning, as in pg_type.typlen.
const (
	VariableLength int16 = -1
	CStringLength  int16 = -2
)

// Typmod is a type modifier. The zero value is the distinguished
// "no modifier" state; it never compares equal to an explicit modifier,
// whatever that modifier's numeric value is.
type Typmod struct {
	value int32
	valid bool
}

func NoTypmod() Typmod {
	return Typmod{}
}

func TypmodOf(value int32) Typmod {
	return Typmod{value: value, valid: true}
}

func (m Typmod) Valid() bool {
	return m.valid
}

func (m Typmod) Value() int32 {
	if !m.valid {
		panic("pgtypes: value of an unset type modifier")
	}
	return m.value
}

// TypeResolver resolves a type descriptor by oid, usually backed by
// the type manager's interning table.
type TypeResolver func(oid uint32) (TypeDescriptor, error)

// TypeDescriptor identifies a database type and exposes its derived
// attributes. Identity is immutable; derived attributes may be
// recomputed after a catalog change.
type TypeDescriptor interface {
	Oid() uint32
	Name() string
	Namespace() string
	Kind() TypeKind

	// Length is the declared width in bytes, VariableLength for
	// varlena types.
	Length() (int16, error)
	ByValue() (bool, error)
	Alignment() (Alignment, error)

	IsArray() bool
	OidElement() uint32
	ElementType() (TypeDescriptor, error)

	Modifier() Typmod

	// RowLayout resolves the tuple layout of a composite or blessed
	// row type. Composite types derive it from the owning relation;
	// blessed row types from the runtime registration for their
	// modifier.
	RowLayout() (*RowLayout, error)
}
