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

package typemanager

import (
	"github.com/go-errors/errors"

	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
	"github.com/varlenahq/pg-datum-marshal/spi/sidechannel"
)

// typeTuple is the decoded pg_type row a type object derives its
// attributes from. It is memoized as one unit in the object's own
// invalidation domain.
type typeTuple struct {
	name      string
	namespace uint32
	kind      pgtypes.TypeKind
	length    int16
	byValue   bool
	alignment pgtypes.Alignment
	element   uint32
	relation  uint32
	array     uint32
	category  byte
}

// typeObject is the interned singleton for one pg_type identity. A
// modifier variant shares the base singleton's token and tuple cells;
// only modifier dependent attributes get their own cell.
//
// Attribute cells and their invalidation domains, declared up front:
//
//	tuple          own domain     decoded pg_type row
//	rowlayout      own domain     composite or blessed tuple layout
//	namespacename  global domain  resolved pg_namespace name
type typeObject struct {
	manager *TypeManager
	key     catalog.ObjectKey

	token *catalog.RevocationToken

	tupleSlot     *catalog.Slot[typeTuple]
	namespaceSlot *catalog.Slot[string]
	layoutSlot    *catalog.Slot[*pgtypes.RowLayout]
}

func newTypeObject(
	manager *TypeManager, key catalog.ObjectKey, base *typeObject,
) *typeObject {

	object := &typeObject{
		manager: manager,
		key:     key,
	}
	if base != nil {
		object.token = base.token
		object.tupleSlot = base.tupleSlot
		object.namespaceSlot = base.namespaceSlot
	} else {
		object.token = catalog.NewRevocationToken()
		object.tupleSlot = catalog.NewSlot[typeTuple](object.token)
		object.namespaceSlot = catalog.NewSlot[string](manager.globalToken)
	}
	object.layoutSlot = catalog.NewSlot[*pgtypes.RowLayout](object.token)
	return object
}

func (t *typeObject) Key() catalog.ObjectKey {
	return t.key
}

func (t *typeObject) Token() *catalog.RevocationToken {
	return t.token
}

func (t *typeObject) tuple() (typeTuple, error) {
	return t.tupleSlot.Get(catalog.Cached(func() (typeTuple, error) {
		var tuple typeTuple
		err := t.manager.fetchRow(
			catalog.TypeClass, t.key.Oid,
			func(row sidechannel.CatalogRow) error {
				return readTypeTuple(row, &tuple)
			},
		)
		return tuple, err
	}))
}

func readTypeTuple(
	row sidechannel.CatalogRow, tuple *typeTuple,
) error {

	name, err := row.Name("typname")
	if err != nil {
		return err
	}
	namespace, err := row.Oid("typnamespace")
	if err != nil {
		return err
	}
	kind, err := row.Char("typtype")
	if err != nil {
		return err
	}
	length, err := row.Int16("typlen")
	if err != nil {
		return err
	}
	byValue, err := row.Bool("typbyval")
	if err != nil {
		return err
	}
	alignment, err := row.Char("typalign")
	if err != nil {
		return err
	}
	element, err := row.Oid("typelem")
	if err != nil {
		return err
	}
	relation, err := row.Oid("typrelid")
	if err != nil {
		return err
	}
	array, err := row.Oid("typarray")
	if err != nil {
		return err
	}
	category, err := row.Char("typcategory")
	if err != nil {
		return err
	}

	tuple.name = name
	tuple.namespace = namespace
	tuple.kind = pgtypes.TypeKind(kind)
	tuple.length = length
	tuple.byValue = byValue
	tuple.alignment = pgtypes.Alignment(alignment)
	tuple.element = element
	tuple.relation = relation
	tuple.array = array
	tuple.category = category
	return nil
}

func (t *typeObject) mustTuple() typeTuple {
	tuple, err := t.tuple()
	if err != nil {
		panic(errors.Errorf(
			"resolving pg_type tuple for oid %d: %v", t.key.Oid, err,
		))
	}
	return tuple
}

func (t *typeObject) Oid() uint32 {
	return t.key.Oid
}

func (t *typeObject) Name() string {
	return t.mustTuple().name
}

func (t *typeObject) Namespace() string {
	name, err := t.namespaceSlot.Get(catalog.Cached(func() (string, error) {
		tuple, err := t.tuple()
		if err != nil {
			return "", err
		}
		return t.manager.namespaceName(tuple.namespace)
	}))
	if err != nil {
		panic(errors.Errorf(
			"resolving namespace for type oid %d: %v", t.key.Oid, err,
		))
	}
	return name
}

func (t *typeObject) Kind() pgtypes.TypeKind {
	return t.mustTuple().kind
}

func (t *typeObject) Length() (int16, error) {
	tuple, err := t.tuple()
	if err != nil {
		return 0, err
	}
	return tuple.length, nil
}

func (t *typeObject) ByValue() (bool, error) {
	tuple, err := t.tuple()
	if err != nil {
		return false, err
	}
	return tuple.byValue, nil
}

func (t *typeObject) Alignment() (pgtypes.Alignment, error) {
	tuple, err := t.tuple()
	if err != nil {
		return 0, err
	}
	return tuple.alignment, nil
}

// IsArray and OidElement feed adapter CanFetch checks, where a false
// result means "try a different adapter" and must never escalate. An
// unresolvable tuple therefore reads as "not an array" here; lookup
// exhaustion surfaces the typed error instead.
func (t *typeObject) IsArray() bool {
	tuple, err := t.tuple()
	if err != nil {
		return false
	}
	return tuple.element != 0 && tuple.category == 'A'
}

func (t *typeObject) OidElement() uint32 {
	tuple, err := t.tuple()
	if err != nil {
		return 0
	}
	return tuple.element
}

func (t *typeObject) ElementType() (pgtypes.TypeDescriptor, error) {
	tuple, err := t.tuple()
	if err != nil {
		return nil, err
	}
	if tuple.element == 0 {
		return nil, errors.Errorf("type %d has no element type", t.key.Oid)
	}
	return t.manager.Type(tuple.element), nil
}

func (t *typeObject) ArrayType() (pgtypes.TypeDescriptor, error) {
	tuple, err := t.tuple()
	if err != nil {
		return nil, err
	}
	if tuple.array == 0 {
		return nil, errors.Errorf("type %d has no array type", t.key.Oid)
	}
	return t.manager.Type(tuple.array), nil
}

func (t *typeObject) Modifier() pgtypes.Typmod {
	if t.key.SubId.IsModifier() {
		return pgtypes.TypmodOf(t.key.SubId.Value())
	}
	return pgtypes.NoTypmod()
}

// RowLayout resolves the tuple layout. Composites derive it from the
// backing relation; blessed row types from the modifier registration.
// For blessed types the absence of a registration is transient and
// bypasses the cell, so a later registration needs no invalidation.
func (t *typeObject) RowLayout() (*pgtypes.RowLayout, error) {
	return t.layoutSlot.Get(func() (*pgtypes.RowLayout, bool, error) {
		if t.key.Oid == pgtypes.RecordOID {
			modifier := t.Modifier()
			if !modifier.Valid() {
				return nil, true, errors.Errorf(
					"anonymous record type carries no row layout",
				)
			}
			layout, present := t.manager.blessed.lookup(modifier.Value())
			if !present {
				return nil, false, errors.Errorf(
					"no row layout registered for record modifier %d",
					modifier.Value(),
				)
			}
			return layout, true, nil
		}

		tuple, err := t.tuple()
		if err != nil {
			return nil, true, err
		}
		if tuple.relation == 0 {
			return nil, true, errors.Errorf(
				"type %s (oid %d) is not a row type", tuple.name, t.key.Oid,
			)
		}
		layout, err := t.compositeLayout(tuple.relation)
		return layout, true, err
	})
}

// Relation resolves the backing pg_class object of a composite type,
// preferring the in-progress handshake over a tuple fetch.
func (t *typeObject) Relation() (*relationObject, error) {
	if h := t.manager.handshake; h != nil && h.rel != nil && h.typeOid == t.key.Oid {
		return h.rel, nil
	}

	tuple, err := t.tuple()
	if err != nil {
		return nil, err
	}
	if tuple.relation == 0 {
		return nil, errors.Errorf(
			"type %s (oid %d) has no backing relation", tuple.name, t.key.Oid,
		)
	}
	return t.manager.Relation(tuple.relation), nil
}

// compositeLayout delegates to the backing relation with the handshake
// marker installed. The relation stamps its layout with its row type,
// which is this object, so the marker saves it the pg_class fetch that
// resolution would otherwise cost.
func (t *typeObject) compositeLayout(
	relationOid uint32,
) (*pgtypes.RowLayout, error) {

	relation := t.manager.Relation(relationOid)

	finish := t.manager.beginHandshake(&handshake{
		typ:         t,
		rel:         relation,
		typeOid:     t.key.Oid,
		relationOid: relationOid,
	})
	defer finish()

	return relation.RowLayout()
}

// Attribute resolves derived attributes by their catalog-ish names.
func (t *typeObject) Attribute(
	name string,
) (any, error) {

	switch name {
	case "name":
		tuple, err := t.tuple()
		return tuple.name, err
	case "namespace":
		tuple, err := t.tuple()
		return tuple.namespace, err
	case "kind":
		tuple, err := t.tuple()
		return tuple.kind, err
	case "length":
		return t.Length()
	case "byvalue":
		return t.ByValue()
	case "alignment":
		return t.Alignment()
	case "element":
		tuple, err := t.tuple()
		return tuple.element, err
	case "relation":
		tuple, err := t.tuple()
		return tuple.relation, err
	case "array":
		tuple, err := t.tuple()
		return tuple.array, err
	case "category":
		tuple, err := t.tuple()
		return tuple.category, err
	case "namespacename":
		tuple, err := t.tuple()
		if err != nil {
			return nil, err
		}
		return t.namespaceSlot.Get(catalog.Cached(func() (string, error) {
			return t.manager.namespaceName(tuple.namespace)
		}))
	case "rowlayout":
		return t.RowLayout()
	}
	return nil, errors.Errorf(
		"unknown attribute %s of type object %s", name, t.key,
	)
}
