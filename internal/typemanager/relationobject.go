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

// relTuple is the decoded pg_class row a relation object derives its
// attributes from.
type relTuple struct {
	name          string
	namespace     uint32
	rowType       uint32
	kind          byte
	numAttributes int16
}

// relationObject is the interned singleton for one pg_class identity.
//
// Attribute cells and their invalidation domains, declared up front:
//
//	tuple          own domain     decoded pg_class row
//	rowlayout      own domain     tuple layout from pg_attribute
//	namespacename  global domain  resolved pg_namespace name
type relationObject struct {
	manager *TypeManager
	key     catalog.ObjectKey

	token *catalog.RevocationToken

	tupleSlot     *catalog.Slot[relTuple]
	namespaceSlot *catalog.Slot[string]
	layoutSlot    *catalog.Slot[*pgtypes.RowLayout]
}

func newRelationObject(
	manager *TypeManager, key catalog.ObjectKey,
) *relationObject {

	object := &relationObject{
		manager: manager,
		key:     key,
		token:   catalog.NewRevocationToken(),
	}
	object.tupleSlot = catalog.NewSlot[relTuple](object.token)
	object.namespaceSlot = catalog.NewSlot[string](manager.globalToken)
	object.layoutSlot = catalog.NewSlot[*pgtypes.RowLayout](object.token)
	return object
}

func (r *relationObject) Key() catalog.ObjectKey {
	return r.key
}

func (r *relationObject) Token() *catalog.RevocationToken {
	return r.token
}

func (r *relationObject) tuple() (relTuple, error) {
	return r.tupleSlot.Get(catalog.Cached(func() (relTuple, error) {
		var tuple relTuple
		err := r.manager.fetchRow(
			catalog.ClassClass, r.key.Oid,
			func(row sidechannel.CatalogRow) error {
				return readRelTuple(row, &tuple)
			},
		)
		return tuple, err
	}))
}

func readRelTuple(
	row sidechannel.CatalogRow, tuple *relTuple,
) error {

	name, err := row.Name("relname")
	if err != nil {
		return err
	}
	namespace, err := row.Oid("relnamespace")
	if err != nil {
		return err
	}
	rowType, err := row.Oid("reltype")
	if err != nil {
		return err
	}
	kind, err := row.Char("relkind")
	if err != nil {
		return err
	}
	numAttributes, err := row.Int16("relnatts")
	if err != nil {
		return err
	}

	tuple.name = name
	tuple.namespace = namespace
	tuple.rowType = rowType
	tuple.kind = kind
	tuple.numAttributes = numAttributes
	return nil
}

func (r *relationObject) Oid() uint32 {
	return r.key.Oid
}

func (r *relationObject) Name() (string, error) {
	tuple, err := r.tuple()
	if err != nil {
		return "", err
	}
	return tuple.name, nil
}

func (r *relationObject) Namespace() (string, error) {
	return r.namespaceSlot.Get(catalog.Cached(func() (string, error) {
		tuple, err := r.tuple()
		if err != nil {
			return "", err
		}
		return r.manager.namespaceName(tuple.namespace)
	}))
}

// RowType resolves the relation's row type object, preferring the
// in-progress handshake over a tuple fetch.
func (r *relationObject) RowType() (*typeObject, error) {
	if h := r.manager.handshake; h != nil && h.typ != nil && h.relationOid == r.key.Oid {
		return h.typ, nil
	}

	tuple, err := r.tuple()
	if err != nil {
		return nil, err
	}
	if tuple.rowType == 0 {
		return nil, errors.Errorf(
			"relation %s (oid %d) has no row type", tuple.name, r.key.Oid,
		)
	}
	return r.manager.Type(tuple.rowType), nil
}

// RowLayout builds the tuple layout from the relation's pg_attribute
// rows, in attribute number order. Dropped and system attributes are
// skipped. The layout is stamped with the relation's row type; when a
// composite type drives the resolution, the handshake hands the type
// back without touching pg_class.
func (r *relationObject) RowLayout() (*pgtypes.RowLayout, error) {
	return r.layoutSlot.Get(catalog.Cached(func() (*pgtypes.RowLayout, error) {
		rowType, err := r.RowType()
		if err != nil {
			return nil, err
		}

		var columns []pgtypes.RowColumn
		if err := r.manager.sideChannel.ScanCatalogRows(
			catalog.AttributeClass, r.key.Oid,
			func(row sidechannel.CatalogRow) error {
				column, keep, err := readAttributeRow(row)
				if err != nil {
					return err
				}
				if keep {
					columns = append(columns, column)
				}
				return nil
			},
		); err != nil {
			return nil, errors.Wrap(err, 0)
		}
		return pgtypes.NewCompositeRowLayout(rowType.Oid(), columns), nil
	}))
}

func readAttributeRow(
	row sidechannel.CatalogRow,
) (pgtypes.RowColumn, bool, error) {

	attNum, err := row.Int16("attnum")
	if err != nil {
		return pgtypes.RowColumn{}, false, err
	}
	dropped, err := row.Bool("attisdropped")
	if err != nil {
		return pgtypes.RowColumn{}, false, err
	}
	if attNum <= 0 || dropped {
		return pgtypes.RowColumn{}, false, nil
	}

	name, err := row.Name("attname")
	if err != nil {
		return pgtypes.RowColumn{}, false, err
	}
	typeOid, err := row.Oid("atttypid")
	if err != nil {
		return pgtypes.RowColumn{}, false, err
	}
	rawModifier, err := row.Int32("atttypmod")
	if err != nil {
		return pgtypes.RowColumn{}, false, err
	}
	notNull, err := row.Bool("attnotnull")
	if err != nil {
		return pgtypes.RowColumn{}, false, err
	}

	modifier := pgtypes.NoTypmod()
	if rawModifier >= 0 {
		modifier = pgtypes.TypmodOf(rawModifier)
	}
	return pgtypes.NewRowColumn(
		name, typeOid, modifier, attNum, !notNull,
	), true, nil
}

// Attribute resolves derived attributes by their catalog-ish names.
func (r *relationObject) Attribute(
	name string,
) (any, error) {

	switch name {
	case "name":
		return r.Name()
	case "namespace":
		tuple, err := r.tuple()
		return tuple.namespace, err
	case "namespacename":
		return r.Namespace()
	case "kind":
		tuple, err := r.tuple()
		return tuple.kind, err
	case "rowtype":
		tuple, err := r.tuple()
		return tuple.rowType, err
	case "natts":
		tuple, err := r.tuple()
		return tuple.numAttributes, err
	case "rowlayout":
		return r.RowLayout()
	}
	return nil, errors.Errorf(
		"unknown attribute %s of relation object %s", name, r.key,
	)
}
