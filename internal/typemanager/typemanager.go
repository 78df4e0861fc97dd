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

	"github.com/varlenahq/pg-datum-marshal/internal/adapters"
	"github.com/varlenahq/pg-datum-marshal/internal/containers"
	"github.com/varlenahq/pg-datum-marshal/internal/logging"
	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
	"github.com/varlenahq/pg-datum-marshal/spi/sidechannel"
)

// TypeManager owns the interning table for catalog objects and the
// adapter registry used to decode their datums. Every (class, oid,
// subId) triple maps to exactly one object for the lifetime of the
// manager; equality of identity is pointer equality.
//
// Consumers run on a single logical worker. The interning table itself
// is safe for concurrent use, but the handshake scratch field and the
// cached attribute cells assume at most one resolver in flight.
type TypeManager struct {
	logger *logging.Logger

	sideChannel sidechannel.SideChannel
	registry    *pgtypes.AdapterRegistry

	// globalToken guards attributes derived from catalog state beyond
	// a single object's tuple, such as namespace names.
	globalToken *catalog.RevocationToken

	typeObjects     *containers.ConcurrentMap[catalog.ObjectKey, *typeObject]
	relationObjects *containers.ConcurrentMap[catalog.ObjectKey, *relationObject]

	blessed *blessedRegistry

	// handshake carries the in-progress resolution between a composite
	// type and its backing relation, so that whichever side started the
	// resolution can hand itself to the other without a second catalog
	// search. Scoped strictly to one resolver call; see handshake.go.
	handshake *handshake
}

func NewTypeManager(
	sideChannel sidechannel.SideChannel,
) (*TypeManager, error) {

	logger, err := logging.NewLogger("TypeManager")
	if err != nil {
		return nil, err
	}

	typeManager := &TypeManager{
		logger: logger,

		sideChannel: sideChannel,

		globalToken: catalog.NewRevocationToken(),

		typeObjects:     containers.NewConcurrentMap[catalog.ObjectKey, *typeObject](),
		relationObjects: containers.NewConcurrentMap[catalog.ObjectKey, *relationObject](),

		blessed: newBlessedRegistry(),
	}
	typeManager.registry = adapters.NewDefaultRegistry(typeManager.ResolveType)
	sideChannel.OnInvalidation(typeManager)
	return typeManager, nil
}

// Type returns the interned singleton for the given pg_type oid with
// no declared modifier.
func (tm *TypeManager) Type(
	oid uint32,
) *typeObject {

	key := catalog.NewObjectKey(
		catalog.TypeClass, oid,
	).WithSubId(catalog.NoModifierSubId())
	if known, present := tm.typeObjects.Load(key); present {
		return known
	}
	created, _ := tm.typeObjects.LoadOrStore(key, newTypeObject(tm, key, nil))
	return created
}

// TypeWithModifier returns the interned singleton for the given
// pg_type oid carrying an explicit modifier. The modified singleton
// shares the base type's token and tuple cells; only modifier
// dependent attributes differ.
func (tm *TypeManager) TypeWithModifier(
	oid uint32, modifier int32,
) *typeObject {

	key := catalog.NewObjectKey(
		catalog.TypeClass, oid,
	).WithSubId(catalog.ModifierSubId(modifier))
	if known, present := tm.typeObjects.Load(key); present {
		return known
	}
	created, _ := tm.typeObjects.LoadOrStore(
		key, newTypeObject(tm, key, tm.Type(oid)),
	)
	return created
}

// Relation returns the interned singleton for the given pg_class oid.
func (tm *TypeManager) Relation(
	oid uint32,
) *relationObject {

	key := catalog.NewObjectKey(catalog.ClassClass, oid)
	if known, present := tm.relationObjects.Load(key); present {
		return known
	}
	created, _ := tm.relationObjects.LoadOrStore(key, newRelationObject(tm, key))
	return created
}

// ResolveType adapts the interning table to the pgtypes.TypeResolver
// contract used by element and composite decoding.
func (tm *TypeManager) ResolveType(
	oid uint32,
) (pgtypes.TypeDescriptor, error) {

	return tm.Type(oid), nil
}

// Registry exposes the adapter registry so embedders can register
// extension decoders in front of the defaults.
func (tm *TypeManager) Registry() *pgtypes.AdapterRegistry {
	return tm.registry
}

// Decode materializes a single datum of the given type from a pinned
// buffer, using the highest priority adapter that accepts the type.
func (tm *TypeManager) Decode(
	typeDescriptor pgtypes.TypeDescriptor, buffer memory.Buffer,
) (any, error) {

	return tm.registry.Decode(typeDescriptor, buffer)
}

// Attribute resolves a named attribute of an interned catalog object,
// computing and memoizing it on first access.
func (tm *TypeManager) Attribute(
	object catalog.Object, name string,
) (any, error) {

	return object.Attribute(name)
}

// GlobalToken is the coarse invalidation domain shared by all
// cross-object attributes.
func (tm *TypeManager) GlobalToken() *catalog.RevocationToken {
	return tm.globalToken
}

// BlessRowType registers an engine-assigned row shape under a fresh
// modifier and returns the modifier. The returned modifier names the
// layout through the interned RECORD type for the manager's lifetime.
func (tm *TypeManager) BlessRowType(
	layout *pgtypes.RowLayout,
) int32 {

	modifier := tm.blessed.register(layout)
	tm.logger.Debugf(
		"blessed row type registered: modifier %d, %d columns",
		modifier, layout.NumColumns(),
	)
	return modifier
}

// RegisterRowType installs a row shape under a caller-chosen modifier,
// replacing any previous registration for that modifier.
func (tm *TypeManager) RegisterRowType(
	modifier int32, layout *pgtypes.RowLayout,
) {

	tm.blessed.install(modifier, layout)
}

// BlessedRowType returns the interned RECORD singleton for a
// registered modifier. Resolution of its layout stays non-sticky:
// asking for an unregistered modifier fails without poisoning the
// cell, so a later registration becomes visible without invalidation.
func (tm *TypeManager) BlessedRowType(
	modifier int32,
) *typeObject {

	return tm.TypeWithModifier(pgtypes.RecordOID, modifier)
}

// HandleInvalidation advances revocation tokens for the addressed
// objects, or the global token for a catalog-wide reset. Cached cells
// are not touched here; they notice the stale stamp on next access.
func (tm *TypeManager) HandleInvalidation(
	invalidation sidechannel.Invalidation,
) {

	if invalidation.Global {
		tm.logger.Debugf(
			"global catalog invalidation at %s", invalidation.LSN,
		)
		tm.globalToken.Advance(invalidation.LSN)
		tm.typeObjects.Range(func(_ catalog.ObjectKey, object *typeObject) bool {
			object.token.Advance(invalidation.LSN)
			return true
		})
		tm.relationObjects.Range(func(_ catalog.ObjectKey, object *relationObject) bool {
			object.token.Advance(invalidation.LSN)
			return true
		})
		return
	}

	for _, key := range invalidation.Keys {
		tm.invalidateObject(key, invalidation)
	}
}

func (tm *TypeManager) invalidateObject(
	key catalog.ObjectKey, invalidation sidechannel.Invalidation,
) {

	switch key.Class {
	case catalog.TypeClass:
		// Modifier variants share the base token, advancing the base
		// covers all of them.
		base := key.WithSubId(catalog.NoModifierSubId())
		if object, present := tm.typeObjects.Load(base); present {
			object.token.Advance(invalidation.LSN)
		}

	case catalog.ClassClass:
		if object, present := tm.relationObjects.Load(key); present {
			object.token.Advance(invalidation.LSN)
		}

	case catalog.NamespaceClass:
		// Namespace renames affect cross-object attributes only.
		tm.globalToken.Advance(invalidation.LSN)

	default:
		tm.logger.Tracef(
			"ignoring invalidation for unmanaged class %s", key.Class,
		)
	}
}

// fetchRow runs fn over a single catalog tuple, closing the row (and
// releasing its pin) before returning.
func (tm *TypeManager) fetchRow(
	class catalog.RegClass, oid uint32,
	fn func(row sidechannel.CatalogRow) error,
) error {

	row, err := tm.sideChannel.FetchCatalogRow(class, oid)
	if err != nil {
		return err
	}
	defer row.Close()
	return fn(row)
}

// namespaceName resolves a pg_namespace oid to its name. Used by the
// global-domain attribute cells of both object kinds.
func (tm *TypeManager) namespaceName(
	oid uint32,
) (string, error) {

	var name string
	if err := tm.fetchRow(
		catalog.NamespaceClass, oid,
		func(row sidechannel.CatalogRow) error {
			value, err := row.Name("nspname")
			if err != nil {
				return err
			}
			name = value
			return nil
		},
	); err != nil {
		return "", errors.Wrap(err, 0)
	}
	return name, nil
}
