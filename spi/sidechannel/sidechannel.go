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

package sidechannel

import (
	"github.com/jackc/pglogrepl"
	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
)

// CatalogRow gives scoped access to one catalog row's raw attribute
// bytes. The row holds a pin on the underlying memory; Close releases
// it and must run on every path.
type CatalogRow interface {
	// Datum returns the raw bytes of the named column as a view into
	// the pinned row image, plus the null flag. Varlena columns are
	// returned with their generic header already stripped.
	Datum(column string) (value memory.Buffer, null bool, err error)

	Oid(column string) (uint32, error)
	Int16(column string) (int16, error)
	Int32(column string) (int32, error)
	Bool(column string) (bool, error)
	Char(column string) (byte, error)
	Name(column string) (string, error)

	Close()
}

// Invalidation notifies that the metadata of specific catalog objects
// changed, or that everything must be considered stale when Global is
// set. LSN is the WAL position of the change when known.
type Invalidation struct {
	Keys   []catalog.ObjectKey
	LSN    pglogrepl.LSN
	Global bool
}

// InvalidationHandler receives invalidations and translates them into
// token advances. Token advancement is infallible, so handling cannot
// fail.
type InvalidationHandler interface {
	HandleInvalidation(invalidation Invalidation)
}

// SideChannel is the catalog-lookup collaborator: it supplies raw,
// pinned catalog row images and delivers invalidation notifications.
type SideChannel interface {
	// FetchCatalogRow returns the unique row of the given catalog
	// keyed by oid. A missing row is an error carrying the identity.
	FetchCatalogRow(class catalog.RegClass, oid uint32) (CatalogRow, error)

	// ScanCatalogRows visits every row of the given catalog whose key
	// column matches oid, in stored order (the attribute rows of one
	// relation, for instance). Each row is closed by the scan after
	// the callback returns.
	ScanCatalogRows(class catalog.RegClass, oid uint32, cb func(row CatalogRow) error) error

	// OnInvalidation registers the handler receiving catalog change
	// notifications. Implementations deliver every notification to
	// every registered handler.
	OnInvalidation(handler InvalidationHandler)

	Close() error
}
