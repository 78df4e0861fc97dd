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
	"sync/atomic"

	"github.com/varlenahq/pg-datum-marshal/spi/catalog"
	"github.com/varlenahq/pg-datum-marshal/spi/sidechannel"
)

// CountingSideChannel wraps a side channel and counts catalog
// accesses, so tests can assert that memoization and the resolution
// handshake actually avoid lookups.
type CountingSideChannel struct {
	inner sidechannel.SideChannel

	fetches atomic.Int64
	scans   atomic.Int64
}

func NewCountingSideChannel(
	inner sidechannel.SideChannel,
) *CountingSideChannel {

	return &CountingSideChannel{
		inner: inner,
	}
}

func (c *CountingSideChannel) Fetches() int64 {
	return c.fetches.Load()
}

func (c *CountingSideChannel) Scans() int64 {
	return c.scans.Load()
}

func (c *CountingSideChannel) Reset() {
	c.fetches.Store(0)
	c.scans.Store(0)
}

func (c *CountingSideChannel) FetchCatalogRow(
	class catalog.RegClass, oid uint32,
) (sidechannel.CatalogRow, error) {

	c.fetches.Add(1)
	return c.inner.FetchCatalogRow(class, oid)
}

func (c *CountingSideChannel) ScanCatalogRows(
	class catalog.RegClass, oid uint32,
	cb func(row sidechannel.CatalogRow) error,
) error {

	c.scans.Add(1)
	return c.inner.ScanCatalogRows(class, oid, cb)
}

func (c *CountingSideChannel) OnInvalidation(
	handler sidechannel.InvalidationHandler,
) {

	c.inner.OnInvalidation(handler)
}

func (c *CountingSideChannel) Close() error {
	return c.inner.Close()
}
