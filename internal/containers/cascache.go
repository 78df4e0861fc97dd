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

package containers

import (
	"sync/atomic"

	"github.com/varlenahq/pg-datum-marshal/internal/functional"
)

// CasCache is a copy-on-write map published through a single atomic
// pointer swap. Readers never lock; writers copy, mutate, and exchange.
type CasCache[K comparable, V any] struct {
	mapPtr atomic.Pointer[map[K]V]
}

func NewCasCache[K comparable, V any]() *CasCache[K, V] {
	return &CasCache[K, V]{
		mapPtr: atomic.Pointer[map[K]V]{},
	}
}

func (cc *CasCache[K, V]) Get(
	key K,
) (value V, ok bool) {

	m := cc.mapPtr.Load()
	if m == nil {
		return functional.Zero[V](), false
	}

	value, ok = (*m)[key]
	return
}

func (cc *CasCache[K, V]) Set(
	key K, value V,
) {

	for {
		o := cc.mapPtr.Load()
		n := map[K]V{key: value}

		// Copy data
		if o != nil {
			for k, v := range *o {
				n[k] = v
			}
		}

		// Try exchange
		if cc.mapPtr.CompareAndSwap(o, &n) {
			break
		}
	}
}
