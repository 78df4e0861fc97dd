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
	"sync/atomic"

	"github.com/varlenahq/pg-datum-marshal/internal/containers"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// blessedRegistry holds the runtime-registered row shapes addressed
// through RECORD plus a modifier. Registrations only ever grow; a
// modifier, once handed out, names the same layout for the process
// lifetime.
type blessedRegistry struct {
	layouts *containers.CasCache[int32, *pgtypes.RowLayout]
	next    atomic.Int32
}

func newBlessedRegistry() *blessedRegistry {
	return &blessedRegistry{
		layouts: containers.NewCasCache[int32, *pgtypes.RowLayout](),
	}
}

func (br *blessedRegistry) register(
	layout *pgtypes.RowLayout,
) int32 {

	modifier := br.next.Add(1) - 1
	br.layouts.Set(modifier, layout)
	return modifier
}

func (br *blessedRegistry) install(
	modifier int32, layout *pgtypes.RowLayout,
) {

	br.layouts.Set(modifier, layout)
	for {
		known := br.next.Load()
		if modifier < known {
			return
		}
		if br.next.CompareAndSwap(known, modifier+1) {
			return
		}
	}
}

func (br *blessedRegistry) lookup(
	modifier int32,
) (*pgtypes.RowLayout, bool) {

	return br.layouts.Get(modifier)
}
