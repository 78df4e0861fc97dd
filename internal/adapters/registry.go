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

package adapters

import (
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// NewDefaultRegistry assembles the built-in adapters in priority
// order: width-specific scalars and specialized decoders first, the
// generic array fallback last so element-specific array adapters can
// shadow it.
func NewDefaultRegistry(
	resolve pgtypes.TypeResolver,
) *pgtypes.AdapterRegistry {

	registry := pgtypes.NewAdapterRegistry()

	registry.Register(NewBoolAdapter())
	registry.Register(NewCharAdapter())
	registry.Register(NewInt2Adapter())
	registry.Register(NewInt4Adapter())
	registry.Register(NewInt8Adapter())
	registry.Register(NewFloat4Adapter())
	registry.Register(NewFloat8Adapter())

	registry.Register(NewOidAdapter())
	registry.Register(NewXid8Adapter())
	registry.Register(NewTidAdapter())

	registry.Register(NewDateAdapter())
	registry.Register(NewTimeAdapter())
	registry.Register(NewTimetzAdapter())
	registry.Register(NewTimestampAdapter())
	registry.Register(NewIntervalAdapter())

	registry.Register(NewNumericAdapter(PgxNumericFactory))
	registry.Register(NewUuidAdapter())
	registry.Register(NewTextAdapter())
	registry.Register(NewByteaAdapter())

	// Generic array support for every element adapter above.
	for _, element := range []pgtypes.Adapter{
		NewBoolAdapter(),
		NewInt2Adapter(),
		NewInt4Adapter(),
		NewInt8Adapter(),
		NewFloat4Adapter(),
		NewFloat8Adapter(),
		NewOidAdapter(),
		NewDateAdapter(),
		NewTimeAdapter(),
		NewTimestampAdapter(),
		NewIntervalAdapter(),
		NewNumericAdapter(PgxNumericFactory),
		NewUuidAdapter(),
		NewTextAdapter(),
	} {
		registry.Register(NewArrayAdapter(element, resolve))
	}

	return registry
}
