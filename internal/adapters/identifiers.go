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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// OidAdapter decodes oid, and the 4-byte command and transaction
// identifiers sharing its unsigned representation.
type OidAdapter struct {
	baseAdapter
}

func NewOidAdapter() *OidAdapter {
	return &OidAdapter{
		baseAdapter: newBaseAdapter(
			pgtypes.AccessUint32, pgtype.OIDOID, pgtype.XIDOID, pgtype.CIDOID,
		),
	}
}

func (a *OidAdapter) DecodeUint32(
	buffer memory.Buffer,
) uint32 {

	return buffer.Uint32(0)
}

// Xid8Adapter decodes the 64-bit transaction identifier.
type Xid8Adapter struct {
	baseAdapter
}

func NewXid8Adapter() *Xid8Adapter {
	return &Xid8Adapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessUint64, pgtypes.Xid8OID),
	}
}

func (a *Xid8Adapter) DecodeUint64(
	buffer memory.Buffer,
) uint64 {

	return buffer.Uint64(0)
}

// TidAdapter decodes the compound row identifier: a 4-byte block
// number followed by a 2-byte offset number. Tid payloads are only
// guaranteed 2-byte alignment, which offset-based buffer reads
// tolerate by construction.
type TidAdapter struct {
	baseAdapter
}

func NewTidAdapter() *TidAdapter {
	return &TidAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.TIDOID),
	}
}

func (a *TidAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return pgtype.TID{
		BlockNumber:  buffer.Uint32(0),
		OffsetNumber: buffer.Uint16(4),
		Valid:        true,
	}, nil
}
