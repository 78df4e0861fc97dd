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
	"fmt"

	"github.com/hashicorp/go-uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// TextAdapter decodes the text family into strings. The buffer is the
// varlena payload, header already stripped.
type TextAdapter struct {
	baseAdapter
}

func NewTextAdapter() *TextAdapter {
	return &TextAdapter{
		baseAdapter: newBaseAdapter(
			pgtypes.AccessReference,
			pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID,
		),
	}
}

func (a *TextAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return string(buffer.Bytes(0, buffer.Length())), nil
}

// ByteaAdapter decodes bytea payloads into caller-owned byte slices.
type ByteaAdapter struct {
	baseAdapter
}

func NewByteaAdapter() *ByteaAdapter {
	return &ByteaAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.ByteaOID),
	}
}

func (a *ByteaAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return buffer.Bytes(0, buffer.Length()), nil
}

// UuidAdapter decodes the fixed 16-byte uuid payload into its
// canonical textual form.
type UuidAdapter struct {
	baseAdapter
}

func NewUuidAdapter() *UuidAdapter {
	return &UuidAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.UUIDOID),
	}
}

func (a *UuidAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	if buffer.Length() != 16 {
		return nil, pgtypes.NewDecodeError(
			"uuid", "16 byte payload", fmt.Sprintf("%d bytes", buffer.Length()),
		)
	}
	return uuid.FormatUUID(buffer.Bytes(0, 16))
}
