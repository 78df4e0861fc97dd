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

package catalogstore

import (
	"hash/crc32"
)

// Catalog snapshot file layout, all integers big endian:
//
//	magic uint32, version uint32
//	class blocks, each snappy compressed
//	index (uncompressed):
//	    classCount uint32
//	    per class: classOid uint32, blockOffset uint64,
//	               compressedLength uint32, rawLength uint32
//	trailer (final 16 bytes):
//	    indexOffset uint64, checksum uint32, magic uint32
//
// The checksum covers everything before the trailer. A raw class block
// starts with the class oid and column schema, followed by rows of
// length-prefixed datums:
//
//	classOid uint32
//	columnCount uint16, per column: nameLength uint16, name bytes
//	rowCount uint32
//	per row: keyOid uint32,
//	         per column: nullFlag byte, then length uint32 + bytes
//	         when present
//
// Varlena datums are stored with their generic header already
// stripped, matching what CatalogRow.Datum hands out.
const (
	snapshotMagic   uint32 = 0x50474353
	snapshotVersion uint32 = 1

	trailerSize = 16

	datumPresent byte = 0
	datumNull    byte = 1
)

var checksumTable = crc32.MakeTable(crc32.Castagnoli)

func checksum(data []byte) uint32 {
	return crc32.Checksum(data, checksumTable)
}

// indexEntry locates one compressed class block inside the file.
type indexEntry struct {
	classOid         uint32
	blockOffset      uint64
	compressedLength uint32
	rawLength        uint32
}
