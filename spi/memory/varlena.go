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

package memory

import (
	"github.com/go-errors/errors"
)

// Varlena headers, big endian on-disk convention:
//   - short form: single byte with the high bit set, total length
//     (header included) in the low 7 bits
//   - long form: 4-byte word, flag bits in the top two positions,
//     total length (header included) in the low 30 bits
//
// A compressed or toasted value cannot be interpreted here; the caller
// has to detoast before handing the datum over.
const (
	VarlenaHeaderSize      = 4
	VarlenaShortHeaderSize = 1

	varlenaShortBit     = 0x80
	varlenaToastMarker  = 0x80
	varlenaCompressed   = 0x40000000
	varlenaLongLenMask  = 0x3FFFFFFF
	varlenaShortLenMask = 0x7F
)

var (
	ErrVarlenaCompressed = errors.New("varlena value is compressed and cannot be read in place")
	ErrVarlenaToasted    = errors.New("varlena value is a toast pointer and cannot be read in place")
)

// VarlenaTotalSize reads the header at offset and reports the total
// stored size of the value, header included.
func VarlenaTotalSize(
	buffer Buffer, offset int,
) (int, error) {

	first := buffer.Byte(offset)
	if first&varlenaShortBit != 0 {
		if first == varlenaToastMarker {
			return 0, ErrVarlenaToasted
		}
		return int(first & varlenaShortLenMask), nil
	}

	header := buffer.Uint32(offset)
	if header&varlenaCompressed != 0 {
		return 0, ErrVarlenaCompressed
	}
	return int(header & varlenaLongLenMask), nil
}

// VarlenaPayload strips the header at offset and returns the payload
// view plus the total stored size (for advancing a cursor).
func VarlenaPayload(
	buffer Buffer, offset int,
) (Buffer, int, error) {

	total, err := VarlenaTotalSize(buffer, offset)
	if err != nil {
		return Buffer{}, 0, err
	}

	first := buffer.Byte(offset)
	headerSize := VarlenaHeaderSize
	if first&varlenaShortBit != 0 {
		headerSize = VarlenaShortHeaderSize
	}

	if total < headerSize {
		return Buffer{}, 0, errors.Errorf(
			"varlena total size %d smaller than its %d byte header", total, headerSize,
		)
	}
	return buffer.Slice(offset+headerSize, total-headerSize), total, nil
}

// AppendVarlenaHeader prepends the long-form header for a payload of
// the given size, used by writers producing the on-disk form.
func AppendVarlenaHeader(
	buf []byte, payloadSize int,
) []byte {

	total := uint32(payloadSize + VarlenaHeaderSize)
	return append(buf,
		byte(total>>24)&0x3F, byte(total>>16), byte(total>>8), byte(total),
	)
}
