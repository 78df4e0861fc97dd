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
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
	"github.com/varlenahq/pg-datum-marshal/spi/pgtypes"
)

// Numeric header bit layout, stored form:
//
//	special  hdr & 0xC000 == 0xC000; 0xC000 NaN, 0xD000 +Inf, 0xF000 -Inf
//	short    hdr & 0x8000 != 0; sign bit 13, display scale bits 7-12,
//	         weight bits 0-6 seven-bit sign-extended
//	long     sign bit 14, display scale bits 0-13, weight in a
//	         following 2-byte field
//
// Digit groups are 2-byte base-10000 values consumed to the end of the
// buffer. The adapter performs no arithmetic; faithful reproduction of
// the header is its entire contract.
const (
	numericSpecialMask = 0xC000
	numericNaN         = 0xC000
	numericPosInf      = 0xD000
	numericNegInf      = 0xF000

	numericShortBit        = 0x8000
	numericShortSignBit    = 0x2000
	numericShortScaleMask  = 0x1F80
	numericShortScaleShift = 7
	numericShortWeightMask = 0x007F

	numericLongSignBit   = 0x4000
	numericLongScaleMask = 0x3FFF
)

// NumericAdapter decodes the stored numeric representation and hands
// the raw parts to the configured factory.
type NumericAdapter struct {
	baseAdapter
	factory pgtypes.NumericFactory
}

func NewNumericAdapter(
	factory pgtypes.NumericFactory,
) *NumericAdapter {

	if factory == nil {
		factory = NumericPartsFactory
	}
	return &NumericAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.NumericOID),
		factory:     factory,
	}
}

func (a *NumericAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	header := buffer.Uint16(0)

	if header&numericSpecialMask == numericSpecialMask {
		// Special cases carry no digits; trailing bytes are ignored.
		switch header & 0xF000 {
		case numericNaN:
			return a.factory(pgtypes.NumericParts{Kind: pgtypes.NumericNaN, Digits: []int16{}})
		case numericPosInf:
			return a.factory(pgtypes.NumericParts{Kind: pgtypes.NumericPositiveInfinity, Digits: []int16{}})
		case numericNegInf:
			return a.factory(pgtypes.NumericParts{Kind: pgtypes.NumericNegativeInfinity, Digits: []int16{}})
		}
		return nil, pgtypes.NewDecodeError(
			"numeric", "special-case nibble C, D or F",
			fmt.Sprintf("header 0x%04X", header),
		)
	}

	var negative bool
	var weight, scale int16
	digitsStart := 2

	if header&numericShortBit != 0 {
		negative = header&numericShortSignBit != 0
		scale = int16((header & numericShortScaleMask) >> numericShortScaleShift)
		weight = int16(header & numericShortWeightMask)
		if weight >= 0x40 {
			weight -= 0x80
		}
	} else {
		negative = header&numericLongSignBit != 0
		scale = int16(header & numericLongScaleMask)
		weight = buffer.Int16(2)
		digitsStart = 4
	}

	remaining := buffer.Length() - digitsStart
	if remaining%2 != 0 {
		return nil, pgtypes.NewDecodeError(
			"numeric", "whole 2-byte digit groups",
			fmt.Sprintf("%d trailing bytes", remaining),
		)
	}

	digits := make([]int16, remaining/2)
	for i := range digits {
		digits[i] = buffer.Int16(digitsStart + i*2)
	}

	return a.factory(pgtypes.NumericParts{
		Kind:         pgtypes.NumericFinite,
		Negative:     negative,
		Weight:       weight,
		DisplayScale: scale,
		Digits:       digits,
	})
}

// NumericPartsFactory passes the decoded parts through untouched.
func NumericPartsFactory(
	parts pgtypes.NumericParts,
) (any, error) {

	return parts, nil
}

// PgxNumericFactory materializes pgtype.Numeric values, accumulating
// the base-10000 digit groups into a big integer on the caller's side
// of the decode contract.
func PgxNumericFactory(
	parts pgtypes.NumericParts,
) (any, error) {

	switch parts.Kind {
	case pgtypes.NumericNaN:
		return pgtype.Numeric{NaN: true, Valid: true}, nil
	case pgtypes.NumericPositiveInfinity:
		return pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, nil
	case pgtypes.NumericNegativeInfinity:
		return pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, nil
	}

	accumulated := new(big.Int)
	base := big.NewInt(10000)
	group := new(big.Int)
	for _, digit := range parts.Digits {
		accumulated.Mul(accumulated, base)
		group.SetInt64(int64(digit))
		accumulated.Add(accumulated, group)
	}
	if parts.Negative {
		accumulated.Neg(accumulated)
	}

	exp := (int32(parts.Weight) + 1 - int32(len(parts.Digits))) * 4
	return pgtype.Numeric{
		Int:   accumulated,
		Exp:   exp,
		Valid: true,
	}, nil
}
