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

// The date and time adapters are pure reinterpretations of the stored
// bytes. No timezone database lookup happens here; the zoned timestamp
// variant stores the identical representation as the plain one.

// DateAdapter decodes the 4-byte day count since the Postgres epoch.
type DateAdapter struct {
	baseAdapter
}

func NewDateAdapter() *DateAdapter {
	return &DateAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.DateOID),
	}
}

func (a *DateAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return pgtypes.Date{
		Days: buffer.Int32(0),
	}, nil
}

// TimeAdapter decodes the 8-byte microsecond count since midnight.
type TimeAdapter struct {
	baseAdapter
}

func NewTimeAdapter() *TimeAdapter {
	return &TimeAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.TimeOID),
	}
}

func (a *TimeAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return pgtypes.Time{
		Microseconds: buffer.Int64(0),
	}, nil
}

// TimetzAdapter decodes the microsecond count plus the stored UTC
// offset in seconds.
type TimetzAdapter struct {
	baseAdapter
}

func NewTimetzAdapter() *TimetzAdapter {
	return &TimetzAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtypes.TimeTZOID),
	}
}

func (a *TimetzAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return pgtypes.Timetz{
		Microseconds:  buffer.Int64(0),
		OffsetSeconds: buffer.Int32(8),
	}, nil
}

// TimestampAdapter decodes the 8-byte microsecond count since the
// Postgres epoch, used verbatim for both timestamp variants.
type TimestampAdapter struct {
	baseAdapter
}

func NewTimestampAdapter() *TimestampAdapter {
	return &TimestampAdapter{
		baseAdapter: newBaseAdapter(
			pgtypes.AccessReference, pgtype.TimestampOID, pgtype.TimestamptzOID,
		),
	}
}

func (a *TimestampAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return pgtypes.Timestamp{
		Microseconds: buffer.Int64(0),
	}, nil
}

// IntervalAdapter decodes the microsecond, day and month fields in
// their stored order.
type IntervalAdapter struct {
	baseAdapter
}

func NewIntervalAdapter() *IntervalAdapter {
	return &IntervalAdapter{
		baseAdapter: newBaseAdapter(pgtypes.AccessReference, pgtype.IntervalOID),
	}
}

func (a *IntervalAdapter) Decode(
	buffer memory.Buffer, _ pgtypes.TypeDescriptor,
) (any, error) {

	return pgtype.Interval{
		Microseconds: buffer.Int64(0),
		Days:         buffer.Int32(8),
		Months:       buffer.Int32(12),
		Valid:        true,
	}, nil
}
