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

package pgtypes

import (
	"fmt"
	"math"
	"time"
)

// PostgresEpoch is day zero of the date and timestamp encodings.
var PostgresEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Date is a day count since the Postgres epoch.
type Date struct {
	Days int32
}

func (d Date) Time() time.Time {
	return PostgresEpoch.AddDate(0, 0, int(d.Days))
}

func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}

// Time is a microsecond count since midnight.
type Time struct {
	Microseconds int64
}

func (t Time) String() string {
	remaining := t.Microseconds * int64(time.Microsecond)
	hours := remaining / int64(time.Hour)
	remaining = remaining % int64(time.Hour)
	minutes := remaining / int64(time.Minute)
	remaining = remaining % int64(time.Minute)
	seconds := remaining / int64(time.Second)
	remaining = remaining % int64(time.Second)
	return fmt.Sprintf(
		"%02d:%02d:%02d.%06d", hours, minutes, seconds,
		(time.Nanosecond * time.Duration(remaining)).Microseconds(),
	)
}

// Timetz carries the microsecond count plus the zone offset in seconds
// west of UTC, exactly as stored. No timezone database is consulted.
type Timetz struct {
	Microseconds  int64
	OffsetSeconds int32
}

// Timestamp is a microsecond count since the Postgres epoch, used for
// both the plain and the zoned variant (the zone is session-derived,
// not stored).
type Timestamp struct {
	Microseconds int64
}

const (
	timestampPositiveInfinity = math.MaxInt64
	timestampNegativeInfinity = math.MinInt64
)

func (ts Timestamp) IsPositiveInfinity() bool {
	return ts.Microseconds == timestampPositiveInfinity
}

func (ts Timestamp) IsNegativeInfinity() bool {
	return ts.Microseconds == timestampNegativeInfinity
}

func (ts Timestamp) Time() time.Time {
	return PostgresEpoch.Add(time.Duration(ts.Microseconds) * time.Microsecond)
}

// NumericKind distinguishes the special cases a numeric header can
// select.
type NumericKind uint8

const (
	NumericFinite NumericKind = iota
	NumericNaN
	NumericPositiveInfinity
	NumericNegativeInfinity
)

func (k NumericKind) String() string {
	switch k {
	case NumericFinite:
		return "finite"
	case NumericNaN:
		return "NaN"
	case NumericPositiveInfinity:
		return "+Infinity"
	case NumericNegativeInfinity:
		return "-Infinity"
	}
	return "unknown"
}

// NumericParts is the faithful reproduction of a decoded numeric
// header plus its base-10000 digit groups. No arithmetic has been
// performed on it.
type NumericParts struct {
	Kind         NumericKind
	Negative     bool
	Weight       int16
	DisplayScale int16
	Digits       []int16
}

// NumericFactory materializes a host value from decoded parts, chosen
// by the caller at adapter construction time.
type NumericFactory func(parts NumericParts) (any, error)
