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
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
)

// AccessKind tags the host category an adapter produces. It is a
// static capability descriptor used by callers to bind the matching
// decode routine; dispatch at decode time is not polymorphic on it.
type AccessKind uint8

const (
	AccessReference AccessKind = iota
	AccessInt8
	AccessInt16
	AccessInt32
	AccessInt64
	AccessUint32
	AccessUint64
	AccessFloat32
	AccessFloat64
	AccessBoolean
	AccessChar
)

// Accessor is the static shape descriptor built by Configure.
type Accessor struct {
	kind        AccessKind
	width       int
	byReference bool
}

// Configure derives the accessor shape for a result kind.
func Configure(
	kind AccessKind,
) Accessor {

	switch kind {
	case AccessReference:
		return Accessor{kind: kind, width: -1, byReference: true}
	case AccessInt8, AccessBoolean, AccessChar:
		return Accessor{kind: kind, width: 1}
	case AccessInt16:
		return Accessor{kind: kind, width: 2}
	case AccessInt32, AccessUint32, AccessFloat32:
		return Accessor{kind: kind, width: 4}
	case AccessInt64, AccessUint64, AccessFloat64:
		return Accessor{kind: kind, width: 8}
	}
	panic("pgtypes: unknown access kind")
}

func (a Accessor) Kind() AccessKind {
	return a.kind
}

// Width is the fixed byte width of the produced value, -1 for
// reference-typed results.
func (a Accessor) Width() int {
	return a.width
}

func (a Accessor) ByReference() bool {
	return a.byReference
}

// Adapter is a decoding strategy. CanFetch decides applicability;
// invoking any decode routine on a descriptor CanFetch rejected is a
// bug in the calling layer. A false CanFetch means "try a different
// adapter", never an error.
type Adapter interface {
	Accessor() Accessor
	CanFetch(td TypeDescriptor) bool
}

// Narrow decode contracts, one per result category. Each concrete
// adapter hard-codes exactly one of these signatures.

type ReferenceAdapter interface {
	Adapter
	Decode(buffer memory.Buffer, td TypeDescriptor) (any, error)
}

type Int8Adapter interface {
	Adapter
	DecodeInt8(buffer memory.Buffer) int8
}

type Int16Adapter interface {
	Adapter
	DecodeInt16(buffer memory.Buffer) int16
}

type Int32Adapter interface {
	Adapter
	DecodeInt32(buffer memory.Buffer) int32
}

type Int64Adapter interface {
	Adapter
	DecodeInt64(buffer memory.Buffer) int64
}

type Uint32Adapter interface {
	Adapter
	DecodeUint32(buffer memory.Buffer) uint32
}

type Uint64Adapter interface {
	Adapter
	DecodeUint64(buffer memory.Buffer) uint64
}

type Float32Adapter interface {
	Adapter
	DecodeFloat32(buffer memory.Buffer) float32
}

type Float64Adapter interface {
	Adapter
	DecodeFloat64(buffer memory.Buffer) float64
}

type BooleanAdapter interface {
	Adapter
	DecodeBoolean(buffer memory.Buffer) bool
}

type CharAdapter interface {
	Adapter
	DecodeChar(buffer memory.Buffer) byte
}
