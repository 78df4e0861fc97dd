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

package catalog

import (
	"fmt"
)

// RegClass names the catalog a row lives in, by the oid of the catalog
// relation itself.
type RegClass uint32

const (
	TypeClass      RegClass = 1247
	AttributeClass RegClass = 1249
	ProcClass      RegClass = 1255
	ClassClass     RegClass = 1259
	NamespaceClass RegClass = 2615
)

func (rc RegClass) String() string {
	switch rc {
	case TypeClass:
		return "pg_type"
	case AttributeClass:
		return "pg_attribute"
	case ProcClass:
		return "pg_proc"
	case ClassClass:
		return "pg_class"
	case NamespaceClass:
		return "pg_namespace"
	}
	return fmt.Sprintf("regclass(%d)", uint32(rc))
}

// SubIdKind keeps the "no modifier" sentinel apart from explicit
// sub-ids, so collisions on the numeric value are impossible.
type subIdKind uint8

const (
	subIdPlain subIdKind = iota
	subIdModifier
	subIdNoModifier
)

// SubId is the third component of an object identity. It is normally
// zero, but for parameterized types it carries the type modifier, and
// for modifier-less types the distinguished "no modifier" state.
type SubId struct {
	kind  subIdKind
	value int32
}

func ZeroSubId() SubId {
	return SubId{}
}

func ModifierSubId(value int32) SubId {
	return SubId{kind: subIdModifier, value: value}
}

func NoModifierSubId() SubId {
	return SubId{kind: subIdNoModifier}
}

func (s SubId) IsModifier() bool {
	return s.kind == subIdModifier
}

func (s SubId) IsNoModifier() bool {
	return s.kind == subIdNoModifier
}

func (s SubId) Value() int32 {
	return s.value
}

func (s SubId) String() string {
	switch s.kind {
	case subIdModifier:
		return fmt.Sprintf("mod(%d)", s.value)
	case subIdNoModifier:
		return "nomod"
	}
	return fmt.Sprintf("%d", s.value)
}

// ObjectKey is the identity triple. Two keys are equal iff all
// components match; keys map one-to-one onto interned singletons for
// the process lifetime.
type ObjectKey struct {
	Class RegClass
	Oid   uint32
	SubId SubId
}

func NewObjectKey(
	class RegClass, oid uint32,
) ObjectKey {

	return ObjectKey{
		Class: class,
		Oid:   oid,
		SubId: ZeroSubId(),
	}
}

func (k ObjectKey) WithSubId(
	subId SubId,
) ObjectKey {

	k.SubId = subId
	return k
}

func (k ObjectKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Class, k.Oid, k.SubId)
}
