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
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SubId_Sentinel_Never_Equals_Modifiers(t *testing.T) {
	sentinel := NoModifierSubId()
	assert.NotEqual(t, sentinel, ZeroSubId())
	assert.NotEqual(t, sentinel, ModifierSubId(0))
	assert.NotEqual(t, sentinel, ModifierSubId(-1))

	// The sentinel's numeric value must not collide with an explicit
	// modifier that happens to share it.
	assert.Equal(t, sentinel.Value(), ModifierSubId(0).Value())
	assert.NotEqual(t, sentinel, ModifierSubId(sentinel.Value()))
}

func Test_SubId_Predicates(t *testing.T) {
	assert.True(t, NoModifierSubId().IsNoModifier())
	assert.False(t, NoModifierSubId().IsModifier())
	assert.True(t, ModifierSubId(7).IsModifier())
	assert.Equal(t, int32(7), ModifierSubId(7).Value())
	assert.False(t, ZeroSubId().IsModifier())
	assert.False(t, ZeroSubId().IsNoModifier())
}

func Test_ObjectKey_Equality_Is_Componentwise(t *testing.T) {
	base := NewObjectKey(TypeClass, 23)
	assert.Equal(t, base, NewObjectKey(TypeClass, 23))
	assert.NotEqual(t, base, NewObjectKey(ClassClass, 23))
	assert.NotEqual(t, base, NewObjectKey(TypeClass, 25))
	assert.NotEqual(t, base, base.WithSubId(ModifierSubId(4)))

	// Keys are valid map keys; distinct identities stay distinct.
	seen := map[ObjectKey]int{
		base:                                1,
		base.WithSubId(NoModifierSubId()):   2,
		base.WithSubId(ModifierSubId(0)):    3,
		NewObjectKey(AttributeClass, 23):    4,
		NewObjectKey(TypeClass, 23).WithSubId(ModifierSubId(1)): 5,
	}
	assert.Len(t, seen, 5)
}

func Test_ObjectKey_String(t *testing.T) {
	key := NewObjectKey(TypeClass, 1700).WithSubId(ModifierSubId(327686))
	assert.Equal(t, "pg_type/1700/mod(327686)", key.String())
	assert.Equal(t, "pg_class/16384/0", NewObjectKey(ClassClass, 16384).String())
	assert.Equal(t, "pg_type/25/nomod",
		NewObjectKey(TypeClass, 25).WithSubId(NoModifierSubId()).String())
}
