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
	"sync/atomic"

	"github.com/varlenahq/pg-datum-marshal/internal/functional"
)

// Computation produces a slot value. Returning cacheable=false opts
// out of memoization for this call only, for values whose absence is
// inherently transient (a row layout may be registered later under the
// same identity, so absence now must not stick).
type Computation[T any] func() (value T, cacheable bool, err error)

// Cached adapts an always-cacheable producer to a Computation.
func Cached[T any](
	produce func() (T, error),
) Computation[T] {

	return func() (T, bool, error) {
		value, err := produce()
		return value, true, err
	}
}

type slotCell[T any] struct {
	value T
	stamp Stamp
}

// Slot is a per-object, per-attribute memoization cell bound to one
// revocation token. The {value, stamp} pair is published through a
// single atomic pointer swap, never mutated in place, so any reader
// observes both or neither.
type Slot[T any] struct {
	token *RevocationToken
	cell  atomic.Pointer[slotCell[T]]
}

func NewSlot[T any](
	token *RevocationToken,
) *Slot[T] {

	return &Slot[T]{
		token: token,
	}
}

// Get returns the memoized value when the bound stamp still matches
// the live token, otherwise recomputes and rebinds. The stamp is read
// before the computation runs; a token advanced mid-computation makes
// the next read recompute again.
func (s *Slot[T]) Get(
	compute Computation[T],
) (T, error) {

	live := s.token.Stamp()
	if cell := s.cell.Load(); cell != nil && cell.stamp == live {
		return cell.value, nil
	}

	value, cacheable, err := compute()
	if err != nil {
		return functional.Zero[T](), err
	}

	if cacheable {
		s.cell.Store(&slotCell[T]{
			value: value,
			stamp: live,
		})
	}
	return value, nil
}

// Peek reports the memoized value without computing, and whether it is
// still bound to the live token.
func (s *Slot[T]) Peek() (T, bool) {
	cell := s.cell.Load()
	if cell == nil || cell.stamp != s.token.Stamp() {
		return functional.Zero[T](), false
	}
	return cell.value, true
}

// Token exposes the slot's invalidation domain.
func (s *Slot[T]) Token() *RevocationToken {
	return s.token
}
