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

	"github.com/jackc/pglogrepl"
)

// Stamp is the value of a revocation token at a point in time. A slot
// computed under stamp S stays valid for readers until the token moves
// past S.
type Stamp uint64

// RevocationToken is the sole invalidation primitive of one
// invalidation domain. Advancing it is an infallible, single atomic
// publication; it never recomputes anything eagerly, it only makes the
// next read of every bound slot recompute.
type RevocationToken struct {
	stamp atomic.Uint64
	lsn   atomic.Uint64
}

func NewRevocationToken() *RevocationToken {
	return &RevocationToken{}
}

func (t *RevocationToken) Stamp() Stamp {
	return Stamp(t.stamp.Load())
}

// Advance moves the token, optionally recording the WAL position of
// the catalog change that triggered it.
func (t *RevocationToken) Advance(
	lsn pglogrepl.LSN,
) {

	if lsn != 0 {
		t.lsn.Store(uint64(lsn))
	}
	t.stamp.Add(1)
}

// LastChange reports the WAL position recorded by the most recent
// advancement, zero if none carried one.
func (t *RevocationToken) LastChange() pglogrepl.LSN {
	return pglogrepl.LSN(t.lsn.Load())
}
