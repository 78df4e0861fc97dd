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

package typemanager

// handshake is the scoped in-progress marker between a composite type
// and its backing relation. A row type and its relation reference each
// other; a composite layout resolution publishes both ends of the link
// before descending into the relation, so the relation's own row type
// resolution (run while stamping the layout) picks the originator up
// instead of fetching the linking pg_class tuple again.
//
// The marker lives only for the dynamic extent of one resolver call on
// the manager's single logical worker. Correctness never depends on a
// hit; a miss falls through to the ordinary fetch path.
type handshake struct {
	typ *typeObject
	rel *relationObject

	// The pg_type oid and pg_class oid of the linked pair, known to the
	// originator before the peer resolution starts.
	typeOid     uint32
	relationOid uint32
}

// beginHandshake installs the marker and returns the restore function.
// Markers nest; each restore reinstates the previous one.
func (tm *TypeManager) beginHandshake(
	h *handshake,
) func() {

	previous := tm.handshake
	tm.handshake = h
	return func() {
		tm.handshake = previous
	}
}
