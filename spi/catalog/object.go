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

// Object is an interned catalog singleton. Its identity never changes;
// the attribute cells behind Attribute are the only mutable part, and
// they mutate solely through recomputation after token advancement.
type Object interface {
	Key() ObjectKey

	// Token is the object's own invalidation domain, covering its
	// tuple and layout data. Attributes in the shared global domain
	// are bound to the global token instead.
	Token() *RevocationToken

	// Attribute returns a lazily computed, memoized attribute by
	// name. Unknown names are an error.
	Attribute(name string) (any, error)
}
