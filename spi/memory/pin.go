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

package memory

import (
	"sync/atomic"
)

// Pin fixes a block of foreign memory in place for the duration of a
// scope. Every Buffer handed out under a pin becomes unusable once the
// pin is released; reading through a released pin is a bug in the
// calling code and panics.
//
// Unpin is idempotent so it can sit in a defer next to early releases.
type Pin struct {
	released atomic.Bool
	release  func()
}

// NewPin wraps an optional release callback. The callback runs exactly
// once, on the first Unpin.
func NewPin(
	release func(),
) *Pin {

	return &Pin{
		release: release,
	}
}

func (p *Pin) Unpin() {
	if p == nil {
		return
	}
	if p.released.CompareAndSwap(false, true) {
		if p.release != nil {
			p.release()
		}
	}
}

func (p *Pin) Held() bool {
	return p != nil && !p.released.Load()
}

func (p *Pin) ensureHeld() {
	if p != nil && p.released.Load() {
		panic("memory: access to buffer after pin release")
	}
}

// Pinned couples a pin with the buffer it guards, the common return
// shape of fetch operations.
type Pinned struct {
	pin    *Pin
	buffer Buffer
}

func NewPinned(
	pin *Pin, buffer Buffer,
) Pinned {

	return Pinned{
		pin:    pin,
		buffer: buffer,
	}
}

func (p Pinned) Buffer() Buffer {
	return p.buffer
}

func (p Pinned) Unpin() {
	p.pin.Unpin()
}
