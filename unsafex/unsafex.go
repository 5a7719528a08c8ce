/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package unsafex views raw memory as Go values without copying.
package unsafex

import "unsafe"

// Bytes returns a []byte of length n aliasing the memory at p.
// Returns nil if p is nil or n is zero.
func Bytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// Memclr zeroes n bytes starting at p.
func Memclr(p unsafe.Pointer, n int) {
	clear(Bytes(p, n))
}

// Memmove copies n bytes from src to dst. The regions may overlap.
func Memmove(dst, src unsafe.Pointer, n int) {
	copy(Bytes(dst, n), Bytes(src, n))
}
