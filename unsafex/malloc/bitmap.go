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

package malloc

import "math/bits"

const wordBits = 64

// bitmap tracks slot state for one bucket, one bit per slot.
// A set bit means the slot is free.
//
// The backing words may cover more bits than the bucket has slots;
// every bit at or beyond the slot count is kept clear (used) so that
// claim never returns an out-of-range slot.
type bitmap []uint64

// bitmapWords returns the number of words needed for slots bits.
func bitmapWords(slots int) int {
	return (slots + wordBits - 1) / wordBits
}

// reset marks slots [0, slots) free and everything after it used.
func (b bitmap) reset(slots int) {
	for i := range b {
		lo := i * wordBits
		switch {
		case lo+wordBits <= slots:
			b[i] = ^uint64(0)
		case lo < slots:
			b[i] = 1<<uint(slots-lo) - 1
		default:
			b[i] = 0
		}
	}
}

// claim marks the lowest free slot used and returns its index.
// Returns false if every slot is used.
func (b bitmap) claim(slots int) (int, bool) {
	for i, w := range b {
		if w == 0 {
			continue // all used
		}
		bit := bits.TrailingZeros64(w)
		idx := i*wordBits + bit
		if idx >= slots {
			return -1, false
		}
		b[i] = w &^ (1 << uint(bit))
		return idx, true
	}
	return -1, false
}

// release marks slot idx free.
// Releasing a slot that is already free is not detected here.
func (b bitmap) release(idx int) {
	b[idx/wordBits] |= 1 << uint(idx%wordBits)
}

// isFree reports whether slot idx is free.
func (b bitmap) isFree(idx int) bool {
	return b[idx/wordBits]&(1<<uint(idx%wordBits)) != 0
}

// allFree reports whether every slot in [0, slots) is free.
func (b bitmap) allFree(slots int) bool {
	full := slots / wordBits
	for i := 0; i < full; i++ {
		if b[i] != ^uint64(0) {
			return false
		}
	}
	if r := slots % wordBits; r != 0 {
		mask := uint64(1)<<uint(r) - 1
		return b[full]&mask == mask
	}
	return true
}

// used returns the number of used slots in [0, slots).
func (b bitmap) used(slots int) int {
	free := 0
	for i, w := range b {
		lo := i * wordBits
		if lo >= slots {
			break
		}
		if lo+wordBits > slots {
			w &= 1<<uint(slots-lo) - 1
		}
		free += bits.OnesCount64(w)
	}
	return slots - free
}
