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

import (
	"unsafe"

	"github.com/cloudwego/bmalloc/pagemap"
)

// noMeta terminates the master list, sibling chains and the vacant list.
const noMeta int32 = -1

// bucketMeta describes one mapped bucket.
//
// Records are linked by index in two independent orders:
// next is the master list (creation order, all buckets) and
// sibling is the chain of buckets sharing slotSize.
// Both orders agree: the first record of a size class in the master
// list is the head of its sibling chain.
type bucketMeta struct {
	mem  []byte  // nil when the record is vacant
	base uintptr // address of mem[0]

	next    int32
	sibling int32

	slotSize uintptr
	slots    int
	free     bitmap
}

// slotAddr returns the address of slot i.
func (m *bucketMeta) slotAddr(i int) uintptr {
	return m.base + uintptr(i)*m.slotSize
}

func (m *bucketMeta) slotPtr(i int) unsafe.Pointer {
	return unsafe.Pointer(&m.mem[uintptr(i)*m.slotSize])
}

// registry owns every bucketMeta.
//
// Records live in fixed-size chunks that are never moved or freed.
// A chunk plays the role of a metadata page: it holds as many records
// (bitmaps included) as fit in one page.
type registry struct {
	chunks   [][]bucketMeta
	perChunk int
	words    int // bitmap words per record

	cursor int32 // records handed out from chunks so far
	head   int32 // first record of the master list
	tail   int32 // last record of the master list
	vacant int32 // retired records, linked through next

	buckets int
	nvacant int
}

func newRegistry(pageSize int) registry {
	words := bitmapWords(pageSize / Alignment)
	footprint := int(unsafe.Sizeof(bucketMeta{})) + words*8
	per := pageSize / footprint
	if per < 1 {
		per = 1
	}
	return registry{
		perChunk: per,
		words:    words,
		head:     noMeta,
		tail:     noMeta,
		vacant:   noMeta,
	}
}

func (r *registry) at(i int32) *bucketMeta {
	return &r.chunks[int(i)/r.perChunk][int(i)%r.perChunk]
}

// grow adds one chunk of records.
func (r *registry) grow() {
	recs := make([]bucketMeta, r.perChunk)
	words := make([]uint64, r.perChunk*r.words)
	for i := range recs {
		recs[i].free = words[i*r.words : (i+1)*r.words : (i+1)*r.words]
		recs[i].next = noMeta
		recs[i].sibling = noMeta
	}
	r.chunks = append(r.chunks, recs)
}

// take returns an unused record, recycling retired ones first.
func (r *registry) take() int32 {
	if r.vacant != noMeta {
		i := r.vacant
		r.vacant = r.at(i).next
		r.nvacant--
		return i
	}
	if int(r.cursor) == len(r.chunks)*r.perChunk {
		r.grow()
	}
	i := r.cursor
	r.cursor++
	return i
}

// retire puts record i on the vacant list.
func (r *registry) retire(i int32) {
	m := r.at(i)
	m.mem = nil
	m.base = 0
	m.slotSize = 0
	m.slots = 0
	m.sibling = noMeta
	m.next = r.vacant
	r.vacant = i
	r.nvacant++
}

// link appends record i to the master list and, if lastSibling is
// known, to the end of its sibling chain.
func (r *registry) link(i, lastSibling int32) {
	m := r.at(i)
	m.next = noMeta
	m.sibling = noMeta
	if r.tail == noMeta {
		r.head = i
	} else {
		r.at(r.tail).next = i
	}
	r.tail = i
	if lastSibling != noMeta {
		r.at(lastSibling).sibling = i
	}
	r.buckets++
}

// unlink removes record i from the master list and its sibling chain.
// prev is i's predecessor in the master list, or noMeta if i is the head.
func (r *registry) unlink(i, prev int32) {
	m := r.at(i)

	// A record heading its sibling chain needs no fixup: the next
	// sibling becomes the first of its size class in the master list.
	if h := r.classHead(m.slotSize); h != i {
		for s := h; s != noMeta; s = r.at(s).sibling {
			if sm := r.at(s); sm.sibling == i {
				sm.sibling = m.sibling
				break
			}
		}
	}

	if prev == noMeta {
		r.head = m.next
	} else {
		r.at(prev).next = m.next
	}
	if r.tail == i {
		r.tail = prev
	}
	m.next = noMeta
	m.sibling = noMeta
	r.buckets--
}

// classHead returns the first record in the master list whose slot
// size is slotSize, which is also the head of that sibling chain.
func (r *registry) classHead(slotSize uintptr) int32 {
	for i := r.head; i != noMeta; i = r.at(i).next {
		if r.at(i).slotSize == slotSize {
			return i
		}
	}
	return noMeta
}

// find returns the record whose bucket contains addr, its master list
// predecessor and the slot index addr falls in.
// Returns noMeta if addr does not belong to any bucket.
func (r *registry) find(addr uintptr, pageSize int) (idx, prev int32, slot int) {
	page := pagemap.PageFloor(addr, pageSize)
	prev = noMeta
	for i := r.head; i != noMeta; prev, i = i, r.at(i).next {
		m := r.at(i)
		if m.base != page {
			continue
		}
		slot = int((addr - m.base) / m.slotSize)
		if slot >= m.slots {
			// tail slack past the last slot
			return noMeta, noMeta, 0
		}
		return i, prev, slot
	}
	return noMeta, noMeta, 0
}
