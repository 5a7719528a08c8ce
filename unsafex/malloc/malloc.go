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

// Package malloc implements a bucket allocator over page-granular memory.
//
// Every request is rounded up to Alignment and served from a bucket: one
// mapped region split into equal slots. Buckets of the same slot size form
// a size class. A bitmap per bucket tracks free slots, and a bucket is
// unmapped as soon as its last slot is freed.
//
// Memory handed out by the allocator is not scanned by the garbage
// collector. Do not store the only reference to a Go object in it.
//
// An Allocator is not safe for concurrent use. Wrap it with NewLocked,
// or use the package-level functions, which share one locked instance.
package malloc

import (
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"github.com/cloudwego/bmalloc/pagemap"
	"github.com/cloudwego/bmalloc/unsafex"
)

// Alignment is the boundary every returned pointer satisfies and the
// granularity of slot sizes.
const Alignment = 16

// Interface is the allocation surface shared by Allocator and Locked.
type Interface interface {
	Malloc(size uintptr) unsafe.Pointer
	Calloc(count, size uintptr) unsafe.Pointer
	Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)
	Stats() Stats
}

// Allocator is a bucket allocator. Create it with NewAllocator.
type Allocator struct {
	mapper   pagemap.Mapper
	pageSize int
	maxSize  uintptr
	log      *slog.Logger

	reg   registry
	stats counters
}

var (
	_ Interface = (*Allocator)(nil)
	_ Interface = (*Locked)(nil)
)

// NewAllocator creates an Allocator. A nil opt uses DefaultOption().
// No memory is mapped until the first allocation.
func NewAllocator(opt *Option) (*Allocator, error) {
	def := DefaultOption()
	if opt == nil {
		opt = def
	}
	mapper := opt.Mapper
	if mapper == nil {
		mapper = def.Mapper
	}
	logger := opt.Logger
	if logger == nil {
		logger = def.Logger
	}

	ps := mapper.PageSize()
	if ps < Alignment || ps&(ps-1) != 0 {
		return nil, fmt.Errorf("malloc: page size must be a power of two >= %d, got %d", Alignment, ps)
	}
	return &Allocator{
		mapper:   mapper,
		pageSize: ps,
		maxSize:  uintptr(math.MaxInt) - uintptr(ps),
		log:      logger,
		reg:      newRegistry(ps),
	}, nil
}

// PageSize returns the page size of the underlying Mapper.
func (a *Allocator) PageSize() int {
	return a.pageSize
}

// SlotSize returns the slot size a request of size bytes is served from.
func SlotSize(size uintptr) uintptr {
	if size == 0 {
		return Alignment
	}
	return pagemap.RoundUp(size, Alignment)
}

// Malloc returns a pointer to at least size bytes, or nil if no memory
// could be mapped. Malloc(0) returns a distinct minimal block.
func (a *Allocator) Malloc(size uintptr) unsafe.Pointer {
	p, _ := a.Alloc(size)
	return p
}

// Alloc is like Malloc but reports why an allocation failed.
func (a *Allocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size > a.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, size)
	}
	slotSize := SlotSize(size)

	// Empty registry: nothing to search.
	if a.reg.head == noMeta {
		return a.allocFresh(slotSize, noMeta)
	}

	last := noMeta
	for i := a.reg.classHead(slotSize); i != noMeta; i = a.reg.at(i).sibling {
		m := a.reg.at(i)
		if slot, ok := m.free.claim(m.slots); ok {
			a.stats.inUse++
			return m.slotPtr(slot), nil
		}
		last = i
	}
	return a.allocFresh(slotSize, last)
}

// allocFresh maps a new bucket for slotSize, links it after lastSibling
// and returns its first slot.
func (a *Allocator) allocFresh(slotSize uintptr, lastSibling int32) (unsafe.Pointer, error) {
	i, err := a.createBucket(slotSize, lastSibling)
	if err != nil {
		return nil, err
	}
	m := a.reg.at(i)
	slot, _ := m.free.claim(m.slots) // always slot 0
	a.stats.inUse++
	return m.slotPtr(slot), nil
}

// createBucket maps memory for at least one page worth of slotSize
// slots and links a record for it.
// Nothing is changed if the mapping fails.
func (a *Allocator) createBucket(slotSize uintptr, lastSibling int32) (int32, error) {
	length := pagemap.RoundUp(slotSize, uintptr(a.pageSize))
	mem, err := a.mapper.Map(int(length))
	if err != nil {
		a.log.Debug("bucket map failed", "slot_size", slotSize, "length", length, "error", err)
		return noMeta, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	i := a.reg.take()
	m := a.reg.at(i)
	m.mem = mem
	m.base = uintptr(unsafe.Pointer(&mem[0]))
	m.slotSize = slotSize
	m.slots = int(length / slotSize)
	m.free.reset(m.slots)
	a.reg.link(i, lastSibling)

	a.stats.maps++
	a.stats.mapped += length
	a.log.Debug("bucket mapped",
		"meta", i, "slot_size", slotSize, "slots", m.slots, "length", length, "base", m.base)
	return i, nil
}

// Free releases a block returned by Malloc, Calloc or Realloc.
// Free(nil) does nothing. Any other pointer not currently allocated
// panics with a *PointerError.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	i, prev, slot := a.resolve("free", p)
	a.release(i, prev, slot)
}

// resolve finds the bucket and slot of p, panicking if p is not the
// start of an allocated block.
func (a *Allocator) resolve(op string, p unsafe.Pointer) (idx, prev int32, slot int) {
	addr := uintptr(p)
	idx, prev, slot = a.reg.find(addr, a.pageSize)
	if idx == noMeta {
		a.fatal(op, addr, "not allocated by this allocator")
	}
	m := a.reg.at(idx)
	if m.slotAddr(slot) != addr {
		a.fatal(op, addr, "points inside a block")
	}
	if m.free.isFree(slot) {
		a.fatal(op, addr, "block is not allocated")
	}
	return idx, prev, slot
}

func (a *Allocator) fatal(op string, addr uintptr, reason string) {
	a.log.Error("invalid pointer", "op", op, "addr", addr, "reason", reason)
	panic(&PointerError{Op: op, Addr: addr, Reason: reason})
}

// release frees slot of record i, unmapping the bucket once it is
// entirely free.
func (a *Allocator) release(i, prev int32, slot int) {
	m := a.reg.at(i)
	m.free.release(slot)
	a.stats.inUse--
	if !m.free.allFree(m.slots) {
		return
	}

	mem, length := m.mem, uintptr(len(m.mem))
	a.reg.unlink(i, prev)
	if err := a.mapper.Unmap(mem); err != nil {
		a.log.Error("bucket unmap failed", "meta", i, "length", length, "error", err)
	}
	a.reg.retire(i)

	a.stats.unmaps++
	a.stats.mapped -= length
	a.log.Debug("bucket unmapped", "meta", i, "length", length)
}

// Realloc resizes the block at p to size bytes and returns its new
// address.
//
// Realloc(nil, size) is Malloc(size). Realloc(p, 0) frees p and returns
// nil. If size falls in the slot size p already has, p is returned as
// is. Otherwise the contents are moved to a new block, truncated to the
// smaller of the two sizes. If the new block cannot be allocated,
// Realloc returns nil and p is left untouched.
func (a *Allocator) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	np, _ := a.Resize(p, size)
	return np
}

// Resize is like Realloc but reports why an allocation failed.
func (a *Allocator) Resize(p unsafe.Pointer, size uintptr) (unsafe.Pointer, error) {
	if p == nil {
		return a.Alloc(size)
	}
	if size == 0 {
		a.Free(p)
		return nil, nil
	}

	i, prev, slot := a.resolve("realloc", p)
	oldSize := a.reg.at(i).slotSize
	if size <= a.maxSize && SlotSize(size) == oldSize {
		return p, nil
	}

	np, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}
	n := oldSize
	if ns := SlotSize(size); ns < n {
		n = ns
	}
	unsafex.Memmove(np, p, int(n))

	// Alloc only appends to the master list, so prev is still i's predecessor.
	a.release(i, prev, slot)
	return np, nil
}

// Calloc returns a zeroed block of count*size bytes, or nil if the
// product overflows or no memory could be mapped.
func (a *Allocator) Calloc(count, size uintptr) unsafe.Pointer {
	p, _ := a.ZeroAlloc(count, size)
	return p
}

// ZeroAlloc is like Calloc but reports why an allocation failed.
func (a *Allocator) ZeroAlloc(count, size uintptr) (unsafe.Pointer, error) {
	total, overflow := pagemap.MulOverflow(count, size)
	if overflow || total > a.maxSize {
		// a total past maxSize would overflow once rounded to a slot
		return nil, fmt.Errorf("%w: %d * %d", ErrOverflow, count, size)
	}
	p, err := a.Alloc(total)
	if err != nil {
		return nil, err
	}
	unsafex.Memclr(p, int(SlotSize(total)))
	return p, nil
}

// Owns reports whether p is the start of a block currently allocated
// by a.
func (a *Allocator) Owns(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	addr := uintptr(p)
	i, _, slot := a.reg.find(addr, a.pageSize)
	if i == noMeta {
		return false
	}
	m := a.reg.at(i)
	return m.slotAddr(slot) == addr && !m.free.isFree(slot)
}

// UsableSize returns the number of bytes usable at p, which is the slot
// size of its bucket. It panics like Free if p is not allocated.
func (a *Allocator) UsableSize(p unsafe.Pointer) uintptr {
	i, _, _ := a.resolve("usable_size", p)
	return a.reg.at(i).slotSize
}
