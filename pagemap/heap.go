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

package pagemap

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/bytedance/gopkg/lang/mcache"
)

// maxHeapLength caps a single heap mapping: 1TB on 64-bit, 1GB on 32-bit.
// Larger requests are refused rather than handed to the Go heap.
const maxHeapLength = 1 << (30 + 10*(^uint(0)>>63))

type heapMapper struct {
	pageSize int

	mu   sync.Mutex
	live map[uintptr][]byte // region base -> backing buffer
}

var (
	heapOnce    sync.Once
	defaultHeap Mapper
)

// Heap returns a Mapper that carves regions out of pooled Go memory,
// using the system page size.
func Heap() Mapper {
	heapOnce.Do(func() {
		defaultHeap = NewHeap(PageSize())
	})
	return defaultHeap
}

// NewHeap returns a Mapper that carves pageSize-aligned regions out of
// pooled Go memory. Useful where mmap is unavailable and in tests that
// want a page size other than the system one.
// pageSize must be a power of two.
func NewHeap(pageSize int) Mapper {
	if pageSize <= 0 || pageSize&(pageSize-1) != 0 {
		panic(fmt.Sprintf("pagemap: page size must be a power of two, got %d", pageSize))
	}
	return &heapMapper{
		pageSize: pageSize,
		live:     make(map[uintptr][]byte),
	}
}

func (m *heapMapper) Map(length int) ([]byte, error) {
	if err := checkLength(length, m.pageSize); err != nil {
		return nil, err
	}
	if length > maxHeapLength-m.pageSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds heap mapping limit", ErrMapFailed, length)
	}
	// over-allocate by one page so the region can start on a page boundary
	buf := mcache.Malloc(length + m.pageSize)
	if len(buf) < length+m.pageSize {
		return nil, fmt.Errorf("%w: short buffer for %d bytes", ErrMapFailed, length)
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	off := int(RoundUp(addr, uintptr(m.pageSize)) - addr)
	b := buf[off : off+length : off+length]
	clear(b) // pooled buffers are dirty

	m.mu.Lock()
	m.live[uintptr(unsafe.Pointer(&b[0]))] = buf
	m.mu.Unlock()
	return b, nil
}

func (m *heapMapper) Unmap(b []byte) error {
	if len(b) == 0 {
		return ErrNotMapped
	}
	base := uintptr(unsafe.Pointer(&b[0]))

	m.mu.Lock()
	buf, ok := m.live[base]
	if ok {
		delete(m.live, base)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %#x", ErrNotMapped, base)
	}
	mcache.Free(buf)
	return nil
}

func (m *heapMapper) PageSize() int {
	return m.pageSize
}
