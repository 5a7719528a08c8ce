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
	"sync"
	"unsafe"
)

// Locked serializes every call to an Allocator with one mutex.
type Locked struct {
	mu sync.Mutex
	a  *Allocator
}

// NewLocked wraps a for use from multiple goroutines.
// a must not be used directly afterwards.
func NewLocked(a *Allocator) *Locked {
	return &Locked{a: a}
}

func (l *Locked) Malloc(size uintptr) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Malloc(size)
}

func (l *Locked) Alloc(size uintptr) (unsafe.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Alloc(size)
}

func (l *Locked) Calloc(count, size uintptr) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Calloc(count, size)
}

func (l *Locked) ZeroAlloc(count, size uintptr) (unsafe.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.ZeroAlloc(count, size)
}

func (l *Locked) Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Realloc(p, size)
}

func (l *Locked) Resize(p unsafe.Pointer, size uintptr) (unsafe.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Resize(p, size)
}

// Free releases p. The lock is released even if Free panics.
func (l *Locked) Free(p unsafe.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Free(p)
}

func (l *Locked) Owns(p unsafe.Pointer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Owns(p)
}

func (l *Locked) UsableSize(p unsafe.Pointer) uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.UsableSize(p)
}

func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Stats()
}
