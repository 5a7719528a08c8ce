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

var (
	stdOnce sync.Once
	std     *Locked
)

// Default returns the process-wide allocator used by the package-level
// functions. It maps memory with pagemap.OS().
func Default() *Locked {
	stdOnce.Do(func() {
		a, err := NewAllocator(nil)
		if err != nil {
			panic(err)
		}
		std = NewLocked(a)
	})
	return std
}

// Malloc allocates size bytes from the default allocator.
func Malloc(size uintptr) unsafe.Pointer {
	return Default().Malloc(size)
}

// Calloc allocates count*size zeroed bytes from the default allocator.
func Calloc(count, size uintptr) unsafe.Pointer {
	return Default().Calloc(count, size)
}

// Realloc resizes a block of the default allocator.
func Realloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	return Default().Realloc(p, size)
}

// Free releases a block of the default allocator.
func Free(p unsafe.Pointer) {
	Default().Free(p)
}
