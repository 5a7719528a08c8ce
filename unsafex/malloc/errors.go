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
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates the page mapper refused to map a new bucket.
	ErrOutOfMemory = errors.New("malloc: out of memory")

	// ErrOverflow indicates count*size overflowed in a zeroed allocation.
	ErrOverflow = errors.New("malloc: size overflow")

	// ErrInvalidPointer indicates a pointer that was not returned by the
	// allocator, points inside a block, or refers to a free block.
	ErrInvalidPointer = errors.New("malloc: invalid pointer")
)

// PointerError is the panic value raised when Free or Realloc is given
// an invalid pointer. It unwraps to ErrInvalidPointer.
type PointerError struct {
	Op     string
	Addr   uintptr
	Reason string
}

func (e *PointerError) Error() string {
	return fmt.Sprintf("malloc: %s(%#x): invalid pointer: %s", e.Op, e.Addr, e.Reason)
}

func (e *PointerError) Unwrap() error {
	return ErrInvalidPointer
}
