//go:build unix

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

	"golang.org/x/sys/unix"
)

type osMapper struct {
	pageSize int
}

var osm = &osMapper{pageSize: unix.Getpagesize()}

// OS returns a Mapper backed by anonymous private mmap.
func OS() Mapper {
	return osm
}

// PageSize returns the system page size.
func PageSize() int {
	return osm.pageSize
}

func (m *osMapper) Map(length int) ([]byte, error) {
	if err := checkLength(length, m.pageSize); err != nil {
		return nil, err
	}
	b, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrMapFailed, length, err)
	}
	return b, nil
}

func (m *osMapper) Unmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("%w: munmap: %v", ErrNotMapped, err)
	}
	return nil
}

func (m *osMapper) PageSize() int {
	return m.pageSize
}
