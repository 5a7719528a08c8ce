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

type counters struct {
	maps   int
	unmaps int
	mapped uintptr
	inUse  int
}

// Stats is a snapshot of allocator state.
type Stats struct {
	Buckets       int     // buckets currently mapped
	MappedBytes   uintptr // bytes currently mapped for buckets
	SlotsInUse    int     // blocks currently allocated
	MetaRecords   int     // metadata records ever handed out, live or vacant
	VacantRecords int     // metadata records waiting for reuse
	MetaChunks    int     // metadata chunks allocated
	Maps          int     // bucket mappings performed
	Unmaps        int     // bucket mappings released
}

// Stats returns a snapshot of the allocator state.
func (a *Allocator) Stats() Stats {
	return Stats{
		Buckets:       a.reg.buckets,
		MappedBytes:   a.stats.mapped,
		SlotsInUse:    a.stats.inUse,
		MetaRecords:   int(a.reg.cursor),
		VacantRecords: a.reg.nvacant,
		MetaChunks:    len(a.reg.chunks),
		Maps:          a.stats.maps,
		Unmaps:        a.stats.unmaps,
	}
}
