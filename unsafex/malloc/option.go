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
	"log/slog"

	"github.com/cloudwego/bmalloc/pagemap"
)

// Option configures an Allocator.
type Option struct {
	// Mapper supplies bucket memory. Defaults to pagemap.OS().
	Mapper pagemap.Mapper

	// Logger receives debug records for bucket mapping and unmapping and
	// error records for invalid pointers. Defaults to discarding everything.
	Logger *slog.Logger
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{
		Mapper: pagemap.OS(),
		Logger: slog.New(slog.DiscardHandler),
	}
}
