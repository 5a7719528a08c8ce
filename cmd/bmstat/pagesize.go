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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudwego/bmalloc/pagemap"
	"github.com/cloudwego/bmalloc/unsafex/malloc"
)

func init() {
	rootCmd.AddCommand(newPageSizeCmd())
}

func newPageSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pagesize",
		Short: "Print the page size and bucket geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps := pagemap.PageSize()
			if useHeap {
				ps = pagemap.Heap().PageSize()
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "page size:  %d\n", ps)
			fmt.Fprintf(w, "alignment:  %d\n", malloc.Alignment)
			fmt.Fprintf(w, "max slots:  %d\n", ps/malloc.Alignment)
			return nil
		},
	}
}
