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
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	useHeap bool
)

var rootCmd = &cobra.Command{
	Use:   "bmstat",
	Short: "Exercise and inspect the bucket allocator",
	Long: `bmstat runs allocation workloads against a fresh bucket allocator and
prints how many buckets, metadata records and bytes of mapped memory each
phase leaves behind.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log bucket map/unmap events to stderr")
	rootCmd.PersistentFlags().BoolVar(&useHeap, "heap", false, "Take pages from the Go heap instead of mmap")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
