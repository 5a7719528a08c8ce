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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"text/tabwriter"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/spf13/cobra"

	"github.com/cloudwego/bmalloc/pagemap"
	"github.com/cloudwego/bmalloc/unsafex"
	"github.com/cloudwego/bmalloc/unsafex/malloc"
)

var (
	runSizes    []int
	runCount    int
	runResizeTo int
	runSeed     int64
	runKeep     bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntSliceVar(&runSizes, "sizes", []int{24, 100, 5000}, "Block sizes to allocate")
	cmd.Flags().IntVar(&runCount, "count", 1000, "Blocks to allocate per size")
	cmd.Flags().IntVar(&runResizeTo, "resize-to", 0, "Resize every block to this size before freeing (0 skips)")
	cmd.Flags().Int64Var(&runSeed, "seed", 1, "Seed for block contents")
	cmd.Flags().BoolVar(&runKeep, "keep", false, "Skip the free phase")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Allocate, fill, resize and free blocks, printing stats per phase",
		Long: `The run command allocates --count blocks of each of --sizes, fills them
with random contents, optionally resizes every block to --resize-to and checks
that the preserved prefix survived the move, then frees everything.

Example:
  bmstat run
  bmstat run --sizes 16,48,1024 --count 5000
  bmstat run --sizes 20 --resize-to 30 --heap -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload(cmd.OutOrStdout(), workload{
				sizes:    runSizes,
				count:    runCount,
				resizeTo: runResizeTo,
				seed:     runSeed,
				keep:     runKeep,
				heap:     useHeap,
				verbose:  verbose,
			})
		},
	}
}

type workload struct {
	sizes    []int
	count    int
	resizeTo int
	seed     int64
	keep     bool
	heap     bool
	verbose  bool
}

// block is one live allocation and the checksums of what was written to it.
type block struct {
	p      unsafe.Pointer
	size   int
	sum    uint64 // whole block
	prefix uint64 // first min(size, resizeTo) bytes
}

var errCorrupted = errors.New("block contents corrupted")

func runWorkload(w io.Writer, wl workload) error {
	if wl.count < 0 || wl.resizeTo < 0 {
		return fmt.Errorf("count and resize-to must not be negative")
	}
	for _, sz := range wl.sizes {
		if sz < 0 {
			return fmt.Errorf("invalid block size %d", sz)
		}
	}

	opt := malloc.DefaultOption()
	if wl.heap {
		opt.Mapper = pagemap.Heap()
	}
	if wl.verbose {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	a, err := malloc.NewAllocator(opt)
	if err != nil {
		return err
	}

	rnd := rand.New(rand.NewSource(wl.seed))
	blocks := make([]block, 0, len(wl.sizes)*wl.count)
	for _, sz := range wl.sizes {
		payload := dirtmake.Bytes(sz, sz)
		for i := 0; i < wl.count; i++ {
			p, err := a.Alloc(uintptr(sz))
			if err != nil {
				return fmt.Errorf("alloc %d bytes: %w", sz, err)
			}
			rnd.Read(payload)
			copy(unsafex.Bytes(p, sz), payload)
			b := block{p: p, size: sz, sum: xxhash3.Hash(payload)}
			if wl.resizeTo > 0 {
				b.prefix = xxhash3.Hash(payload[:min(sz, wl.resizeTo)])
			}
			blocks = append(blocks, b)
		}
	}
	st := []phaseStats{{"alloc", a.Stats()}}

	for i := range blocks {
		b := &blocks[i]
		if xxhash3.Hash(unsafex.Bytes(b.p, b.size)) != b.sum {
			return fmt.Errorf("%w: %d byte block at %p", errCorrupted, b.size, b.p)
		}
	}

	if wl.resizeTo > 0 {
		for i := range blocks {
			b := &blocks[i]
			np, err := a.Resize(b.p, uintptr(wl.resizeTo))
			if err != nil {
				return fmt.Errorf("resize %d -> %d bytes: %w", b.size, wl.resizeTo, err)
			}
			n := min(b.size, wl.resizeTo)
			if xxhash3.Hash(unsafex.Bytes(np, n)) != b.prefix {
				return fmt.Errorf("%w: resize %d -> %d lost data", errCorrupted, b.size, wl.resizeTo)
			}
			b.p, b.size = np, wl.resizeTo
		}
		st = append(st, phaseStats{"resize", a.Stats()})
	}

	if !wl.keep {
		for _, b := range blocks {
			a.Free(b.p)
		}
		st = append(st, phaseStats{"free", a.Stats()})
	}
	return printStats(w, st)
}

type phaseStats struct {
	phase string
	malloc.Stats
}

func printStats(w io.Writer, phases []phaseStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "phase\tbuckets\tmapped\tin use\tmeta\tvacant\tchunks\tmaps\tunmaps\t")
	for _, p := range phases {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			p.phase, p.Buckets, p.MappedBytes, p.SlotsInUse,
			p.MetaRecords, p.VacantRecords, p.MetaChunks, p.Maps, p.Unmaps)
	}
	return tw.Flush()
}
