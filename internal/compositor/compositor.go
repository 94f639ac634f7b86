// Package compositor merges the per-rank framebuffers produced by a
// frame's tracing into the single authoritative image. Two strategies
// are supported, selected per run: a rank-0 MPI-gather-and-sum path, and
// a tree-reduction path in the spirit of IceT's binary-swap compositing
// (approximated here, since no point-to-point send primitive exists
// without a real MPI transport — see DESIGN.md).
package compositor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/gravit-cluster/gvtcore/internal/framebuffer"
)

// Gatherer is the collective surface a Compositor needs: every rank's
// framebuffer funneled to rank 0.
type Gatherer interface {
	Rank() int
	Gather(payload []byte) [][]byte
}

// Compositor merges local per-rank framebuffers into one final frame.
// Only the result on the root rank (Gatherer.Rank() == 0) is meaningful;
// every other rank gets nil.
type Compositor interface {
	Composite(ctx context.Context, local *framebuffer.Framebuffer, g Gatherer) (*framebuffer.Framebuffer, error)
}

// MPIGather implements the §4.9 "MPI gather + alpha-blend" path: rank 0
// gathers every framebuffer and sums per-channel assuming a black
// background, parallelized across 2*NumHWThreads chunks of pixel rows.
type MPIGather struct {
	NumHWThreads int
}

func (c *MPIGather) Composite(ctx context.Context, local *framebuffer.Framebuffer, g Gatherer) (*framebuffer.Framebuffer, error) {
	gathered := g.Gather(pack(local))
	if g.Rank() != 0 {
		return nil, nil
	}

	buffers := make([]*framebuffer.Framebuffer, len(gathered))
	for i, buf := range gathered {
		fb, err := unpack(buf)
		if err != nil {
			return nil, err
		}
		buffers[i] = fb
	}

	result := framebuffer.New(local.Width, local.Height)
	return result, sumChunked(ctx, result, buffers, c.NumHWThreads)
}

// sumChunked adds every buffer in buffers into result, partitioning the
// image into 2*numHWThreads row-aligned chunks processed concurrently.
// Chunks touch disjoint rows so no locking is needed beyond the
// goroutines' own disjoint slices.
func sumChunked(ctx context.Context, result *framebuffer.Framebuffer, buffers []*framebuffer.Framebuffer, numHWThreads int) error {
	if numHWThreads < 1 {
		numHWThreads = 1
	}
	numChunks := 2 * numHWThreads
	height := result.Height
	rowsPerChunk := height / numChunks
	if rowsPerChunk < 1 {
		rowsPerChunk = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	out := result.Pixels()
	for startRow := 0; startRow < height; startRow += rowsPerChunk {
		startRow := startRow
		endRow := startRow + rowsPerChunk
		if endRow > height {
			endRow = height
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			lo := startRow * result.Width
			hi := endRow * result.Width
			for _, buf := range buffers {
				src := buf.Pixels()
				for i := lo; i < hi; i++ {
					out[i].R += src[i].R
					out[i].G += src[i].G
					out[i].B += src[i].B
					if src[i].A > out[i].A {
						out[i].A = src[i].A
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// TreeReduce implements an IceT-flavored fallback: instead of summing
// all gathered buffers against a single accumulator in chunk order, it
// reduces them pairwise in a binary tree, the shape IceT's binary-swap
// compositing uses to spread combine work across participants rather
// than funneling everything through one accumulator pass. Ray transport
// here still goes through Gather (no raw point-to-point send exists
// without a real MPI binding), so only the combine phase's shape
// differs from MPIGather, not the collective used to move bytes.
type TreeReduce struct {
	NumHWThreads int
}

func (c *TreeReduce) Composite(ctx context.Context, local *framebuffer.Framebuffer, g Gatherer) (*framebuffer.Framebuffer, error) {
	gathered := g.Gather(pack(local))
	if g.Rank() != 0 {
		return nil, nil
	}

	buffers := make([]*framebuffer.Framebuffer, len(gathered))
	for i, buf := range gathered {
		fb, err := unpack(buf)
		if err != nil {
			return nil, err
		}
		buffers[i] = fb
	}

	reduced, err := treeReduce(ctx, buffers, c.NumHWThreads)
	if err != nil {
		return nil, err
	}
	return reduced, nil
}

func treeReduce(ctx context.Context, buffers []*framebuffer.Framebuffer, numHWThreads int) (*framebuffer.Framebuffer, error) {
	if len(buffers) == 0 {
		return nil, nil
	}
	if len(buffers) == 1 {
		return buffers[0], nil
	}

	mid := len(buffers) / 2
	var left, right *framebuffer.Framebuffer
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		left, err = treeReduce(ctx, buffers[:mid], numHWThreads)
		return err
	})
	g.Go(func() (err error) {
		right, err = treeReduce(ctx, buffers[mid:], numHWThreads)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := sumChunked(ctx, left, []*framebuffer.Framebuffer{right}, numHWThreads); err != nil {
		return nil, err
	}
	return left, nil
}
