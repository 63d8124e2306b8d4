// Package parallel splits independent loop iterations across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Upper bound on concurrently running chunks.
	MinChunkSize int  // Minimum iterations per chunk.
}

// DefaultConfig returns a config sized to the CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4,
	}
}

// For calls f(i) for every i in [0, n). Iterations run in chunks of at least
// MinChunkSize, and sequentially when parallelism is disabled or n fits in one
// chunk. f must be safe to call concurrently for distinct i.
func For(n int, f func(i int), cfg Config) {
	workers := max(cfg.NumWorkers, 1)
	chunk := max((n+workers-1)/workers, cfg.MinChunkSize, 1)
	if !cfg.Enabled || n <= chunk {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				f(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Rows calls f(b, y) for every row of a [batch, height, ...] tensor.
func Rows(batch, height int, f func(b, y int), cfg Config) {
	if height <= 0 {
		return
	}
	For(batch*height, func(k int) {
		f(k/height, k%height)
	}, cfg)
}
