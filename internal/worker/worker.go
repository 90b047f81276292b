// Package worker fans raw warehouse rows across a fixed pool of goroutines
// for normalization. Output order matches input order regardless of which
// worker handled a chunk.
package worker

import (
	"context"
	"sync"

	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/normalize"
)

// chunkSize balances scheduling overhead against per-worker load. Raw rows
// are cheap to normalize, so chunks are large.
const chunkSize = 512

// Pool is a bounded normalization pool. The zero value is not usable; use
// NewPool.
type Pool struct {
	numWorkers int
	bufferSize int
}

func NewPool(numWorkers, bufferSize int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 1 {
		bufferSize = numWorkers
	}
	return &Pool{numWorkers: numWorkers, bufferSize: bufferSize}
}

type chunk struct {
	start, end int
}

// Normalize converts raw rows into incidents using the pool. Workers write
// into disjoint ranges of the output slice, so position i of the result
// always corresponds to rows[i]. A canceled context stops feeding new
// chunks; already-claimed chunks finish.
func (p *Pool) Normalize(ctx context.Context, n *normalize.Normalizer, rows []models.RawRow) []models.Incident {
	out := make([]models.Incident, len(rows))
	if len(rows) == 0 {
		return out
	}

	jobs := make(chan chunk, p.bufferSize)
	var wg sync.WaitGroup
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				for j := c.start; j < c.end; j++ {
					out[j] = n.Row(rows[j])
				}
			}
		}()
	}

feed:
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- chunk{start: start, end: end}:
		}
	}
	close(jobs)
	wg.Wait()
	return out
}
