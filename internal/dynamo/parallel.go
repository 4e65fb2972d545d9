package dynamo

import (
	"runtime"
	"sync"
)

// DefaultMinChunk is the smallest index range worth handing to a goroutine.
const DefaultMinChunk = 8

// Workers resolves a configured worker count. Zero or negative means one
// worker per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// ParallelFor executes fn over [0, n) split into contiguous chunks, one per
// worker, and waits for all of them. Ranges never overlap, so fn may write
// to disjoint output slots without locking.
func ParallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	workers = Workers(workers)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
