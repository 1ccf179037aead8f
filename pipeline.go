package tumble

import "sync"

// task spreads fn over the data slice across workersCount goroutines in
// contiguous chunks. With one worker (or one item) it runs inline, so the
// default configuration never pays goroutine overhead. Callers are
// responsible for only using it on phases whose per-item work is
// independent.
func task[T any](workersCount int, data []T, fn func(item T)) {
	if workersCount <= 1 || len(data) <= 1 {
		for _, item := range data {
			fn(item)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (len(data) + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min(start+chunkSize, len(data))
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(start, end)
	}
	wg.Wait()
}
