package shared

import "sync"

// MapConcurrent applies mapper to every item with at most limit mappers in
// flight, and returns the results in input order. With limit <= 1 the items
// are processed strictly sequentially on the calling goroutine.
//
// The primitive does not intercept failures: mapper is expected to fold any
// error into its result type, so callers decide per-item error policy.
func MapConcurrent[T, R any](items []T, limit int, mapper func(item T, index int) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	if limit <= 1 {
		for i, item := range items {
			results[i] = mapper(item, i)
		}
		return results
	}

	if limit > len(items) {
		limit = len(items)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		next int
	)

	worker := func() {
		defer wg.Done()
		for {
			mu.Lock()
			idx := next
			next++
			mu.Unlock()
			if idx >= len(items) {
				return
			}
			results[idx] = mapper(items[idx], idx)
		}
	}

	wg.Add(limit)
	for i := 0; i < limit; i++ {
		go worker()
	}
	wg.Wait()

	return results
}
