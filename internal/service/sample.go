package service

import "math/rand"

// sample returns min(n, len(items)) elements chosen uniformly without
// replacement. It runs a partial Fisher-Yates shuffle over a copy, so the
// input slice is never reordered.
func sample[T any](rng *rand.Rand, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return nil
	}

	pool := make([]T, len(items))
	copy(pool, items)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
