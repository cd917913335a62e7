// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package sample selects a bounded random subset of a candidate pool.
//
// The pool is read once from front to back. Items before the boundary u are
// included with a flat probability n/len(pool); from u onward the inclusion
// probability grows as 1-e^(-(i-u)/(len(pool)-u)), so the tail of the pool is
// favored. Once the reservoir holds n items the pass stops.
package sample

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// ErrInvalidParameter is returned for negative counts or a boundary outside the pool.
var ErrInvalidParameter = errors.New("sample: invalid parameter")

// TailFraction places the boundary at 95% of the pool.
const TailFraction = 0.95

// DefaultBoundary returns floor(TailFraction * size).
func DefaultBoundary(size int) int {
	return int(math.Floor(TailFraction * float64(size)))
}

// Sample draws up to n items from ids using rng. The boundary u must satisfy
// 0 <= u <= len(ids), and u == len(ids) is only accepted for an empty pool.
func Sample[T any](rng *rand.Rand, ids []T, n, u int) ([]T, error) {
	size := len(ids)
	switch {
	case n < 0:
		return nil, fmt.Errorf("%w: n=%d must not be negative", ErrInvalidParameter, n)
	case u < 0:
		return nil, fmt.Errorf("%w: u=%d must not be negative", ErrInvalidParameter, u)
	case u > size:
		return nil, fmt.Errorf("%w: u=%d exceeds pool size %d", ErrInvalidParameter, u, size)
	case u == size && size > 0:
		return nil, fmt.Errorf("%w: u=%d leaves no tail in a pool of %d", ErrInvalidParameter, u, size)
	}

	subset := make([]T, 0, min(n, size))
	if n == 0 || size == 0 {
		return subset, nil
	}

	flat := float64(n) / float64(size)
	tail := float64(size - u)

	for i, id := range ids {
		p := flat
		if i >= u {
			p = 1 - math.Exp(-float64(i-u)/tail)
		}

		if rng.Float64() < p {
			if len(subset) < n {
				subset = append(subset, id)
			} else {
				subset[rng.Intn(len(subset))] = id
			}
		}

		if len(subset) == n {
			break
		}
	}

	return subset, nil
}

// Sampler wraps a seeded source so Sample can be called from concurrent
// requests. math/rand.Rand is not safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler seeded with seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // sampling does not need a CSPRNG
	}
}

// Strings samples a string pool with the default boundary.
func (s *Sampler) Strings(ids []string, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sample(s.rng, ids, n, DefaultBoundary(len(ids)))
}
