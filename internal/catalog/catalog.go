// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package catalog loads the candidate video id pool.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// ErrEmpty is returned when a catalog file contains no ids.
var ErrEmpty = errors.New("catalog: no video ids")

// Pool is an immutable, ordered set of candidate video ids.
type Pool struct {
	ids []string
}

// NewPool builds a pool from ids, dropping blanks and repeats.
func NewPool(ids []string) *Pool {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return &Pool{ids: out}
}

// IDs returns a copy of the pool's ids in file order.
func (p *Pool) IDs() []string {
	if p == nil {
		return []string{}
	}
	return slices.Clone(p.ids)
}

// Len returns the number of ids.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ids)
}

// Read parses a newline-delimited id list. Lines starting with # are comments.
func Read(r io.Reader) (*Pool, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return NewPool(ids), nil
}

// Load reads the catalog file at path. An empty catalog is an error since
// nothing could ever be recommended.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Load(path string, logger zerolog.Logger) (*Pool, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	pool, err := Read(f)
	if err != nil {
		return nil, err
	}
	if pool.Len() == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, path)
	}

	logger.Info().
		Str("path", path).
		Int("videos", pool.Len()).
		Msg("Candidate catalog loaded")
	return pool, nil
}
