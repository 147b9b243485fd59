// Package query models listing rules as an ordered list of stages applied to
// fully materialised rows.
package query

import (
	"math"
	"slices"
	"strings"
)

type stageKind int

const (
	stageMatch stageKind = iota
	stageSort
	stageSkip
	stageLimit
)

type stage[T any] struct {
	kind  stageKind
	match func(T) bool
	less  func(a, b T) int
	n     int
}

// Pipeline is an immutable stage list. Every builder method returns a copy,
// so a base pipeline can be shared between Run and Count.
type Pipeline[T any] struct {
	stages []stage[T]
}

// New returns an empty pipeline.
func New[T any]() Pipeline[T] {
	return Pipeline[T]{}
}

func (p Pipeline[T]) with(s stage[T]) Pipeline[T] {
	stages := make([]stage[T], len(p.stages), len(p.stages)+1)
	copy(stages, p.stages)
	return Pipeline[T]{stages: append(stages, s)}
}

// Match keeps rows for which fn returns true.
func (p Pipeline[T]) Match(fn func(T) bool) Pipeline[T] {
	if fn == nil {
		return p
	}
	return p.with(stage[T]{kind: stageMatch, match: fn})
}

// SortBy orders rows with a stable sort using cmp (negative when a < b).
func (p Pipeline[T]) SortBy(cmp func(a, b T) int) Pipeline[T] {
	return p.with(stage[T]{kind: stageSort, less: cmp})
}

// Skip drops the first n rows.
func (p Pipeline[T]) Skip(n int) Pipeline[T] {
	return p.with(stage[T]{kind: stageSkip, n: n})
}

// Limit keeps at most n rows.
func (p Pipeline[T]) Limit(n int) Pipeline[T] {
	return p.with(stage[T]{kind: stageLimit, n: n})
}

// Paginate appends skip and limit stages for a 1-based page.
func (p Pipeline[T]) Paginate(page, limit int) Pipeline[T] {
	page, limit = NormalizePage(page, limit, limit, limit)
	return p.Skip((page - 1) * limit).Limit(limit)
}

// Run applies every stage in order. The input slice is not modified.
func (p Pipeline[T]) Run(rows []T) []T {
	out := slices.Clone(rows)
	for _, s := range p.stages {
		switch s.kind {
		case stageMatch:
			out = slices.DeleteFunc(out, func(v T) bool { return !s.match(v) })
		case stageSort:
			slices.SortStableFunc(out, s.less)
		case stageSkip:
			if s.n >= len(out) {
				out = out[:0]
			} else if s.n > 0 {
				out = out[s.n:]
			}
		case stageLimit:
			if s.n >= 0 && s.n < len(out) {
				out = out[:s.n]
			}
		}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// Count runs only the match stages and returns how many rows survive.
func (p Pipeline[T]) Count(rows []T) int {
	n := 0
	for _, v := range rows {
		if p.matches(v) {
			n++
		}
	}
	return n
}

func (p Pipeline[T]) matches(v T) bool {
	for _, s := range p.stages {
		if s.kind == stageMatch && !s.match(v) {
			return false
		}
	}
	return true
}

// NormalizePage clamps page to >= 1 and limit to [1, max], using def when
// limit is not positive. Pages past the representable offset are clamped.
func NormalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if def < 1 {
		def = 1
	}
	if limit < 1 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	// keep (page-1)*limit within int
	if last := math.MaxInt/limit + 1; page > last {
		page = last
	}
	return page, limit
}

// ContainsFold reports whether needle is a case-insensitive substring of any
// of the fields. An empty needle matches everything.
func ContainsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Then chains comparators: the first non-zero result wins.
func Then[T any](cmps ...func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}
