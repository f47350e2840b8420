// Package ranker counts phrase-derived numbers and ranks them by frequency.
//
// Observations are opaque strings. They are compared by exact equality and
// never parsed as numbers, so "07" and "7" are different observations.
package ranker

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pbaille/gemrank/internal/domain"
)

// Default thresholds used by the CLI and the API
const (
	DefaultMinimumCount  = 2
	DefaultTierThreshold = 2
)

// Ranker holds the normalized observations of one analysis run and their counts.
// It is immutable once built.
type Ranker struct {
	all    []string
	order  []string // distinct values in first-appearance order
	counts map[string]int
}

// New normalizes the observations from phrase results and date stats and counts them
func New(phraseResults [][]string, dateStats []domain.DateStat) *Ranker {
	var results []string
	for _, row := range phraseResults {
		results = append(results, row...)
	}

	var dateStatNums []string
	for _, s := range dateStats {
		for _, v := range s.Values() {
			if v != domain.NotApplicable {
				dateStatNums = append(dateStatNums, v)
			}
		}
	}

	source := make([]string, 0, len(results)+len(dateStatNums))
	source = append(source, results...)
	source = append(source, dateStatNums...)

	all := slices.Clone(source)
	for _, v := range source {
		if stripped := StripZeros(v); stripped != v {
			all = append(all, stripped)
		}
	}
	all = slices.DeleteFunc(all, func(v string) bool { return v == domain.NotApplicable })

	r := &Ranker{all: all, counts: make(map[string]int)}
	for _, v := range all {
		if _, seen := r.counts[v]; !seen {
			r.order = append(r.order, v)
		}
		r.counts[v]++
	}
	return r
}

// FromResults builds a Ranker from calculator history rows
func FromResults(results []domain.PhraseResult, dateStats []domain.DateStat) *Ranker {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = r.Values
	}
	return New(rows, dateStats)
}

// StripZeros removes every '0' from v. "0" becomes the empty string.
func StripZeros(v string) string {
	return strings.ReplaceAll(v, "0", "")
}

// Rank returns the observations occurring at least minimumCount times.
// When ranked is true they are stably sorted by count descending, otherwise
// they stay in first-appearance order.
func (r *Ranker) Rank(minimumCount int, ranked bool) []domain.RankedEntry {
	entries := make([]domain.RankedEntry, 0, len(r.order))
	for _, v := range r.order {
		if c := r.counts[v]; c >= minimumCount {
			entries = append(entries, domain.RankedEntry{Value: v, Count: c})
		}
	}
	if ranked {
		slices.SortStableFunc(entries, func(a, b domain.RankedEntry) int {
			return cmp.Compare(b.Count, a.Count)
		})
	}
	return entries
}

// RankDefault is Rank(DefaultMinimumCount, true)
func (r *Ranker) RankDefault() []domain.RankedEntry {
	return r.Rank(DefaultMinimumCount, true)
}

// Observations returns a copy of the normalized observation list
func (r *Ranker) Observations() []string {
	return slices.Clone(r.all)
}

// Count returns how many times v occurs in the normalized set
func (r *Ranker) Count(v string) int {
	return r.counts[v]
}

// Total is the size of the normalized set
func (r *Ranker) Total() int {
	return len(r.all)
}

// Distinct is the number of different observations
func (r *Ranker) Distinct() int {
	return len(r.order)
}
