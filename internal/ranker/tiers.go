package ranker

import (
	"github.com/montanaflynn/stats"
	"github.com/pbaille/gemrank/internal/domain"
)

// Tiers splits a ranked list into display classes
type Tiers struct {
	Significant []domain.RankedEntry
	Notable     []domain.RankedEntry

	tier map[string]domain.Tier
}

// Classify puts entries with count > threshold in Significant and the
// remaining entries with count >= minimum in Notable. Input order is kept.
func Classify(entries []domain.RankedEntry, threshold, minimum int) Tiers {
	t := Tiers{tier: make(map[string]domain.Tier)}
	for _, e := range entries {
		if e.Count > threshold {
			t.Significant = append(t.Significant, e)
			t.tier[e.Value] = domain.TierSignificant
		}
	}
	for _, e := range entries {
		if e.Count < minimum {
			continue
		}
		if _, ok := t.tier[e.Value]; ok {
			continue
		}
		t.Notable = append(t.Notable, e)
		t.tier[e.Value] = domain.TierNotable
	}
	return t
}

// Restore rebuilds the Tiers of a stored analysis from its tier lists
func Restore(significant, notable []domain.RankedEntry) Tiers {
	t := Tiers{Significant: significant, Notable: notable, tier: make(map[string]domain.Tier)}
	for _, e := range notable {
		t.tier[e.Value] = domain.TierNotable
	}
	for _, e := range significant {
		t.tier[e.Value] = domain.TierSignificant
	}
	return t
}

// Of returns the tier a cell value is shown with. A value also takes the
// tier of its zero-stripped form, so "30" is highlighted when "3" is notable.
func (t Tiers) Of(value string) domain.Tier {
	best := t.tier[value]
	if s := t.tier[StripZeros(value)]; s > best {
		best = s
	}
	return best
}

// Contains reports whether value is in either tier
func (t Tiers) Contains(value string) bool {
	return t.Of(value) != domain.TierNone
}

// Summarize describes the counts of entries. An empty list gives a zero Summary.
func Summarize(entries []domain.RankedEntry) domain.Summary {
	if len(entries) == 0 {
		return domain.Summary{}
	}
	data := make(stats.Float64Data, len(entries))
	for i, e := range entries {
		data[i] = float64(e.Count)
	}

	var s domain.Summary
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.StdDev, _ = data.StandardDeviation()
	s.Max, _ = data.Max()
	return s
}
