package history

import (
	"cmp"
	"slices"

	"github.com/pbaille/gemrank/internal/domain"
	"github.com/pbaille/gemrank/internal/ranker"
)

// CrossReference returns the past phrases whose values fall in a tier.
// Phrases with more significant hits come first, then more notable hits;
// equal phrases keep their history order.
func CrossReference(history []domain.PhraseResult, tiers ranker.Tiers) []domain.Match {
	var matches []domain.Match
	for _, r := range history {
		m := domain.Match{Phrase: r.Phrase}
		for _, v := range r.Values {
			switch tiers.Of(v) {
			case domain.TierSignificant:
				m.Significant = append(m.Significant, v)
			case domain.TierNotable:
				m.Notable = append(m.Notable, v)
			}
		}
		if len(m.Significant)+len(m.Notable) > 0 {
			matches = append(matches, m)
		}
	}

	slices.SortStableFunc(matches, func(a, b domain.Match) int {
		if c := cmp.Compare(len(b.Significant), len(a.Significant)); c != 0 {
			return c
		}
		return cmp.Compare(len(b.Notable), len(a.Notable))
	})
	return matches
}
