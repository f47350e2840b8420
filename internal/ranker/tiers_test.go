package ranker

import (
	"testing"

	"github.com/pbaille/gemrank/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	ranked := []domain.RankedEntry{entry("7", 4), entry("3", 3), entry("12", 2), entry("9", 1)}

	tiers := Classify(ranked, DefaultTierThreshold, DefaultMinimumCount)

	assert.Equal(t, []domain.RankedEntry{entry("7", 4), entry("3", 3)}, tiers.Significant)
	assert.Equal(t, []domain.RankedEntry{entry("12", 2)}, tiers.Notable)
}

func TestTiers_Of(t *testing.T) {
	tiers := Classify([]domain.RankedEntry{entry("3", 3), entry("12", 2)}, 2, 2)

	tests := []struct {
		value string
		want  domain.Tier
	}{
		{"3", domain.TierSignificant},
		{"30", domain.TierSignificant},
		{"12", domain.TierNotable},
		{"1020", domain.TierNotable},
		{"9", domain.TierNone},
		{"NA", domain.TierNone},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, tiers.Of(tt.value))
		})
	}
	assert.True(t, tiers.Contains("300"))
	assert.False(t, tiers.Contains("4"))
}

func TestTiers_OfPrefersHigherTier(t *testing.T) {
	tiers := Classify([]domain.RankedEntry{entry("5", 3), entry("50", 2)}, 2, 2)

	assert.Equal(t, domain.TierSignificant, tiers.Of("50"))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]domain.RankedEntry{entry("a", 4), entry("b", 2), entry("c", 2), entry("d", 0)})

	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.Median, 1e-9)
	assert.InDelta(t, 4.0, s.Max, 1e-9)
	assert.InDelta(t, 1.414213, s.StdDev, 1e-5)

	assert.Equal(t, domain.Summary{}, Summarize(nil))
}

func TestRestore(t *testing.T) {
	ranked := []domain.RankedEntry{entry("3", 5), entry("12", 3), entry("7", 2)}
	classified := Classify(ranked, 4, 2)

	restored := Restore(classified.Significant, classified.Notable)

	assert.Equal(t, classified.Significant, restored.Significant)
	assert.Equal(t, classified.Notable, restored.Notable)
	for _, v := range []string{"3", "30", "12", "7", "70", "9"} {
		assert.Equal(t, classified.Of(v), restored.Of(v), "value %q", v)
	}
	assert.Equal(t, domain.TierNotable, restored.Of("12"), "threshold of the stored run is kept")
}
