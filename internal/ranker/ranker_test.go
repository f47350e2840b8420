package ranker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pbaille/gemrank/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func entry(v string, c int) domain.RankedEntry {
	return domain.RankedEntry{Value: v, Count: c}
}

func TestRank_EndToEndExample(t *testing.T) {
	r := New(
		[][]string{{"30", "45"}, {"7"}},
		[]domain.DateStat{{Name: "Total Days", Value: "100", Secondary: "NA"}},
	)

	want := []string{"30", "45", "7", "100", "3", "1"}
	if diff := cmp.Diff(want, r.Observations()); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}

	got := r.Rank(1, true)
	wantRanked := []domain.RankedEntry{
		entry("30", 1), entry("45", 1), entry("7", 1),
		entry("100", 1), entry("3", 1), entry("1", 1),
	}
	if diff := cmp.Diff(wantRanked, got); diff != "" {
		t.Errorf("ranked mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_StableTies(t *testing.T) {
	r := New([][]string{{"7", "3", "9"}, {"7", "3"}, {"7", "3"}}, nil)

	assert.Equal(t, []domain.RankedEntry{entry("7", 3), entry("3", 3)}, r.RankDefault())
	assert.Equal(t, []domain.RankedEntry{entry("7", 3), entry("3", 3), entry("9", 1)}, r.Rank(1, true))
}

func TestRank_SortsByCountDescending(t *testing.T) {
	r := New([][]string{{"5", "8", "8"}, {"8", "6"}, {"6"}}, nil)

	assert.Equal(t,
		[]domain.RankedEntry{entry("8", 3), entry("6", 2), entry("5", 1)},
		r.Rank(1, true))
}

func TestRank_UnrankedKeepsInsertionOrder(t *testing.T) {
	r := New([][]string{{"5", "8", "8"}, {"8", "6"}, {"6"}}, nil)

	assert.Equal(t,
		[]domain.RankedEntry{entry("5", 1), entry("8", 3), entry("6", 2)},
		r.Rank(1, false))
	assert.Equal(t,
		[]domain.RankedEntry{entry("8", 3), entry("6", 2)},
		r.Rank(2, false))
}

func TestNew_ZeroStripping(t *testing.T) {
	r := New([][]string{{"100", "0", "23"}}, nil)

	assert.Equal(t, []string{"100", "0", "23", "1", ""}, r.Observations())
	assert.Equal(t, 1, r.Count(""), "stripped \"0\" is kept as the empty string")
	assert.Equal(t, 1, r.Count("0"))
	assert.Equal(t, 1, r.Count("23"))
}

func TestNew_StrippedVariantMergesWithExisting(t *testing.T) {
	r := New([][]string{{"30", "3"}}, nil)

	assert.Equal(t, 2, r.Count("3"))
	assert.Equal(t, []domain.RankedEntry{entry("3", 2)}, r.RankDefault())
}

func TestNew_NotApplicableExcluded(t *testing.T) {
	r := New(nil, []domain.DateStat{
		{Name: "Day of Year", Value: "2", Secondary: "363"},
		{Name: "Month Day", Value: "3", Secondary: "NA"},
		{Name: "Unknown", Value: "NA", Secondary: "NA"},
	})

	assert.Equal(t, []string{"2", "363", "3"}, r.Observations())
	assert.Zero(t, r.Count(domain.NotApplicable))
}

func TestNew_NonNumericTokensAreOpaque(t *testing.T) {
	r := New([][]string{{"07", "7", "x0y"}}, nil)

	assert.Equal(t, 1, r.Count("07"))
	assert.Equal(t, 2, r.Count("7"), "\"07\" strips to \"7\"")
	assert.Equal(t, 1, r.Count("xy"))
}

func TestRank_EmptyInput(t *testing.T) {
	r := New(nil, nil)

	assert.Empty(t, r.RankDefault())
	assert.Empty(t, r.Rank(1, true))
	assert.Zero(t, r.Total())
}

func TestRank_Properties(t *testing.T) {
	inputs := [][][]string{
		{{"30", "45"}, {"7"}},
		{{"10", "1", "100"}, {"1", "01"}, {"1010"}},
		{{"22", "22", "202"}, {"0", "00"}},
	}
	stats := []domain.DateStat{{Name: "Day of Year", Value: "20", Secondary: "345"}}

	for _, in := range inputs {
		r := New(in, stats)

		all := r.Rank(1, true)
		sum := 0
		for _, e := range all {
			sum += e.Count
			assert.Equal(t, r.Count(e.Value), e.Count)
		}
		assert.Equal(t, r.Total(), sum, "counts sum to the normalized set size")
		assert.Len(t, all, r.Distinct())

		for k := 2; k <= 4; k++ {
			filtered := r.Rank(k, true)
			var want []domain.RankedEntry
			for _, e := range all {
				if e.Count >= k {
					want = append(want, e)
				}
			}
			require.Len(t, filtered, len(want))
			if len(want) > 0 {
				assert.Equal(t, want, filtered)
			}
		}
	}
}

func TestFromResults(t *testing.T) {
	r := FromResults([]domain.PhraseResult{
		{Phrase: "02 January", Values: []string{"30"}},
		{Phrase: "mars", Values: []string{"3"}},
	}, nil)

	assert.Equal(t, []domain.RankedEntry{entry("3", 2)}, r.RankDefault())
}
