package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pbaille/gemrank/internal/domain"
	"github.com/pbaille/gemrank/internal/ranker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleResults = []domain.PhraseResult{
	{Phrase: "Yankees", Values: []string{"30", "7"}},
	{Phrase: "Red Sox", Values: []string{"22"}},
}

func TestReadPhrases_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.csv")
	require.NoError(t, os.WriteFile(path, []byte("Yankees,Red Sox\nMets, \n,Cubs\n"), 0644))

	got, err := ReadPhrases(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yankees", "Red Sox", "Mets", "Cubs"}, got)
}

func TestReadPhrases_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Yankees", "Mets"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Cubs"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := ReadPhrases(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yankees", "Mets", "Cubs"}, got)
}

func TestReadPhrases_Unsupported(t *testing.T) {
	_, err := ReadPhrases("teams.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestResults_RoundTrip(t *testing.T) {
	for _, name := range []string{"team_nums.csv", "team_nums.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, AppendResults(path, sampleResults[:1]))
			require.NoError(t, AppendResults(path, sampleResults[1:]))

			got, err := ReadResults(path)
			require.NoError(t, err)
			assert.Equal(t, sampleResults, got)
		})
	}
}

func TestReadResults_SkipsBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team_nums.csv")
	require.NoError(t, os.WriteFile(path, []byte("Mets,12,40\n,,\nCubs\n"), 0644))

	got, err := ReadResults(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.PhraseResult{
		{Phrase: "Mets", Values: []string{"12", "40"}},
		{Phrase: "Cubs", Values: []string{}},
	}, got)
}

func TestCrossReference(t *testing.T) {
	tiers := ranker.Classify([]domain.RankedEntry{
		{Value: "3", Count: 4},
		{Value: "7", Count: 3},
		{Value: "22", Count: 2},
	}, 2, 2)

	history := []domain.PhraseResult{
		{Phrase: "Mets", Values: []string{"22", "9"}},
		{Phrase: "Cubs", Values: []string{"11"}},
		{Phrase: "Yankees", Values: []string{"30", "7"}},
		{Phrase: "Red Sox", Values: []string{"220", "3"}},
	}

	got := CrossReference(history, tiers)

	assert.Equal(t, []domain.Match{
		{Phrase: "Yankees", Significant: []string{"30", "7"}},
		{Phrase: "Red Sox", Significant: []string{"3"}, Notable: []string{"220"}},
		{Phrase: "Mets", Notable: []string{"22"}},
	}, got)
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	a := domain.Analysis{
		Date:          time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
		PhraseResults: sampleResults,
		DateStats:     []domain.DateStat{{Name: "Month Day", Value: "3", Secondary: "NA"}},
		Ranked:        []domain.RankedEntry{{Value: "3", Count: 2}},
		Matches:       []domain.Match{{Phrase: "Yankees", Notable: []string{"30"}}},
	}

	require.NoError(t, ExportXLSX(path, a))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCiphers, SheetDateStats, SheetRanked, SheetMatches}, f.GetSheetList())

	rows, err := f.GetRows(SheetRanked)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Value", "Count"}, {"3", "2"}}, rows)

	rows, err = f.GetRows(SheetDateStats)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Month Day", "3", "NA"}}, rows)
}
