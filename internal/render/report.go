package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pbaille/gemrank/internal/domain"
	"github.com/pbaille/gemrank/internal/ranker"
)

const columnGap = "   "

// CipherTable shows each phrase with its cipher values
func CipherTable(results []domain.PhraseResult, tiers ranker.Tiers) *Table {
	t := &Table{Title: "Ciphers", Headers: []string{"Phrase"}}
	for _, r := range results {
		row := []Cell{{Text: r.Phrase}}
		for _, v := range r.Values {
			row = append(row, Cell{Text: v, Tier: tiers.Of(v)})
		}
		t.AddRow(row...)
	}
	return t
}

// StatsTable shows the date statistics
func StatsTable(stats []domain.DateStat, tiers ranker.Tiers) *Table {
	t := &Table{Title: "Date Stats", Headers: []string{"Statistic", "Value", "Secondary"}}
	for _, s := range stats {
		t.AddRow(
			Cell{Text: s.Name},
			Cell{Text: s.Value, Tier: tiers.Of(s.Value)},
			Cell{Text: s.Secondary, Tier: tiers.Of(s.Secondary)},
		)
	}
	return t
}

// RankedTable shows ranked values with their counts. Only the value is highlighted.
func RankedTable(entries []domain.RankedEntry, tiers ranker.Tiers) *Table {
	t := &Table{Title: "Ranked", Headers: []string{"Value", "Count"}}
	for _, e := range entries {
		t.AddRow(Cell{Text: e.Value, Tier: tiers.Of(e.Value)}, Cell{Text: strconv.Itoa(e.Count)})
	}
	return t
}

// MatchTable shows historical phrases hitting the current tiers
func MatchTable(matches []domain.Match) *Table {
	t := &Table{Title: "History Matches", Headers: []string{"Phrase", "Significant", "Notable"}}
	for _, m := range matches {
		t.AddRow(
			Cell{Text: m.Phrase},
			Cell{Text: strings.Join(m.Significant, " "), Tier: tierIf(len(m.Significant) > 0, domain.TierSignificant)},
			Cell{Text: strings.Join(m.Notable, " "), Tier: tierIf(len(m.Notable) > 0, domain.TierNotable)},
		)
	}
	return t
}

func tierIf(ok bool, t domain.Tier) domain.Tier {
	if ok {
		return t
	}
	return domain.TierNone
}

// Report renders the full analysis: the three main tables side by side,
// a count summary, and history matches when present
func Report(a domain.Analysis, tiers ranker.Tiers, styles Styles) string {
	var sb strings.Builder

	header := a.Date.Format("Monday 02 January 2006")
	if a.MoonSign != "" {
		header += " · moon in " + a.MoonSign
	}
	sb.WriteString(styles.Title.Render(header))
	sb.WriteString("\n")

	var blocks []string
	for _, t := range []*Table{
		CipherTable(a.PhraseResults, tiers),
		StatsTable(a.DateStats, tiers),
		RankedTable(a.Ranked, tiers),
	} {
		if v := t.View(styles); v != "" {
			blocks = append(blocks, v, columnGap)
		}
	}
	if len(blocks) > 0 {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks[:len(blocks)-1]...))
		sb.WriteString("\n")
	} else {
		sb.WriteString(styles.Muted.Render("No values reached the display threshold."))
		sb.WriteString("\n")
	}

	s := a.Summary
	sb.WriteString(styles.Muted.Render(fmt.Sprintf(
		"significant %d · notable %d · mean %.2f · median %.1f · sd %.2f · max %.0f",
		len(tiers.Significant), len(tiers.Notable), s.Mean, s.Median, s.StdDev, s.Max)))
	sb.WriteString("\n")

	if len(a.Matches) > 0 {
		sb.WriteString("\n")
		sb.WriteString(MatchTable(a.Matches).View(styles))
	}

	return sb.String()
}
