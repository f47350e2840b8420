package history

import (
	"fmt"
	"strings"

	"github.com/pbaille/gemrank/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported analysis
const (
	SheetCiphers   = "Ciphers"
	SheetDateStats = "Date Stats"
	SheetRanked    = "Ranked"
	SheetMatches   = "Matches"
)

// ExportXLSX writes an analysis to a workbook with one sheet per table
func ExportXLSX(path string, a domain.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetCiphers); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, r := range a.PhraseResults {
		if err := setRow(f, SheetCiphers, i+1, rowOf(r.Phrase, r.Values)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetDateStats); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	for i, s := range a.DateStats {
		if err := setRow(f, SheetDateStats, i+1, rowOf(s.Name, s.Values())); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetRanked); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := setRow(f, SheetRanked, 1, []any{"Value", "Count"}); err != nil {
		return err
	}
	for i, e := range a.Ranked {
		if err := setRow(f, SheetRanked, i+2, []any{e.Value, e.Count}); err != nil {
			return err
		}
	}

	if len(a.Matches) > 0 {
		if _, err := f.NewSheet(SheetMatches); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		if err := setRow(f, SheetMatches, 1, []any{"Phrase", "Significant", "Notable"}); err != nil {
			return err
		}
		for i, m := range a.Matches {
			row := []any{m.Phrase, strings.Join(m.Significant, " "), strings.Join(m.Notable, " ")}
			if err := setRow(f, SheetMatches, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
