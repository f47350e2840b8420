// Package history reads and writes the phrase lists and phrase results kept
// as CSV or XLSX spreadsheets, and matches past results against a ranking.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbaille/gemrank/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither .csv nor .xlsx
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

type format int

const (
	formatCSV format = iota
	formatXLSX
)

func detect(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV, nil
	case ".xlsx":
		return formatXLSX, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// readRows returns every row of a CSV file or of the first XLSX sheet
func readRows(path string) ([][]string, error) {
	f, err := detect(path)
	if err != nil {
		return nil, err
	}
	if f == formatXLSX {
		return readXLSX(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadPhrases returns every non-empty cell of the file, row by row
func ReadPhrases(path string) ([]string, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var phrases []string
	for _, row := range rows {
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				phrases = append(phrases, cell)
			}
		}
	}
	return phrases, nil
}

// ReadResults reads rows of the form phrase, value...
func ReadResults(path string) ([]domain.PhraseResult, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var results []domain.PhraseResult
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		values := make([]string, 0, len(row)-1)
		for _, v := range row[1:] {
			values = append(values, strings.TrimSpace(v))
		}
		results = append(results, domain.PhraseResult{Phrase: strings.TrimSpace(row[0]), Values: values})
	}
	return results, nil
}

// AppendResults appends phrase, value... rows, creating the file if needed
func AppendResults(path string, results []domain.PhraseResult) error {
	f, err := detect(path)
	if err != nil {
		return err
	}
	if f == formatXLSX {
		return appendXLSX(path, results)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	for _, r := range results {
		if err := w.Write(append([]string{r.Phrase}, r.Values...)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func appendXLSX(path string, results []domain.PhraseResult) error {
	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		if f, err = excelize.OpenFile(path); err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
	} else {
		f = excelize.NewFile()
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for i, r := range results {
		if err := setRow(f, sheet, len(rows)+i+1, rowOf(r.Phrase, r.Values)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func rowOf(first string, rest []string) []any {
	row := make([]any, 0, len(rest)+1)
	row = append(row, first)
	for _, v := range rest {
		row = append(row, v)
	}
	return row
}

func setRow(f *excelize.File, sheet string, n int, row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}
