package scraper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/pbaille/gemrank/internal/domain"
	"github.com/pbaille/gemrank/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePage emulates the calculator and moon calendar DOM
type fakePage struct {
	menu      []string
	ciphers   []string
	checked   map[string]bool
	cancelled bool
	saved     bool
	entry     string
	history   [][]string // entry order
	hidden    int        // history reads that still see the old table
	alts      []string
	missing   map[string]bool
	navigated []string
}

func newFakePage() *fakePage {
	return &fakePage{
		menu:    []string{"Options ", "Ciphers ", "History "},
		ciphers: []string{"English Ordinal", "Chaldean", "Satanic"},
		checked: map[string]bool{"English Ordinal": true},
		missing: map[string]bool{},
	}
}

func valueOf(phrase string) []string {
	return []string{strconv.Itoa(len(phrase)), strconv.Itoa(len(phrase) * 10)}
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakePage) WaitClickable(_ context.Context, selector string) error {
	if f.missing[selector] {
		return fmt.Errorf("wait for %s: context deadline exceeded", selector)
	}
	return nil
}

func (f *fakePage) Click(_ context.Context, selector string) error {
	switch selector {
	case selCancelCiphers:
		f.cancelled = true
		f.checked = map[string]bool{}
	case selSaveCiphers:
		f.saved = true
	}
	return nil
}

func (f *fakePage) ClickNth(_ context.Context, selector string, i int, sub string) error {
	if selector == selCipherRow && sub == "input" {
		name := f.ciphers[i]
		f.checked[name] = !f.checked[name]
	}
	return nil
}

func (f *fakePage) Clear(context.Context, string) error {
	f.entry = ""
	return nil
}

func (f *fakePage) Input(_ context.Context, _ string, text string) error {
	f.entry += text
	return nil
}

func (f *fakePage) PressEnter(context.Context, string) error {
	f.history = append(f.history, valueOf(f.entry))
	f.hidden++
	return nil
}

func (f *fakePage) Texts(_ context.Context, selector string) ([]string, error) {
	if selector == selMenuItem {
		return f.menu, nil
	}
	return nil, nil
}

func (f *fakePage) Attrs(context.Context, string, string) ([]string, error) {
	return f.alts, nil
}

func (f *fakePage) Grid(_ context.Context, rowSelector, _ string) ([][]string, error) {
	switch rowSelector {
	case selCipherRow:
		rows := make([][]string, len(f.ciphers))
		for i, c := range f.ciphers {
			rows[i] = []string{c}
		}
		return rows, nil
	case selHistoryRow:
		visible := f.history
		if f.hidden > 0 && len(visible) > 0 {
			visible = visible[:len(visible)-1]
			f.hidden--
		}
		rows := [][]string{{}}
		for i := len(visible) - 1; i >= 0; i-- {
			rows = append(rows, visible[i])
		}
		return rows, nil
	}
	return nil, nil
}

func newTestCalculator(p Page) *Calculator {
	c := NewCalculator(p, "https://calc.test/calculator", []string{"Chaldean"}, zap.NewNop())
	c.PollInterval = time.Millisecond
	return c
}

func TestCalculator_SelectCiphers(t *testing.T) {
	page := newFakePage()
	c := newTestCalculator(page)

	require.NoError(t, c.SelectCiphers(context.Background()))

	assert.True(t, page.cancelled)
	assert.True(t, page.saved)
	assert.Equal(t, map[string]bool{"Chaldean": true}, page.checked)
}

func TestCalculator_Evaluate(t *testing.T) {
	page := newFakePage()
	c := newTestCalculator(page)

	got, err := c.Evaluate(context.Background(), []string{"mars", "moon in aries", "Monday"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://calc.test/calculator"}, page.navigated)
	assert.Equal(t, []domain.PhraseResult{
		{Phrase: "mars", Values: []string{"4", "40"}},
		{Phrase: "moon in aries", Values: []string{"13", "130"}},
		{Phrase: "Monday", Values: []string{"6", "60"}},
	}, got)
}

func TestCalculator_EvaluateEmpty(t *testing.T) {
	c := newTestCalculator(newFakePage())

	got, err := c.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCalculator_Collect(t *testing.T) {
	page := newFakePage()
	c := newTestCalculator(page)
	phrases := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "ggggggg"}

	var batches [][]domain.PhraseResult
	done, err := c.Collect(context.Background(), phrases, 3, func(rows []domain.PhraseResult) error {
		batches = append(batches, rows)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, done)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[2], 1, "trailing partial batch is collected")

	all := slices.Concat(batches...)
	for i, r := range all {
		assert.Equal(t, phrases[i], r.Phrase)
		assert.Equal(t, valueOf(phrases[i]), r.Values, "phrase %q paired with its own row", r.Phrase)
	}
}

func TestCalculator_CollectSinkError(t *testing.T) {
	c := newTestCalculator(newFakePage())
	boom := errors.New("disk full")

	done, err := c.Collect(context.Background(), []string{"a", "b", "c"}, 2, func([]domain.PhraseResult) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, done)
}

func TestCalculator_CollectBadBatch(t *testing.T) {
	c := newTestCalculator(newFakePage())

	_, err := c.Collect(context.Background(), []string{"a"}, 0, nil)
	assert.ErrorContains(t, err, "batch size")
}

func TestCalculator_MissingElement(t *testing.T) {
	page := newFakePage()
	page.missing[selEntryField] = true
	c := newTestCalculator(page)

	_, err := c.Evaluate(context.Background(), []string{"mars"})
	assert.ErrorContains(t, err, selEntryField)
}

func TestCalculator_HistoryNeverArrives(t *testing.T) {
	page := newFakePage()
	page.hidden = 1000
	c := newTestCalculator(page)
	c.PollAttempts = 3

	_, err := c.Evaluate(context.Background(), []string{"mars"})
	assert.ErrorIs(t, err, errHistoryPending)
}

func TestMoonSign(t *testing.T) {
	page := newFakePage()
	page.alts = []string{"New Moon", "Virgo"}
	date := time.Date(2025, time.September, 7, 0, 0, 0, 0, time.UTC)

	sign, err := MoonSign(context.Background(), page, "https://moon.test", date)
	require.NoError(t, err)
	assert.Equal(t, "virgo", sign)
	assert.Equal(t, []string{"https://moon.test/moon-phase-day-07-september-2025"}, page.navigated)

	page.alts = []string{"New Moon"}
	_, err = MoonSign(context.Background(), page, "https://moon.test", date)
	assert.ErrorIs(t, err, fetcher.ErrNoMoonSign)
}
