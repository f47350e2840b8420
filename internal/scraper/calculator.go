// Package scraper drives the gematrinator calculator and the moon calendar
// through a browser page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/pbaille/gemrank/internal/domain"
	"go.uber.org/zap"
)

// Calculator page selectors
const (
	selMenuItem      = ".calcMenuItem"
	selCancelCiphers = "#CancelCiphers"
	selSaveCiphers   = "#SaveCiphers"
	selCipherBox     = "#cipherBox"
	selCipherRow     = "#cipherBox li"
	selEntryField    = "#EntryField"
	selHistoryTable  = "#printHistoryTable"
	selHistoryRow    = "#printHistoryTable tr"
	selHistorySum    = "td.HistorySum #finalBreakNum"

	ciphersMenuLabel = "ciphers"
)

var errHistoryPending = errors.New("history table not updated yet")

// Page is the subset of a browser page the scrapers need.
// browser.Session implements it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitClickable(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	ClickNth(ctx context.Context, selector string, i int, sub string) error
	Clear(ctx context.Context, selector string) error
	Input(ctx context.Context, selector, text string) error
	PressEnter(ctx context.Context, selector string) error
	Texts(ctx context.Context, selector string) ([]string, error)
	Attrs(ctx context.Context, selector, name string) ([]string, error)
	Grid(ctx context.Context, rowSelector, cellSelector string) ([][]string, error)
}

// Calculator enters phrases into the gematrinator calculator and reads back
// one value per selected cipher
type Calculator struct {
	page    Page
	url     string
	ciphers []string
	log     *zap.Logger

	// history polling
	PollInterval time.Duration
	PollAttempts uint

	entered int
}

// NewCalculator creates a Calculator for the page at url using ciphers (matched case-insensitively)
func NewCalculator(page Page, url string, ciphers []string, log *zap.Logger) *Calculator {
	if log == nil {
		log = zap.NewNop()
	}
	lower := make([]string, len(ciphers))
	for i, c := range ciphers {
		lower[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return &Calculator{
		page:         page,
		url:          url,
		ciphers:      lower,
		log:          log,
		PollInterval: 250 * time.Millisecond,
		PollAttempts: 40,
	}
}

// Open loads the calculator and selects the configured ciphers
func (c *Calculator) Open(ctx context.Context) error {
	if err := c.page.Navigate(ctx, c.url); err != nil {
		return err
	}
	c.entered = 0
	return c.SelectCiphers(ctx)
}

// SelectCiphers resets the cipher preset and ticks the configured ciphers
func (c *Calculator) SelectCiphers(ctx context.Context) error {
	if err := c.page.WaitClickable(ctx, selMenuItem); err != nil {
		return err
	}

	items, err := c.page.Texts(ctx, selMenuItem)
	if err != nil {
		return err
	}
	for i, text := range items {
		if strings.ToLower(strings.TrimSpace(text)) != ciphersMenuLabel {
			continue
		}
		// Opening the menu shows the preset; cancel it and reopen for a clean box
		if err := c.page.ClickNth(ctx, selMenuItem, i, ""); err != nil {
			return fmt.Errorf("open ciphers menu: %w", err)
		}
		if err := c.page.WaitClickable(ctx, selCancelCiphers); err != nil {
			return err
		}
		if err := c.page.Click(ctx, selCancelCiphers); err != nil {
			return fmt.Errorf("cancel ciphers: %w", err)
		}
		if err := c.page.WaitClickable(ctx, selMenuItem); err != nil {
			return err
		}
		if err := c.page.ClickNth(ctx, selMenuItem, i, ""); err != nil {
			return fmt.Errorf("reopen ciphers menu: %w", err)
		}
	}

	if err := c.page.WaitClickable(ctx, selCipherBox); err != nil {
		return err
	}
	labels, err := c.page.Grid(ctx, selCipherRow, "font")
	if err != nil {
		return err
	}

	selected := 0
	for i, row := range labels {
		if len(row) == 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(row[0]))
		if !slices.Contains(c.ciphers, name) {
			continue
		}
		if err := c.page.ClickNth(ctx, selCipherRow, i, "input"); err != nil {
			return fmt.Errorf("select cipher %s: %w", name, err)
		}
		selected++
		c.log.Debug("Selected cipher", zap.String("cipher", name))
	}
	if selected == 0 {
		c.log.Warn("No configured cipher found on page", zap.Strings("ciphers", c.ciphers))
	}

	if err := c.page.Click(ctx, selSaveCiphers); err != nil {
		return fmt.Errorf("save ciphers: %w", err)
	}
	return nil
}

// EnterPhrases submits each phrase to the entry field
func (c *Calculator) EnterPhrases(ctx context.Context, phrases []string) error {
	if err := c.page.WaitClickable(ctx, selEntryField); err != nil {
		return err
	}
	for _, p := range phrases {
		if err := c.page.Clear(ctx, selEntryField); err != nil {
			return fmt.Errorf("clear entry: %w", err)
		}
		if err := c.page.Input(ctx, selEntryField, p); err != nil {
			return fmt.Errorf("enter %q: %w", p, err)
		}
		if err := c.page.PressEnter(ctx, selEntryField); err != nil {
			return fmt.Errorf("submit %q: %w", p, err)
		}
		c.entered++
	}
	return nil
}

// ReadHistory returns the cipher values of every history row in entry order.
// The page lists the newest entry first.
func (c *Calculator) ReadHistory(ctx context.Context) ([][]string, error) {
	grid, err := c.page.Grid(ctx, selHistoryRow, selHistorySum)
	if err != nil {
		return nil, err
	}
	if len(grid) > 0 {
		grid = grid[1:] // header
	}
	slices.Reverse(grid)
	return grid, nil
}

// waitHistory polls the history table until it holds at least n rows
func (c *Calculator) waitHistory(ctx context.Context, n int) ([][]string, error) {
	if err := c.page.WaitClickable(ctx, selHistoryTable); err != nil {
		return nil, err
	}

	var rows [][]string
	err := retry.Do(
		func() error {
			var err error
			rows, err = c.ReadHistory(ctx)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if len(rows) < n {
				return fmt.Errorf("%w: %d of %d rows", errHistoryPending, len(rows), n)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.PollAttempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(c.PollInterval),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return rows, nil
}

// Submit enters phrases on an already opened calculator and pairs each
// phrase with its history row
func (c *Calculator) Submit(ctx context.Context, phrases []string) ([]domain.PhraseResult, error) {
	if len(phrases) == 0 {
		return nil, nil
	}
	if err := c.EnterPhrases(ctx, phrases); err != nil {
		return nil, err
	}

	rows, err := c.waitHistory(ctx, c.entered)
	if err != nil {
		return nil, err
	}
	rows = rows[len(rows)-len(phrases):]

	results := make([]domain.PhraseResult, len(phrases))
	for i, p := range phrases {
		results[i] = domain.PhraseResult{Phrase: p, Values: rows[i]}
	}
	c.log.Debug("Read phrase results", zap.Int("phrases", len(phrases)))
	return results, nil
}

// Evaluate opens the calculator and returns the values of phrases
func (c *Calculator) Evaluate(ctx context.Context, phrases []string) ([]domain.PhraseResult, error) {
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c.Submit(ctx, phrases)
}

// Collect evaluates phrases in batches and hands every batch to sink as soon
// as it is read, so a failure keeps the batches already written
func (c *Calculator) Collect(ctx context.Context, phrases []string, batchSize int, sink func([]domain.PhraseResult) error) (int, error) {
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if err := c.Open(ctx); err != nil {
		return 0, err
	}

	done := 0
	for batch := range slices.Chunk(phrases, batchSize) {
		results, err := c.Submit(ctx, batch)
		if err != nil {
			return done, fmt.Errorf("batch at %d: %w", done, err)
		}
		if err := sink(results); err != nil {
			return done, fmt.Errorf("write batch at %d: %w", done, err)
		}
		done += len(batch)
		c.log.Info("Collected batch", zap.Int("done", done), zap.Int("total", len(phrases)))
	}
	return done, nil
}
