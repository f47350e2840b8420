package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pbaille/gemrank/internal/browser"
	"github.com/pbaille/gemrank/internal/datestats"
	"github.com/pbaille/gemrank/internal/domain"
	"github.com/pbaille/gemrank/internal/fetcher"
	"github.com/pbaille/gemrank/internal/history"
	"github.com/pbaille/gemrank/internal/phrases"
	"github.com/pbaille/gemrank/internal/ranker"
	"github.com/pbaille/gemrank/internal/render"
	"github.com/pbaille/gemrank/internal/scraper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// buildAnalysis ranks the observations of one date
func buildAnalysis(date time.Time, sign string, results []domain.PhraseResult, stats []domain.DateStat, minimum, threshold int) (domain.Analysis, ranker.Tiers) {
	ranked := ranker.FromResults(results, stats).Rank(minimum, true)
	tiers := ranker.Classify(ranked, threshold, ranker.DefaultMinimumCount)

	return domain.Analysis{
		Date:          date,
		MoonSign:      sign,
		PhraseResults: results,
		DateStats:     stats,
		Ranked:        ranked,
		Significant:   tiers.Significant,
		Notable:       tiers.Notable,
		Summary:       ranker.Summarize(ranked),
	}, tiers
}

// lookupMoonSign tries the plain HTTP page first and falls back to the browser
func lookupMoonSign(ctx context.Context, sess *browser.Session, date time.Time) (string, error) {
	client := &http.Client{Timeout: cfg.Browser.NavigationTimeout()}
	sign, err := fetcher.MoonSign(ctx, client, cfg.Sites.MoonURL, date)
	if err == nil || errors.Is(err, fetcher.ErrNoMoonSign) {
		return sign, err
	}

	logger.Warn("Moon page fetch failed, using browser", zap.Error(err))
	return scraper.MoonSign(ctx, sess, cfg.Sites.MoonURL, date)
}

func analyzeCmd() *cobra.Command {
	var (
		dateStr     string
		minimum     int
		threshold   int
		historyPath string
		xlsxPath    string
		noSave      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Evaluate the phrases of a date and rank their values",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			date, err := parseDate(dateStr)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("min") {
				minimum = cfg.Ranking.MinimumCount
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Ranking.TierThreshold
			}

			sess, err := browser.Open(ctx, browserConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer sess.Close()

			sign, err := lookupMoonSign(ctx, sess, date)
			if errors.Is(err, fetcher.ErrNoMoonSign) {
				fmt.Println("(no moon sign found, skipping sign phrases)")
			} else if err != nil {
				return fmt.Errorf("moon sign: %w", err)
			}

			list := phrases.ForDate(date, sign)
			logger.Info("Evaluating phrases",
				zap.String("date", date.Format(dateLayout)),
				zap.String("moon_sign", sign),
				zap.Int("phrases", len(list)))

			calc := scraper.NewCalculator(sess, cfg.Sites.CalculatorURL, cfg.Ciphers, logger)
			results, err := calc.Evaluate(ctx, list)
			if err != nil {
				return fmt.Errorf("evaluate phrases: %w", err)
			}

			a, tiers := buildAnalysis(date, sign, results, datestats.For(date), minimum, threshold)

			if historyPath == "" {
				if _, err := os.Stat(cfg.History.ResultsPath); err == nil {
					historyPath = cfg.History.ResultsPath
				}
			}
			if historyPath != "" {
				past, err := history.ReadResults(historyPath)
				if err != nil {
					return err
				}
				a.Matches = history.CrossReference(past, tiers)
			}

			fmt.Print(render.Report(a, tiers, render.DefaultStyles()))

			if xlsxPath != "" {
				if err := history.ExportXLSX(xlsxPath, a); err != nil {
					return err
				}
				fmt.Printf("Exported: %s\n", xlsxPath)
			}

			if noSave {
				return nil
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.SaveRun(a)
			if err != nil {
				return err
			}
			fmt.Printf("Saved run: %s\n", run.ID[:8])
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "date to analyse, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&minimum, "min", ranker.DefaultMinimumCount, "minimum count to display")
	cmd.Flags().IntVar(&threshold, "threshold", ranker.DefaultTierThreshold, "count above which a value is significant")
	cmd.Flags().StringVar(&historyPath, "history", "", "phrase results file to cross-reference")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "export the analysis to an XLSX file")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "don't store the run")
	return cmd
}

func rankCmd() *cobra.Command {
	var (
		minimum   int
		threshold int
		unranked  bool
	)

	cmd := &cobra.Command{
		Use:   "rank [file]",
		Short: "Rank the values of a phrase results file without a browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.History.ResultsPath
			if len(args) == 1 {
				path = args[0]
			}
			if !cmd.Flags().Changed("min") {
				minimum = cfg.Ranking.MinimumCount
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Ranking.TierThreshold
			}
			out := cmd.OutOrStdout()

			results, err := history.ReadResults(path)
			if err != nil {
				return err
			}

			rk := ranker.FromResults(results, nil)
			entries := rk.Rank(minimum, !unranked)
			tiers := ranker.Classify(entries, threshold, ranker.DefaultMinimumCount)

			if len(entries) == 0 {
				fmt.Fprintf(out, "No value appears %d times or more in %d observations.\n", minimum, rk.Total())
				return nil
			}

			fmt.Fprint(out, render.RankedTable(entries, tiers).View(render.DefaultStyles()))
			s := ranker.Summarize(entries)
			fmt.Fprintf(out, "\n%d observations · %d distinct · %d shown · mean %.2f · max %.0f\n",
				rk.Total(), rk.Distinct(), len(entries), s.Mean, s.Max)
			return nil
		},
	}

	cmd.Flags().IntVar(&minimum, "min", ranker.DefaultMinimumCount, "minimum count to display")
	cmd.Flags().IntVar(&threshold, "threshold", ranker.DefaultTierThreshold, "count above which a value is significant")
	cmd.Flags().BoolVar(&unranked, "unranked", false, "keep first-appearance order")
	return cmd
}

func collectCmd() *cobra.Command {
	var (
		phrasesPath string
		outPath     string
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Evaluate a phrase list in batches and append the results to a history file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if phrasesPath == "" {
				phrasesPath = cfg.History.PhrasesPath
			}
			if outPath == "" {
				outPath = cfg.History.ResultsPath
			}
			if !cmd.Flags().Changed("batch") {
				batchSize = cfg.History.BatchSize
			}

			list, err := history.ReadPhrases(phrasesPath)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Printf("No phrases in %s\n", phrasesPath)
				return nil
			}

			sess, err := browser.Open(ctx, browserConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer sess.Close()

			calc := scraper.NewCalculator(sess, cfg.Sites.CalculatorURL, cfg.Ciphers, logger)
			done, err := calc.Collect(ctx, list, batchSize, func(batch []domain.PhraseResult) error {
				return history.AppendResults(outPath, batch)
			})
			fmt.Printf("Collected %d/%d phrases into %s\n", done, len(list), outPath)
			return err
		},
	}

	cmd.Flags().StringVar(&phrasesPath, "phrases", "", "phrase list file (CSV or XLSX)")
	cmd.Flags().StringVar(&outPath, "out", "", "results file to append to (CSV or XLSX)")
	cmd.Flags().IntVar(&batchSize, "batch", 5, "phrases per calculator batch")
	return cmd
}
