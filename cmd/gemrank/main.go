package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pbaille/gemrank/internal/api"
	"github.com/pbaille/gemrank/internal/browser"
	"github.com/pbaille/gemrank/internal/config"
	"github.com/pbaille/gemrank/internal/ranker"
	"github.com/pbaille/gemrank/internal/render"
	"github.com/pbaille/gemrank/internal/scraper"
	"github.com/pbaille/gemrank/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ scraper.Page = (*browser.Session)(nil)

var (
	// Global flags
	cfgPath string
	dbPath  string
	verbose bool

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gemrank",
		Short: "Rank recurring gematria values for a date",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zc := zap.NewProductionConfig()
			if verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l

			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(analyzeCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(collectCmd())
	root.AddCommand(runsCmd())
	root.AddCommand(showCmd())
	root.AddCommand(recurringCmd())
	root.AddCommand(serveCmd())

	return root
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(cfg.Database.Path)
}

func browserConfig(c *config.Config) browser.Config {
	return browser.Config{
		Headless:          c.Browser.Headless,
		Bin:               c.Browser.Bin,
		DebuggerURL:       c.Browser.DebuggerURL,
		NavigationTimeout: c.Browser.NavigationTimeout(),
		WaitTimeout:       c.Browser.ElementTimeout(),
	}
}

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(limit, 0)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs yet. Use 'gemrank analyze' to create one.")
				return nil
			}

			for _, r := range runs {
				top := make([]string, 0, 3)
				for _, e := range r.Analysis.Ranked[:min(3, len(r.Analysis.Ranked))] {
					top = append(top, fmt.Sprintf("%s×%d", e.Value, e.Count))
				}
				fmt.Printf("%s  %s  %-12s %s\n",
					r.ID[:8],
					r.Analysis.Date.Format("2006-01-02"),
					r.Analysis.MoonSign,
					truncate(strings.Join(top, " "), 40))
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("run not found: %s", args[0])
			}
			if err != nil {
				return err
			}

			tiers := ranker.Restore(run.Analysis.Significant, run.Analysis.Notable)

			fmt.Printf("ID:      %s\n", run.ID)
			fmt.Printf("Created: %s\n\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Print(render.Report(run.Analysis, tiers, render.DefaultStyles()))
			return nil
		},
	}
}

func recurringCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "List values that reached a tier in the most runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			values, err := s.RecurringValues(limit)
			if err != nil {
				return err
			}

			if len(values) == 0 {
				fmt.Println("No highlighted values stored yet.")
				return nil
			}

			for _, v := range values {
				fmt.Printf("%8s  %d runs\n", v.Value, v.Count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of values to show")
	return cmd
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			server := api.New(s, addr, logger)
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}
