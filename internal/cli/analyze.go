package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/truthledger/internal/pipeline"
	"github.com/ppiankov/truthledger/internal/store"
	"github.com/ppiankov/truthledger/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	urlFile        string
	analyzeJSON    bool
	analyzeTimeout time.Duration
	dryRun         bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [url...]",
	Short: "Scrape and analyze news URLs",
	Long: `Analyze fetches every URL once, extracts claims, scores them against
the other articles in the same batch and stores them in the ledger.

URLs may be given as arguments, read from a file (one per line, # comments
allowed) or both.

Example:
  truthledger analyze https://news.example/a https://news.example/b
  truthledger analyze --file urls.txt --workers 4
  truthledger analyze --file urls.txt --json --dry-run`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&urlFile, "file", "f", "", "file with URLs, one per line")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the batch report as JSON on stdout")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	analyzeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "score claims without writing them to the database")

	analyzeCmd.Flags().Int("workers", 1, "number of URLs fetched concurrently")
	analyzeCmd.Flags().String("strategy", "paragraphs", "article text extraction (paragraphs, readability, visible)")
	analyzeCmd.Flags().String("scorer", "similarity", "truth scoring strategy (similarity, keyword)")
	analyzeCmd.Flags().Int("retries", 0, "retries for transient fetch failures")
	analyzeCmd.Flags().Bool("respect-robots", false, "skip URLs disallowed by robots.txt")
	analyzeCmd.Flags().Bool("no-cache", false, "disable the page cache")

	_ = viper.BindPFlag("concurrency.workers", analyzeCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("extract.strategy", analyzeCmd.Flags().Lookup("strategy"))
	_ = viper.BindPFlag("scoring.strategy", analyzeCmd.Flags().Lookup("scorer"))
	_ = viper.BindPFlag("http.max_retries", analyzeCmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("http.respect_robots", analyzeCmd.Flags().Lookup("respect-robots"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	urls := append([]string{}, args...)
	if urlFile != "" {
		fromFile, err := worker.ReadURLsFromFile(urlFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	urls = worker.NormalizeURLs(urls)
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass URLs as arguments or use --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	var saver pipeline.ClaimSaver
	if !dryRun {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		saver = st
	}

	p, err := pipeline.NewPipeline(cfg, saver, logger)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing %d URLs with %d workers...\n", len(urls), cfg.Concurrency.Workers)
	report := p.Analyze(ctx, urls)

	for _, a := range report.Articles {
		if a.ErrMessage != "" {
			fmt.Fprintf(os.Stderr, "✗ %s: %s (%s)\n", a.URL, a.Status, a.ErrMessage)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s: %s, %d claims\n", a.URL, a.Status, len(a.Claims))
		}
	}
	for _, w := range report.WarningMessages() {
		fmt.Fprintf(os.Stderr, "⚠ %s\n", w)
	}

	if len(report.Records) > 0 {
		fmt.Fprintf(os.Stderr, "\nAnalyzed %d claims! (%d saved)\n", len(report.Records), report.Saved)
	} else {
		fmt.Fprintf(os.Stderr, "\nNo claims were found for the provided URLs.\n")
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	}
	return nil
}
