package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkaragin/ldverify/internal/cache"
	"github.com/rkaragin/ldverify/internal/gather"
	"github.com/rkaragin/ldverify/internal/llm"
	"github.com/rkaragin/ldverify/internal/model"
	"github.com/rkaragin/ldverify/internal/pipeline"
	"github.com/rkaragin/ldverify/internal/ruleset"
	"github.com/rkaragin/ldverify/internal/score"
	"github.com/rkaragin/ldverify/internal/search"
	"github.com/rkaragin/ldverify/internal/table"
	"github.com/rkaragin/ldverify/internal/util"
)

var (
	outputPath  string
	rulesetPath string
	useWeb      bool
	rateDelay   time.Duration
	maxRetries  int
	maxResults  int
	maxPages    int
	maxRows     int
	httpTimeout time.Duration
	userAgent   string
	noCache     bool
	noRobots    bool
	llmEnabled  bool
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input.csv>",
	Short: "Verify a table of hospitals and write the scored output table",
	Long: `Run reads a CSV of hospitals (columns: name, city, state, year, and
an optional notes/evidence column), verifies each record, and writes
one scored output row per input row, in input order.

With --web-search, records without provided text are verified against
live search snippets; requests are paced globally and retried with
backoff. Without it, records lacking text get a no-evidence verdict.

Example:
  ldverify run hospitals.csv --output results.csv
  ldverify run hospitals.csv --web-search --rate-delay 3s --retries 3
  ldverify run hospitals.csv --ruleset my-keywords.yaml --web-search`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputPath, "output", "o", "results.csv", "output CSV path")
	runCmd.Flags().StringVar(&rulesetPath, "ruleset", "", "keyword ruleset YAML (default: built-in maternity ruleset)")
	runCmd.Flags().BoolVar(&useWeb, "web-search", false, "use live web search for records without provided text")
	runCmd.Flags().DurationVar(&rateDelay, "rate-delay", 2*time.Second, "minimum delay between any two network requests")
	runCmd.Flags().IntVar(&maxRetries, "retries", 3, "retries per request on transient failure")
	runCmd.Flags().IntVar(&maxResults, "max-results", 5, "search result snippets kept per query")
	runCmd.Flags().IntVar(&maxPages, "max-pages", 2, "result pages fetched per record (0 disables)")
	runCmd.Flags().IntVar(&maxRows, "max-rows", 500, "input row ceiling")
	runCmd.Flags().DurationVar(&httpTimeout, "timeout", 15*time.Second, "HTTP timeout per request")
	runCmd.Flags().StringVar(&userAgent, "ua", "ldverify/0.1 (+https://github.com/rkaragin/ldverify)", "HTTP User-Agent")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search response cache")
	runCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks on result pages")
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "append an LLM audit note to each result (needs OPENAI_API_KEY)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model for audit notes")
}

func runVerify(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = httpTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.Search.Enabled = useWeb
	cfg.Search.RateDelay = rateDelay
	cfg.Search.MaxRetries = maxRetries
	cfg.Search.MaxResults = maxResults
	cfg.Search.MaxPages = maxPages
	cfg.Engine.MaxRows = maxRows
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose

	// Ruleset: fatal before any processing when malformed.
	rules, err := loadRuleset()
	if err != nil {
		return err
	}

	// Input table: fatal before any processing when invalid.
	records, err := table.ReadCSV(input, cfg.Engine)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg, rules)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Input:      %s (%d records)\n", input, len(records))
		fmt.Fprintf(os.Stderr, "Ruleset:    %d positive, %d negative keywords\n", len(rules.Positive), len(rules.Negative))
		fmt.Fprintf(os.Stderr, "Web search: %v\n", useWeb)
		fmt.Fprintln(os.Stderr)
	}

	ctx := context.Background()
	results, err := engine.Run(ctx, records, useWeb, func(done, total int) bool {
		fmt.Fprintf(os.Stderr, "\r[%d/%d] processed", done, total)
		return true
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if err := table.WriteCSV(outputPath, results); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSummary(results)
	fmt.Fprintf(os.Stderr, "Output: %s\n", outputPath)
	return nil
}

// loadRuleset resolves the ruleset: explicit file, or built-in default.
func loadRuleset() (*ruleset.Ruleset, error) {
	if rulesetPath == "" {
		return ruleset.Default(), nil
	}
	return ruleset.Load(rulesetPath)
}

// buildEngine assembles the collaborators behind the engine.
func buildEngine(cfg *model.Config, rules *ruleset.Ruleset) (*pipeline.Engine, error) {
	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	searcher := search.NewDuckDuckGo(client, cfg.HTTP.UserAgent, cfg.Search.MaxRetries, cfg.HTTP.MaxBodyBytes)

	var pages *gather.PageFetcher
	if cfg.Search.MaxPages > 0 {
		pages = gather.NewPageFetcher(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.Search.MaxRetries)
	}

	var robots *util.RobotsChecker
	if !noRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			home, err := homeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, "cache")
		}
		store = cache.NewLayeredCache(cfg.Cache.TTL, dir, cfg.Cache.TTL)
	}

	pacer := gather.NewPacer(cfg.Search.RateDelay)
	gatherer := gather.New(searcher, pages, robots, pacer, store, cfg.Search)
	scorer := score.NewScorer(cfg.Score)

	engine := pipeline.New(gatherer, scorer, rules, cfg.Engine.MaxRows)
	engine.SetWarnWriter(os.Stderr)

	if llmEnabled {
		llmCfg := cfg.LLM
		llmCfg.Model = llmModel
		llmCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		if llmCfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		annotator, err := llm.NewAnnotator(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("init annotator: %w", err)
		}
		engine.SetAnnotator(annotator)
	}

	return engine, nil
}

// printSummary reports verdict counts to stderr.
func printSummary(results []model.VerificationResult) {
	counts := map[model.Verdict]int{}
	for _, r := range results {
		counts[r.Verdict]++
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Total:       %d\n", len(results))
	fmt.Fprintf(os.Stderr, "Confirmed:   %d\n", counts[model.VerdictConfirmed])
	fmt.Fprintf(os.Stderr, "Likely:      %d\n", counts[model.VerdictLikely])
	fmt.Fprintf(os.Stderr, "Unlikely:    %d\n", counts[model.VerdictUnlikely])
	fmt.Fprintf(os.Stderr, "No evidence: %d\n", counts[model.VerdictNoEvidence])
	fmt.Fprintf(os.Stderr, "Errors:      %d\n", counts[model.VerdictError])
}
