package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/imoan723/JSRecon-Buddy/pkg/cache"
	"github.com/imoan723/JSRecon-Buddy/pkg/export"
	"github.com/imoan723/JSRecon-Buddy/pkg/gather"
	"github.com/imoan723/JSRecon-Buddy/pkg/matcher"
	"github.com/imoan723/JSRecon-Buddy/pkg/rule"
	"github.com/imoan723/JSRecon-Buddy/pkg/scanner"
	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	scanRender       bool
	scanParams       []string
	scanEnableRules  string
	scanDisableRules string
	scanRulesPath    string
	scanFormat       string
	scanOutputPath   string
	scanNoColor      bool
	scanCachePath    string
	scanForce        bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a web page for recon material",
	Long: `Gather a page's HTML and scripts, decode them, and run the full
detector set: secret rules, subdomains, endpoints, DOM sinks, interesting
parameters, library versions, and source map references.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanRender, "render", false, "Render the page in headless Chrome before gathering")
	scanCmd.Flags().StringSliceVar(&scanParams, "params", nil, "Parameter names to flag (comma-separated, builtin list when unset)")
	scanCmd.Flags().StringVar(&scanEnableRules, "enable-rules", "", "Only run rules matching these regex patterns (comma-separated)")
	scanCmd.Flags().StringVar(&scanDisableRules, "disable-rules", "", "Skip rules matching these regex patterns (comma-separated)")
	scanCmd.Flags().StringVar(&scanRulesPath, "rules", "", "Path to a custom rule YAML file")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "", "Write the report to a file instead of stdout")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "Disable colored output")
	scanCmd.Flags().StringVar(&scanCachePath, "cache", "", "SQLite cache path for result reuse")
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "Bypass the cache and rescan")
}

func runScan(cmd *cobra.Command, args []string) error {
	pageURL := args[0]
	ctx := cmd.Context()

	rules, err := loadScanRules()
	if err != nil {
		return err
	}

	var store cache.Cache
	if scanCachePath != "" {
		store, err = cache.NewSQLite(scanCachePath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()
	}
	key := types.PageKey{TabID: types.NoTab, URL: pageURL}

	var res *types.ScanResult
	if store != nil && !scanForce {
		if cached, ok, err := store.Get(ctx, key); err == nil && ok {
			res = cached
		}
	}

	if res == nil {
		res, err = gatherAndScan(ctx, pageURL, rules)
		if err != nil {
			return err
		}
		if store != nil {
			if err := store.Put(ctx, key, res); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: caching result: %v\n", err)
			}
		}
	}

	out := cmd.OutOrStdout()
	if scanOutputPath != "" {
		f, err := os.Create(scanOutputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch scanFormat {
	case "json":
		return export.JSON(out, export.NewDocument(pageURL, res))
	case "sarif":
		return export.SARIF(out, pageURL, res, rules)
	case "human":
		return outputHuman(out, pageURL, res)
	default:
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}
}

func loadScanRules() ([]*types.Rule, error) {
	rules, err := loadCatalog(scanRulesPath)
	if err != nil {
		return nil, err
	}
	if scanEnableRules != "" || scanDisableRules != "" {
		rules, err = rule.Filter(rules, rule.FilterConfig{
			Include: rule.ParsePatterns(scanEnableRules),
			Exclude: rule.ParsePatterns(scanDisableRules),
		})
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}
	return rules, nil
}

func gatherAndScan(ctx context.Context, pageURL string, rules []*types.Rule) (*types.ScanResult, error) {
	var gatherer gather.Gatherer
	if scanRender {
		gatherer = gather.NewChrome()
	} else {
		gatherer = gather.NewHTTP()
	}

	page, err := gatherer.Gather(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("gathering page: %w", err)
	}
	sources := gather.NewFetcher().Sources(ctx, page)

	params := scanParams
	if params == nil {
		params = matcher.DefaultParams
	}
	core, err := scanner.NewCore(rules, params)
	if err != nil {
		return nil, fmt.Errorf("building scan engine: %w", err)
	}
	res, err := core.Scan(ctx, pageURL, sources)
	if err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	return res, nil
}

// outputHuman prints a colored per-category report. Color is dropped when
// stdout is not a terminal, or via --no-color / NO_COLOR.
func outputHuman(w io.Writer, pageURL string, res *types.ScanResult) error {
	useColor := !scanNoColor && os.Getenv("NO_COLOR") == ""
	if f, ok := w.(*os.File); ok {
		useColor = useColor && term.IsTerminal(int(f.Fd()))
	}

	header := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgHiWhite)
	meta := color.New(color.Faint)
	if !useColor {
		header.DisableColor()
		value.DisableColor()
		meta.DisableColor()
	}

	doc := export.NewDocument(pageURL, res)
	if doc.FindingCount() == 0 {
		fmt.Fprintf(w, "No findings for %s\n", pageURL)
		return nil
	}

	fmt.Fprintf(w, "Scan results for %s (%d findings)\n", pageURL, doc.FindingCount())
	for _, cat := range doc.Categories {
		fmt.Fprintln(w)
		header.Fprintf(w, "%s (%d)\n", cat.Name, len(cat.Findings))
		for _, f := range cat.Findings {
			value.Fprintf(w, "  %s\n", f.Value)
			for _, occ := range f.Occurrences {
				if occ.Context != "" {
					meta.Fprintf(w, "    %s: %s\n", occ.Source, occ.Context)
				} else {
					meta.Fprintf(w, "    %s\n", occ.Source)
				}
			}
		}
	}
	return nil
}
