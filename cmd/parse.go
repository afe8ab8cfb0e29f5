package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/brogergvhs/tululu/internal/catalog"
	"github.com/brogergvhs/tululu/internal/config"
	"github.com/brogergvhs/tululu/internal/downloader"
	"github.com/brogergvhs/tululu/internal/fetch"
	"github.com/brogergvhs/tululu/internal/pipeline"
	"github.com/brogergvhs/tululu/internal/tululu"
	"github.com/brogergvhs/tululu/internal/ui"
	"github.com/brogergvhs/tululu/internal/util"

	"github.com/spf13/cobra"
)

var (
	// range
	flagStartPage int
	flagEndPage   int

	// output
	flagDestFolder string
	flagJSONPath   string
	flagSkipImgs   bool
	flagSkipTxt    bool

	// site and transport
	flagBaseURL    string
	flagCategory   string
	flagPause      time.Duration
	flagUserAgent  string
	flagCookie     string
	flagCookieFile string
	flagCFBypass   bool
)

func init() {
	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Download book texts, covers and metadata from a tululu.org category. Uses the defaults from the selected config, overwritten by CLI flags",
		Args:  cobra.NoArgs,
		RunE:  runParse,
	}

	parseCmd.Flags().IntVar(&flagStartPage, "start-page", 1, "first listing page to scrape")
	parseCmd.Flags().IntVar(&flagEndPage, "end-page", 0, "listing page to stop before (default: last page of the category + 1)")

	parseCmd.Flags().StringVar(&flagDestFolder, "dest-folder", "", "folder for images, texts and the catalog")
	parseCmd.Flags().StringVar(&flagJSONPath, "json-path", "", "catalog file path (default: <dest-folder>/books_catalog.json)")
	parseCmd.Flags().BoolVar(&flagSkipImgs, "skip-imgs", false, "do not download covers")
	parseCmd.Flags().BoolVar(&flagSkipTxt, "skip-txt", false, "do not download texts")

	parseCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "library site root")
	parseCmd.Flags().StringVar(&flagCategory, "category", "", "category path segment, e.g. l55")
	parseCmd.Flags().DurationVar(&flagPause, "pause", 0, "pause after a connection error, 0 disables it (default 2s)")
	parseCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	parseCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	parseCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	parseCmd.Flags().BoolVar(&flagCFBypass, "cf-bypass", false, "route requests through the Cloudflare bypass transport")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, _ []string) error {
	opts := config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		BaseURL:      flagBaseURL,
		Category:     flagCategory,
		DestFolder:   flagDestFolder,
		JSONPath:     flagJSONPath,
		SkipImgs:     flagSkipImgs,
		SkipTxt:      flagSkipTxt,
		UserAgent:    flagUserAgent,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
		CFBypass:     flagCFBypass,
	}
	if cmd.Flags().Changed("pause") {
		opts.Pause = &flagPause
	}

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return err
	}

	if flagStartPage < 1 {
		return fmt.Errorf("--start-page must be at least 1, got %d", flagStartPage)
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		logSvc.Debugf("Config file: %s\n", usedPath)
	}

	client := fetch.NewHTTPClient(fetch.HTTPClientOptions{
		Timeout:          30 * time.Second,
		UserAgent:        fetch.PickUserAgent(cfg.UserAgent),
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CFBypass,
		DebugLogger:      logSvc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.NewFetcher(client, logSvc)
	site := tululu.NewClient(fetcher, cfg.BaseURL, cfg.Category)

	endPage, err := resolveEndPage(ctx, site, flagStartPage, flagEndPage, cmd.Flags().Changed("end-page"))
	if err != nil {
		return err
	}
	logSvc.Debugf("listing pages %d..%d\n", flagStartPage, endPage-1)

	dest := filepath.Clean(cfg.DestFolder)
	imageFolder := filepath.Join(dest, pipeline.ImagesDir)
	textFolder := filepath.Join(dest, pipeline.BooksDir)

	for _, dir := range []string{imageFolder, textFolder} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create output folder: %w", err)
		}
	}

	stats := &ui.Stats{}
	dl := downloader.New(fetcher, stats, logSvc)

	p := pipeline.New(site, dl, logSvc, stats)

	pm := ui.NewProgressManager(os.Stdout)
	handle := pm.Register("Books", stats)
	p.SetProgress(handle)

	start := time.Now()
	res, runErr := p.Run(ctx, pipeline.Options{
		StartPage:  flagStartPage,
		EndPage:    endPage,
		DestFolder: dest,
		SkipImages: cfg.SkipImgs,
		SkipTexts:  cfg.SkipTxt,
		Pause:      cfg.Pause,
	})

	handle.MarkDone()
	pm.Close()

	catalogPath := catalog.ResolvePath(cfg.JSONPath, dest)
	saved, err := saveCatalog(res, runErr, catalogPath)
	if err != nil {
		return err
	}
	if !saved {
		logSvc.Warnf("nothing collected, %s left untouched\n", catalogPath)
	}

	res.WriteErrors(os.Stderr)
	util.RemoveEmptyDirs(os.Stdout, imageFolder, textFolder)

	if runErr != nil {
		if saved {
			fmt.Printf("Partial catalog with %d books saved to %s\n", res.Catalog.Len(), catalogPath)
		}
		return runErr
	}

	fmt.Println()
	fmt.Println("Parse Summary:")
	fmt.Printf("Books:    %d\n", stats.TotalBooks.Load())
	fmt.Printf("Texts:    %d\n", stats.TotalTexts.Load())
	fmt.Printf("Images:   %d\n", stats.TotalImages.Load())
	fmt.Printf("Skipped:  %d\n", stats.TotalSkipped.Load())
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("Catalog:  %s\n", catalogPath)

	if ctx.Err() != nil {
		fmt.Println("\nInterrupted, partial catalog saved.")
		return nil
	}
	fmt.Println("\nAll done.")

	return nil
}

type lastPager interface {
	LastPage(ctx context.Context) (int, error)
}

// resolveEndPage asks the site for its last page only when the user gave
// no --end-page.
func resolveEndPage(ctx context.Context, site lastPager, start, end int, explicit bool) (int, error) {
	if !explicit {
		last, err := site.LastPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("cannot find the last listing page: %w", err)
		}
		end = last
	}

	if end <= start {
		return 0, fmt.Errorf("--end-page (%d) must be greater than --start-page (%d)", end, start)
	}
	return end, nil
}

// saveCatalog writes the catalog unless the listing failed before a single
// book was collected, so an earlier catalog at path is not replaced by an
// empty one.
func saveCatalog(res *pipeline.Result, runErr error, path string) (bool, error) {
	if runErr != nil && res.Catalog.Len() == 0 {
		return false, nil
	}

	if err := res.Catalog.Save(path); err != nil {
		return false, fmt.Errorf("cannot save catalog: %w", err)
	}
	return true, nil
}
