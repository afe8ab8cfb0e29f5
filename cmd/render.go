package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/brogergvhs/tululu/internal/catalog"
	"github.com/brogergvhs/tululu/internal/config"
	"github.com/brogergvhs/tululu/internal/site"
	"github.com/brogergvhs/tululu/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagBooksPerPage int
	flagTemplate     string
	flagCatalog      string
	flagOut          string
	flagPathPrefix   string
	flagSingle       bool
	flagStatic       bool
	flagAddr         string
	flagNoServe      bool
)

func init() {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the catalog into paginated HTML pages and serve them with live reload",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}

	renderCmd.Flags().IntVar(&flagBooksPerPage, "books-per-page", 0, "books on one page (default 15)")
	renderCmd.Flags().StringVar(&flagTemplate, "template", "", "page template (default template.html)")
	renderCmd.Flags().StringVar(&flagCatalog, "catalog", "", "catalog file (default books_catalog.json)")
	renderCmd.Flags().StringVar(&flagOut, "out", "", "folder for the rendered pages (default pages)")
	renderCmd.Flags().StringVar(&flagPathPrefix, "path-prefix", site.DefaultPathPrefix, "prefix for img_src and book_path inside pages")
	renderCmd.Flags().BoolVar(&flagSingle, "single", false, "also render every book into a single index.html")
	renderCmd.Flags().BoolVar(&flagStatic, "static", false, "serve the site without live reload on "+site.DefaultStaticAddr)
	renderCmd.Flags().StringVar(&flagAddr, "addr", "", "live-reload server address (default "+site.DefaultAddr+")")
	renderCmd.Flags().BoolVar(&flagNoServe, "no-serve", false, "render once and exit")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	opts := config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		BooksPerPage: flagBooksPerPage,
		Template:     flagTemplate,
		PagesDir:     flagOut,
		Addr:         flagAddr,
	}
	if cmd.Flags().Changed("path-prefix") {
		opts.PathPrefix = &flagPathPrefix
	}

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		logSvc.Debugf("Config file: %s\n", usedPath)
	}

	catalogPath := flagCatalog
	if catalogPath == "" {
		catalogPath = catalog.ResolvePath(cfg.JSONPath, cfg.DestFolder)
	}

	renderOpts := site.Options{
		CatalogPath:  catalogPath,
		TemplatePath: cfg.Template,
		PagesDir:     cfg.PagesDir,
		BooksPerPage: cfg.BooksPerPage,
		PathPrefix:   cfg.PathPrefix,
	}
	if flagSingle {
		renderOpts.IndexPath = site.IndexFile
	}

	r := site.NewRenderer(renderOpts, logSvc)

	n, err := r.Rebuild()
	if err != nil {
		return err
	}
	logSvc.Infof("Rendered %d pages into %s\n", n, cfg.PagesDir)

	if flagNoServe {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagStatic {
		logSvc.Infof("Serving http://%s/%s\n", site.DefaultStaticAddr, filepath.ToSlash(filepath.Join(cfg.PagesDir, site.PageFile(1))))
		return site.NewServer(".", nil).ListenAndServe(ctx, site.DefaultStaticAddr)
	}

	hub := site.NewHub()
	go hub.Run()
	defer hub.Stop()

	w := site.NewWatcher([]string{cfg.Template, catalogPath}, func() {
		n, err := r.Rebuild()
		if err != nil {
			logSvc.Errorf("rebuild failed: %v\n", err)
			return
		}
		logSvc.Infof("Rebuilt %d pages\n", n)
		hub.Reload()
	}, logSvc)

	if err := w.Start(); err != nil {
		return fmt.Errorf("cannot watch %s: %w", cfg.Template, err)
	}
	go w.Run()
	defer func() {
		_ = w.Stop()
	}()

	logSvc.Infof("Serving http://%s/%s with live reload\n", cfg.Addr, filepath.ToSlash(filepath.Join(cfg.PagesDir, site.PageFile(1))))
	return site.NewServer(".", hub).ListenAndServe(ctx, cfg.Addr)
}
