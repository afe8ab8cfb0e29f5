// Package pipeline runs one scrape: it lists the books, then fetches,
// parses and downloads them one at a time. A failing book is skipped and
// reported after the run. A listing failure ends the listing early; the
// books found before it are still processed.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/brogergvhs/tululu/internal/catalog"
	"github.com/brogergvhs/tululu/internal/downloader"
	"github.com/brogergvhs/tululu/internal/fetch"
	"github.com/brogergvhs/tululu/internal/tululu"
	"github.com/brogergvhs/tululu/internal/ui"
)

const (
	ImagesDir = "images"
	BooksDir  = "books"

	DefaultPause = 2 * time.Second
)

// Progress is advanced once per processed book.
type Progress interface {
	SetTotal(total int)
	Increment()
}

type Options struct {
	StartPage int
	EndPage   int

	DestFolder string
	SkipImages bool
	SkipTexts  bool

	// Pause follows every connection failure.
	Pause time.Duration
}

type Pipeline struct {
	site       *tululu.Client
	downloader *downloader.Downloader
	log        *ui.Logger
	stats      *ui.Stats
	progress   Progress

	sleep func(ctx context.Context, d time.Duration)
}

func New(site *tululu.Client, dl *downloader.Downloader, log *ui.Logger, stats *ui.Stats) *Pipeline {
	if log == nil {
		log = ui.NewLoggerTo(io.Discard, false)
	}
	if stats == nil {
		stats = &ui.Stats{}
	}

	return &Pipeline{
		site:       site,
		downloader: dl,
		log:        log,
		stats:      stats,
		sleep:      sleepContext,
	}
}

func (p *Pipeline) SetProgress(pr Progress) {
	p.progress = pr
}

// Result is the outcome of a run. Errors holds one message per skipped
// book in the order they happened.
type Result struct {
	Catalog *catalog.Catalog
	Errors  []string
}

func (r *Result) WriteErrors(w io.Writer) {
	for _, msg := range r.Errors {
		fmt.Fprintln(w, msg)
	}
}

// Run scrapes listing pages [StartPage, EndPage). The returned catalog
// holds every book that made it through; err is non-nil only when the
// listing itself could not be read, in which case the books of the pages
// read before the failure are still processed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{Catalog: catalog.New()}

	links, listErr := p.site.ListBooks(ctx, opts.StartPage, opts.EndPage)
	if listErr != nil {
		p.log.Debugf("listing stopped: %v\n", listErr)
	}
	p.log.Debugf("listed %d books on pages %d..%d\n", len(links), opts.StartPage, opts.EndPage-1)

	if p.progress != nil {
		p.progress.SetTotal(len(links))
	}

	pause := opts.Pause
	if pause < 0 {
		pause = 0
	}

	dest := filepath.Clean(opts.DestFolder)
	imageFolder := filepath.Join(dest, ImagesDir)
	textFolder := filepath.Join(dest, BooksDir)

	for _, link := range links {
		if ctx.Err() != nil {
			break
		}

		book, err := p.processBook(ctx, link, opts, textFolder, imageFolder)
		if p.progress != nil {
			p.progress.Increment()
		}

		if err != nil {
			if ctx.Err() != nil {
				break
			}

			p.stats.TotalSkipped.Add(1)
			res.Errors = append(res.Errors, describe(link, err))

			if fetch.IsConnection(err) {
				p.sleep(ctx, pause)
			}
			continue
		}

		res.Catalog.Add(book)
		p.stats.TotalBooks.Add(1)
	}

	return res, listErr
}

func (p *Pipeline) processBook(ctx context.Context, link tululu.BookLink, opts Options, textFolder, imageFolder string) (catalog.Book, error) {
	page, err := p.site.Fetcher().Get(ctx, link.URL, nil)
	if err != nil {
		return catalog.Book{}, err
	}

	book, err := tululu.ParseBookCard(page)
	if err != nil {
		return catalog.Book{}, err
	}

	if !opts.SkipTexts {
		book.BookPath, err = p.downloader.DownloadText(ctx, p.site.TextURL(), link.ID, book.Title, textFolder)
		if err != nil {
			return catalog.Book{}, err
		}
	}

	if !opts.SkipImages {
		book.ImgSrc, err = p.downloader.DownloadImage(ctx, book.ImgURL, imageFolder)
		if err != nil {
			return catalog.Book{}, err
		}
	}

	return book, nil
}

func describe(link tululu.BookLink, err error) string {
	switch {
	case fetch.IsHTTP(err):
		return fmt.Sprintf("HTTP error occurred while downloading book %s: %v", link.URL, err)
	case fetch.IsConnection(err):
		return fmt.Sprintf("Connection error occurred while downloading book %s: %v", link.URL, err)
	default:
		return fmt.Sprintf("Failed to process book %s: %v", link.URL, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
