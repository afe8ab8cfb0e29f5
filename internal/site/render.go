// Package site turns the books catalog into static HTML pages and serves
// them while the template is being edited.
package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/brogergvhs/tululu/internal/catalog"
	"github.com/brogergvhs/tululu/internal/ui"
)

const (
	DefaultBooksPerPage = 15
	DefaultTemplate     = "template.html"
	DefaultPagesDir     = "pages"
	DefaultPathPrefix   = "../"
	IndexFile           = "index.html"
)

var rePageFile = regexp.MustCompile(`^index(\d+)\.html$`)

type Options struct {
	CatalogPath  string
	TemplatePath string
	PagesDir     string
	BooksPerPage int
	Columns      int
	// PathPrefix is prepended to book_path and img_src so that links work
	// from inside PagesDir.
	PathPrefix string
	// IndexPath, when set, also receives every book on one page.
	IndexPath string
}

func (o *Options) normalize() {
	if o.CatalogPath == "" {
		o.CatalogPath = catalog.DefaultFileName
	}
	if o.TemplatePath == "" {
		o.TemplatePath = DefaultTemplate
	}
	if o.PagesDir == "" {
		o.PagesDir = DefaultPagesDir
	}
	if o.BooksPerPage < 1 {
		o.BooksPerPage = DefaultBooksPerPage
	}
	if o.Columns < 1 {
		o.Columns = DefaultColumns
	}
}

type Renderer struct {
	opts Options
	log  *ui.Logger
}

func NewRenderer(opts Options, log *ui.Logger) *Renderer {
	opts.normalize()
	if log == nil {
		log = ui.NewLoggerTo(io.Discard, false)
	}

	return &Renderer{opts: opts, log: log}
}

// pageData is what the template sees.
type pageData struct {
	Columns     [][]catalog.Book
	PageNumber  int
	PagesNumber int
	Pages       []int
}

var funcs = template.FuncMap{
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"pageFile": PageFile,
}

func PageFile(n int) string {
	return fmt.Sprintf("index%d.html", n)
}

// Rebuild reads the catalog and the template from disk and rewrites every
// page. It returns the number of pages written.
func (r *Renderer) Rebuild() (int, error) {
	books, err := catalog.Load(r.opts.CatalogPath)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	tmpl, err := template.New(filepath.Base(r.opts.TemplatePath)).Funcs(funcs).ParseFiles(r.opts.TemplatePath)
	if err != nil {
		return 0, fmt.Errorf("parse template: %w", err)
	}

	prefixed := make([]catalog.Book, len(books))
	for i, b := range books {
		prefixed[i] = b.WithPathPrefix(r.opts.PathPrefix)
	}

	if err := os.MkdirAll(r.opts.PagesDir, 0755); err != nil {
		return 0, fmt.Errorf("create pages folder: %w", err)
	}

	pages := Paginate(prefixed, r.opts.BooksPerPage, r.opts.Columns)
	numbers := make([]int, len(pages))
	for i := range pages {
		numbers[i] = i + 1
	}

	for _, p := range pages {
		data := pageData{
			Columns:     p.Columns,
			PageNumber:  p.Number,
			PagesNumber: len(pages),
			Pages:       numbers,
		}
		if err := render(tmpl, data, filepath.Join(r.opts.PagesDir, PageFile(p.Number))); err != nil {
			return 0, err
		}
	}

	if err := r.removeStale(len(pages)); err != nil {
		return 0, err
	}

	if r.opts.IndexPath != "" {
		// the index lives next to the assets, not inside PagesDir
		all := Paginate(books, max(1, len(books)), r.opts.Columns)
		data := pageData{PageNumber: 1, PagesNumber: 1, Pages: []int{1}}
		if len(all) > 0 {
			data.Columns = all[0].Columns
		}
		if err := render(tmpl, data, r.opts.IndexPath); err != nil {
			return 0, err
		}
	}

	r.log.Debugf("rendered %d books into %d pages\n", len(books), len(pages))
	return len(pages), nil
}

func render(tmpl *template.Template, data pageData, path string) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// removeStale deletes pages left over from a catalog that used to be
// longer.
func (r *Renderer) removeStale(pages int) error {
	entries, err := os.ReadDir(r.opts.PagesDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		m := rePageFile.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil || n <= pages {
			continue
		}

		path := filepath.Join(r.opts.PagesDir, e.Name())
		if err := os.Remove(path); err != nil {
			return err
		}
		r.log.Debugf("removed stale page %s\n", path)
	}

	return nil
}
