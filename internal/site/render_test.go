package site

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brogergvhs/tululu/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `<html><body>page {{.PageNumber}}/{{.PagesNumber}}
{{range .Columns}}<div class="col">{{range .}}<p><img src="{{.ImgSrc}}">{{.Title}}</p>{{end}}</div>
{{end}}{{range .Pages}}<a href="{{pageFile .}}">{{.}}</a>{{end}}
</body></html>`

type fixture struct {
	root     string
	catalog  string
	template string
	pages    string
}

func newFixture(t *testing.T, books []catalog.Book) fixture {
	t.Helper()
	root := t.TempDir()

	f := fixture{
		root:     root,
		catalog:  filepath.Join(root, catalog.DefaultFileName),
		template: filepath.Join(root, DefaultTemplate),
		pages:    filepath.Join(root, DefaultPagesDir),
	}

	f.writeCatalog(t, books)
	require.NoError(t, os.WriteFile(f.template, []byte(testTemplate), 0644))
	return f
}

func (f fixture) writeCatalog(t *testing.T, books []catalog.Book) {
	t.Helper()
	c := catalog.New()
	for _, b := range books {
		c.Add(b)
	}
	require.NoError(t, c.Save(f.catalog))
}

func (f fixture) renderer(perPage int) *Renderer {
	return NewRenderer(Options{
		CatalogPath:  f.catalog,
		TemplatePath: f.template,
		PagesDir:     f.pages,
		BooksPerPage: perPage,
		PathPrefix:   DefaultPathPrefix,
	}, nil)
}

func readPage(t *testing.T, dir string, n int) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, PageFile(n)))
	require.NoError(t, err)
	return string(b)
}

func TestRebuildWritesOnePagePerChunk(t *testing.T) {
	f := newFixture(t, makeBooks(23))

	n, err := f.renderer(10).Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(f.pages)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	last := readPage(t, f.pages, 3)
	assert.Contains(t, last, "page 3/3")
	assert.Equal(t, 3, strings.Count(last, "<p>"))
	assert.Equal(t, 2, strings.Count(last, `<div class="col">`))
	assert.Contains(t, last, `<a href="index2.html">2</a>`)
}

func TestRebuildAppliesPathPrefix(t *testing.T) {
	f := newFixture(t, makeBooks(2))

	_, err := f.renderer(10).Rebuild()
	require.NoError(t, err)

	page := readPage(t, f.pages, 1)
	assert.Contains(t, page, `src="../images/1.jpg"`)

	books, err := catalog.Load(f.catalog)
	require.NoError(t, err)
	assert.Equal(t, "images/1.jpg", books[0].ImgSrc)
}

func TestRebuildIsIdempotent(t *testing.T) {
	f := newFixture(t, makeBooks(17))
	r := f.renderer(5)

	_, err := r.Rebuild()
	require.NoError(t, err)
	first := map[int]string{}
	for i := 1; i <= 4; i++ {
		first[i] = readPage(t, f.pages, i)
	}

	_, err = r.Rebuild()
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		assert.Equal(t, first[i], readPage(t, f.pages, i), "page %d", i)
	}
}

func TestRebuildRemovesStalePages(t *testing.T) {
	f := newFixture(t, makeBooks(30))
	r := f.renderer(10)

	_, err := r.Rebuild()
	require.NoError(t, err)

	f.writeCatalog(t, makeBooks(12))
	require.NoError(t, os.WriteFile(filepath.Join(f.pages, "notes.html"), []byte("keep"), 0644))

	n, err := r.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(filepath.Join(f.pages, PageFile(3)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.pages, "notes.html"))
	assert.NoError(t, err)
}

func TestRebuildSingleIndex(t *testing.T) {
	f := newFixture(t, makeBooks(7))
	index := filepath.Join(f.root, IndexFile)

	r := NewRenderer(Options{
		CatalogPath:  f.catalog,
		TemplatePath: f.template,
		PagesDir:     f.pages,
		BooksPerPage: 3,
		PathPrefix:   DefaultPathPrefix,
		IndexPath:    index,
	}, nil)

	_, err := r.Rebuild()
	require.NoError(t, err)

	b, err := os.ReadFile(index)
	require.NoError(t, err)
	assert.Contains(t, string(b), "page 1/1")
	assert.Equal(t, 7, strings.Count(string(b), "<p>"))
	assert.Contains(t, string(b), `src="images/1.jpg"`)
}

func TestRebuildEscapesCatalogText(t *testing.T) {
	books := makeBooks(1)
	books[0].Title = `<script>alert(1)</script>`
	f := newFixture(t, books)

	_, err := f.renderer(10).Rebuild()
	require.NoError(t, err)
	assert.NotContains(t, readPage(t, f.pages, 1), "<script>")
}

func TestRebuildReportsBrokenTemplate(t *testing.T) {
	f := newFixture(t, makeBooks(1))
	require.NoError(t, os.WriteFile(f.template, []byte("{{range}"), 0644))

	_, err := f.renderer(10).Rebuild()
	assert.ErrorContains(t, err, "parse template")
}

func TestRebuildMissingCatalog(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.Remove(f.catalog))

	_, err := f.renderer(10).Rebuild()
	assert.ErrorContains(t, err, "load catalog")
}

func TestRepositoryTemplateRenders(t *testing.T) {
	f := newFixture(t, makeBooks(4))
	tmpl, err := os.ReadFile(filepath.Join("..", "..", DefaultTemplate))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.template, tmpl, 0644))

	_, err = f.renderer(2).Rebuild()
	require.NoError(t, err)

	page := readPage(t, f.pages, 2)
	assert.Contains(t, page, `href="index1.html"`)
	assert.Contains(t, page, "Book 03")
	assert.Contains(t, page, `href="../books/Book%2003.txt"`)
}
