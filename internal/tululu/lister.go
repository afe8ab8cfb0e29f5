package tululu

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/brogergvhs/tululu/internal/fetch"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultBaseURL  = "https://tululu.org"
	DefaultCategory = "l55"
)

// BookLink is one entry of a listing page.
type BookLink struct {
	URL string
	ID  string
}

type Client struct {
	fetcher  *fetch.Fetcher
	baseURL  string
	category string
}

func NewClient(f *fetch.Fetcher, baseURL, category string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if category == "" {
		category = DefaultCategory
	}

	return &Client{
		fetcher:  f,
		baseURL:  strings.TrimRight(baseURL, "/"),
		category: strings.Trim(category, "/"),
	}
}

func (c *Client) PageURL(n int) string {
	return fmt.Sprintf("%s/%s/%d/", c.baseURL, c.category, n)
}

// TextURL is the endpoint serving a book's text by its id query parameter.
func (c *Client) TextURL() string {
	return c.baseURL + "/txt.php"
}

func (c *Client) Fetcher() *fetch.Fetcher {
	return c.fetcher
}

// LastPage returns the exclusive end of the listing, read from the
// paginator of the first page.
func (c *Client) LastPage(ctx context.Context) (int, error) {
	page, err := c.fetcher.Get(ctx, c.PageURL(1), nil)
	if err != nil {
		return 0, err
	}

	doc, err := page.Document()
	if err != nil {
		return 0, err
	}

	sel := doc.Find(".npage:last-of-type").First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("%w: .npage", ErrMissingElement)
	}

	n, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
	if err != nil {
		return 0, fmt.Errorf("parse last page number %q: %w", sel.Text(), err)
	}

	return n + 1, nil
}

// ListBooks walks listing pages [start, end) and returns their books in
// page order. Links repeated on a later page are dropped.
func (c *Client) ListBooks(ctx context.Context, start, end int) ([]BookLink, error) {
	var out []BookLink
	seen := map[string]bool{}

	for n := start; n < end; n++ {
		page, err := c.fetcher.Get(ctx, c.PageURL(n), nil)
		if err != nil {
			return out, fmt.Errorf("listing page %d: %w", n, err)
		}

		doc, err := page.Document()
		if err != nil {
			return out, fmt.Errorf("listing page %d: %w", n, err)
		}

		for _, link := range parseListing(doc, page.URL) {
			if seen[link.URL] {
				continue
			}
			seen[link.URL] = true
			out = append(out, link)
		}
	}

	return out, nil
}

func parseListing(doc *goquery.Document, pageURL *url.URL) []BookLink {
	var out []BookLink

	doc.Find("div#content table").Each(func(_ int, table *goquery.Selection) {
		href, ok := table.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)

		out = append(out, BookLink{
			URL: resolve(pageURL, href),
			ID:  BookID(href),
		})
	})

	return out
}

// BookID extracts the numeric id from a book href such as "/b239/".
func BookID(href string) string {
	return strings.Trim(href, "/b")
}

func resolve(base *url.URL, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if u.IsAbs() || base == nil {
		return u.String()
	}

	return base.ResolveReference(u).String()
}
