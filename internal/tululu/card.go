package tululu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brogergvhs/tululu/internal/catalog"
	"github.com/brogergvhs/tululu/internal/fetch"

	"github.com/PuerkitoBio/goquery"
)

var ErrMissingElement = errors.New("expected element not found")

const titleSeparator = "::"

// ParseBookCard extracts a book record from a fetched book page. Any
// missing part fails the whole card.
func ParseBookCard(page *fetch.Page) (catalog.Book, error) {
	doc, err := page.Document()
	if err != nil {
		return catalog.Book{}, err
	}

	return parseCard(doc)
}

func parseCard(doc *goquery.Document) (catalog.Book, error) {
	content := doc.Find("div#content").First()
	if content.Length() == 0 {
		return catalog.Book{}, missing("div#content")
	}

	heading := content.Find("h1").First()
	if heading.Length() == 0 {
		return catalog.Book{}, missing("div#content h1")
	}

	parts := strings.Split(heading.Text(), titleSeparator)
	if len(parts) != 2 {
		return catalog.Book{}, fmt.Errorf("%w: title separator %q in %q",
			ErrMissingElement, titleSeparator, strings.TrimSpace(heading.Text()))
	}

	src, ok := content.Find("img").First().Attr("src")
	if !ok {
		return catalog.Book{}, missing("div#content img[src]")
	}

	genreSpan := doc.Find("span.d_book").First()
	if genreSpan.Length() == 0 {
		return catalog.Book{}, missing("span.d_book")
	}

	comments := []string{}
	doc.Find(".texts span").Each(func(_ int, s *goquery.Selection) {
		comments = append(comments, s.Text())
	})

	genres := []string{}
	genreSpan.Find("a").Each(func(_ int, a *goquery.Selection) {
		genres = append(genres, a.Text())
	})

	return catalog.Book{
		Title:    strings.TrimSpace(parts[0]),
		Author:   strings.TrimSpace(parts[1]),
		ImgURL:   resolve(doc.Url, strings.TrimSpace(src)),
		Comments: comments,
		Genres:   genres,
	}, nil
}

func missing(selector string) error {
	return fmt.Errorf("%w: %s", ErrMissingElement, selector)
}
