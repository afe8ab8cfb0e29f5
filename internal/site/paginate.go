package site

import (
	"slices"

	"github.com/brogergvhs/tululu/internal/catalog"
)

const DefaultColumns = 2

// Page is one rendered output file worth of books, already split into
// display columns.
type Page struct {
	Number  int
	Books   int
	Columns [][]catalog.Book
}

// Paginate cuts books into pages of perPage and every page into at most
// columns columns of near-equal length, the first columns taking the
// remainder.
func Paginate(books []catalog.Book, perPage, columns int) []Page {
	if perPage < 1 {
		perPage = 1
	}
	if columns < 1 {
		columns = 1
	}

	var pages []Page
	for chunk := range slices.Chunk(books, perPage) {
		pages = append(pages, Page{
			Number:  len(pages) + 1,
			Books:   len(chunk),
			Columns: splitColumns(chunk, columns),
		})
	}

	return pages
}

func splitColumns(books []catalog.Book, columns int) [][]catalog.Book {
	size := (len(books) + columns - 1) / columns
	if size == 0 {
		return nil
	}

	return slices.Collect(slices.Chunk(books, size))
}
