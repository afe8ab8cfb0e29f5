package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const DefaultFileName = "books_catalog.json"

type Catalog struct {
	books []Book
}

func New() *Catalog {
	return &Catalog{books: []Book{}}
}

func (c *Catalog) Add(b Book) {
	c.books = append(c.books, b)
}

func (c *Catalog) Len() int {
	return len(c.books)
}

func (c *Catalog) Books() []Book {
	return c.books
}

// ResolvePath picks where the catalog goes: an explicit path wins, then a
// file inside a non-default destination folder, then the working directory.
func ResolvePath(jsonPath, destFolder string) string {
	if jsonPath != "" {
		return filepath.Clean(jsonPath)
	}

	if dest := filepath.Clean(destFolder); destFolder != "" && dest != "." {
		return filepath.Join(dest, DefaultFileName)
	}

	return DefaultFileName
}

// Encode renders books as tab-indented JSON with non-ASCII text and HTML
// characters left as they are.
func Encode(books []Book) ([]byte, error) {
	if books == nil {
		books = []Book{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(books); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *Catalog) Save(path string) error {
	data, err := Encode(c.books)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create catalog folder: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}

	return nil
}

func Load(path string) ([]Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var books []Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	return books, nil
}
