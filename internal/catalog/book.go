package catalog

import "path"

// Book is one record of the catalog file.
type Book struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	ImgURL   string   `json:"img_url"`
	Comments []string `json:"comments"`
	Genres   []string `json:"genres"`
	BookPath string   `json:"book_path,omitempty"`
	ImgSrc   string   `json:"img_src,omitempty"`
}

// WithPathPrefix returns a copy whose local paths are relative to a
// directory other than the one the scraper ran in.
func (b Book) WithPathPrefix(prefix string) Book {
	if prefix == "" {
		return b
	}
	if b.BookPath != "" {
		b.BookPath = joinPrefix(prefix, b.BookPath)
	}
	if b.ImgSrc != "" {
		b.ImgSrc = joinPrefix(prefix, b.ImgSrc)
	}

	return b
}

func joinPrefix(prefix, p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(prefix, p)
}
