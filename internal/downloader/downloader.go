package downloader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/brogergvhs/tululu/internal/fetch"
	"github.com/brogergvhs/tululu/internal/ui"

	"golang.org/x/net/html/charset"
)

const textExt = ".txt"

type Downloader struct {
	fetcher *fetch.Fetcher
	stats   *ui.Stats
	log     *ui.Logger
}

func New(f *fetch.Fetcher, stats *ui.Stats, log *ui.Logger) *Downloader {
	if stats == nil {
		stats = &ui.Stats{}
	}
	if log == nil {
		log = ui.NewLoggerTo(io.Discard, false)
	}

	return &Downloader{
		fetcher: f,
		stats:   stats,
		log:     log,
	}
}

// DownloadText saves the text of book id, served by endpoint, as
// <folder>/<title>.txt converted to UTF-8. The returned path uses forward
// slashes.
func (d *Downloader) DownloadText(ctx context.Context, endpoint, id, title, folder string) (string, error) {
	resp, err := d.fetcher.Open(ctx, endpoint, url.Values{"id": {id}})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode text of book %s: %w", id, err)
	}

	name := truncate(SanitizeFilename(title), maxFilenameBytes-len(textExt)) + textExt

	p, err := d.save(body, folder, name)
	if err != nil {
		return "", err
	}

	d.stats.TotalTexts.Add(1)
	return p, nil
}

// DownloadImage saves the image at rawURL under its own (decoded) file name.
func (d *Downloader) DownloadImage(ctx context.Context, rawURL, folder string) (string, error) {
	name, err := imageName(rawURL)
	if err != nil {
		return "", err
	}

	resp, err := d.fetcher.Open(ctx, rawURL, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	p, err := d.save(resp.Body, folder, name)
	if err != nil {
		return "", err
	}

	d.stats.TotalImages.Add(1)
	return p, nil
}

func imageName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("image url %q: %w", rawURL, err)
	}

	// u.Path is already percent-decoded
	return SanitizeFilename(path.Base(u.Path)), nil
}

func (d *Downloader) save(src io.Reader, folder, name string) (string, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", err
	}

	output := filepath.Join(folder, name)

	f, err := os.Create(output)
	if err != nil {
		return "", err
	}

	var last int64
	_, copyErr := copyWithProgress(f, src, func(done int64) {
		d.stats.TotalBytes.Add(done - last)
		last = done
	})
	closeErr := f.Close()

	if copyErr != nil {
		_ = os.Remove(output)
		return "", fmt.Errorf("write %s: %w", output, copyErr)
	}
	if closeErr != nil {
		return "", closeErr
	}

	d.log.Debugf("saved %s (%d bytes)\n", output, last)
	return filepath.ToSlash(output), nil
}
