// Package fetch is the HTTP layer of the scraper. Every failure it returns
// for a request that reached the network is an *Error tagged with a Kind.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fully read response together with the URL it was served from,
// which relative links on the page resolve against.
type Page struct {
	URL  *url.URL
	Body []byte
}

func (p *Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	doc.Url = p.URL

	return doc, nil
}

type Fetcher struct {
	client *http.Client
	log    interface{ Debugf(string, ...any) }
}

func NewFetcher(c *http.Client, log interface{ Debugf(string, ...any) }) *Fetcher {
	return &Fetcher{client: c, log: log}
}

// Get fetches target with query merged into its query string and reads the
// whole body.
func (f *Fetcher) Get(ctx context.Context, target string, query url.Values) (*Page, error) {
	resp, err := f.Open(ctx, target, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindConnection, URL: resp.Request.URL.String(), Err: err}
	}

	return &Page{URL: resp.Request.URL, Body: body}, nil
}

// Open performs the request and checks the response. On success the caller
// owns resp.Body.
func (f *Fetcher) Open(ctx context.Context, target string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindConnection, URL: req.URL.String(), Err: err}
	}

	if err := check(req, resp); err != nil {
		_ = resp.Body.Close()
		if f.log != nil {
			f.log.Debugf("%v\n", err)
		}
		return nil, err
	}

	return resp, nil
}

func check(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return &Error{
			Kind:       KindRedirect,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
		}
	}

	// a client that does follow redirects still leaves a trace in the
	// final request URL
	if resp.Request != nil && resp.Request.URL.String() != req.URL.String() {
		return &Error{
			Kind:       KindRedirect,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Location:   resp.Request.URL.String(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return &Error{
			Kind:       KindHTTPStatus,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	return nil
}
