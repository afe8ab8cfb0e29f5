package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(NewHTTPClient(HTTPClientOptions{UserAgent: "tululu-test"}), nil)
}

func TestGetReturnsBodyAndURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tululu-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "239", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	page, err := newTestFetcher().Get(context.Background(), srv.URL+"/txt.php", url.Values{"id": {"239"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(page.Body))
	assert.Equal(t, "/txt.php", page.URL.Path)
}

func TestGetRedirectIsTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b1/" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("front page"))
	}))
	defer srv.Close()

	_, err := newTestFetcher().Get(context.Background(), srv.URL+"/b1/", nil)
	require.Error(t, err)
	assert.True(t, IsRedirect(err))
	assert.True(t, IsHTTP(err))
	assert.Contains(t, err.Error(), "redirection detected")
}

func TestGetRedirectDetectedWhenClientFollows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		_, _ = w.Write([]byte("moved"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	_, err := f.Get(context.Background(), srv.URL+"/old", nil)
	require.Error(t, err)
	assert.Equal(t, KindRedirect, KindOf(err))
}

func TestGetHTTPStatusIsTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.False(t, IsConnection(err))
}

func TestGetConnectionFailureIsTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher().Get(context.Background(), addr, nil)
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.False(t, IsHTTP(err))
}

func TestGetCanceledContextIsNotConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Get(ctx, srv.URL, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Kind(0), KindOf(err))
}

func TestCookieHeaderFromInlineValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a=1", r.Header.Get("Cookie"))
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPClient(HTTPClientOptions{Cookie: " a=1 "}), nil)
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
}

func TestPickUserAgent(t *testing.T) {
	assert.Equal(t, "custom", PickUserAgent("custom"))
	assert.Equal(t, defaultUserAgent, PickUserAgent(""))
}
