package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssFeed(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>台股 - Google News</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item><title>Headline %d</title><link>https://news.example/%d</link><pubDate>Wed, 01 May 2024 0%d:00:00 GMT</pubDate></item>`, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestGoogleNewsFeed_GetNews(t *testing.T) {
	var gotPath, gotQuery, gotLocale string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotLocale = r.URL.Query().Get("ceid")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed(8)))
	}))
	defer srv.Close()

	g := NewGoogleNewsFeed(srv.URL, 0, 0)
	items, err := g.GetNews(context.Background(), "", 0)
	require.NoError(t, err)

	assert.Equal(t, "/rss/search", gotPath)
	assert.Equal(t, DefaultQuery, gotQuery)
	assert.Equal(t, "TW:zh-Hant", gotLocale)

	require.Len(t, items, DefaultLimit)
	// Newest first: the 07:00 item leads.
	assert.Equal(t, "Headline 7", items[0].Title)
	assert.Equal(t, "https://news.example/7", items[0].Link)
	assert.Equal(t, 7, items[0].Published.Hour())
	assert.Equal(t, "Headline 3", items[4].Title)
}

func TestGoogleNewsFeed_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "broken" {
			w.Write([]byte("not a feed"))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGoogleNewsFeed(srv.URL, 0, 0)
	_, err := g.GetNews(context.Background(), "2330", 3)
	assert.ErrorContains(t, err, "status 403")

	_, err = g.GetNews(context.Background(), "broken", 3)
	assert.ErrorContains(t, err, "failed to parse")
}
