package news

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
	"github.com/vitos/stock_grid/internal/domain"
)

const (
	GoogleNewsBaseURL = "https://news.google.com"
	DefaultQuery      = "台股"
	DefaultLimit      = 5
)

// GoogleNewsFeed reads headlines from the Google News RSS search endpoint,
// localised for Taiwan.
type GoogleNewsFeed struct {
	client *resty.Client
}

func NewGoogleNewsFeed(baseURL string, timeout time.Duration, retries int) *GoogleNewsFeed {
	if baseURL == "" {
		baseURL = GoogleNewsBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (gridwatch)").
		SetRetryCount(retries).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &GoogleNewsFeed{client: client}
}

func (g *GoogleNewsFeed) GetNews(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    query,
			"hl":   "zh-TW",
			"gl":   "TW",
			"ceid": "TW:zh-Hant",
		}).
		Get("/rss/search")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %q: %w", query, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news feed status %d for %q", resp.StatusCode(), query)
	}

	// gofeed parsers keep per-parse state.
	feed, err := gofeed.NewParser().ParseString(resp.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || it.Title == "" {
			continue
		}
		n := domain.NewsItem{Title: it.Title, Link: it.Link}
		if it.PublishedParsed != nil {
			n.Published = *it.PublishedParsed
		}
		if len(it.Authors) > 0 && it.Authors[0] != nil {
			n.Source = it.Authors[0].Name
		}
		items = append(items, n)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
