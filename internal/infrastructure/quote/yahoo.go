package quote

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vitos/stock_grid/internal/domain"
)

const YahooBaseURL = "https://query1.finance.yahoo.com"

// Taiwan listings are bare codes: 2330, 0050, 00632R.
var twCode = regexp.MustCompile(`^[0-9]{4,6}[A-Z]?$`)

// YahooSymbol maps a local ticker to the Yahoo Finance symbol.
func YahooSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if twCode.MatchString(s) {
		return s + ".TW"
	}
	return s
}

// YahooAdapter reads quotes and bars from the Yahoo chart API.
type YahooAdapter struct {
	client *resty.Client
}

func NewYahooAdapter(baseURL string, timeout time.Duration, retries int) *YahooAdapter {
	if baseURL == "" {
		baseURL = YahooBaseURL
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
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	return &YahooAdapter{client: client}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		ShortName          string  `json:"shortName"`
		LongName           string  `json:"longName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		PreviousClose      float64 `json:"previousClose"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
		RegularMarketVol   float64 `json:"regularMarketVolume"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (y *YahooAdapter) chart(ctx context.Context, symbol, period, interval string) (*chartResult, error) {
	var res chartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", YahooSymbol(symbol)).
		SetQueryParams(map[string]string{"range": period, "interval": interval}).
		SetResult(&res).
		SetError(&res).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}
	if res.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s %s", symbol, res.Chart.Error.Code, res.Chart.Error.Description)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart API status %d for %s: %s", resp.StatusCode(), symbol, string(resp.Body()))
	}
	if len(res.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", symbol)
	}
	return &res.Chart.Result[0], nil
}

// candles drops bars whose close is null.
func (r *chartResult) candles() []domain.Candle {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	out := make([]domain.Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		out = append(out, domain.Candle{
			Time:   ts,
			Open:   orZero(at(q.Open, i)),
			High:   orZero(at(q.High, i)),
			Low:    orZero(at(q.Low, i)),
			Close:  *c,
			Volume: orZero(at(q.Volume, i)),
		})
	}
	return out
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func (y *YahooAdapter) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := y.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

// GetQuote reads the intraday chart and falls back to daily bars when the
// session has no minute data yet.
func (y *YahooAdapter) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	r, err := y.chart(ctx, symbol, "1d", "1m")
	if err != nil {
		return nil, err
	}
	bars := r.candles()
	if len(bars) == 0 {
		if r, err = y.chart(ctx, symbol, "5d", "1d"); err != nil {
			return nil, err
		}
		bars = r.candles()
	}

	price := r.Meta.RegularMarketPrice
	if len(bars) > 0 && !(price > 0) {
		price = bars[len(bars)-1].Close
	}
	if !(price > 0) {
		return nil, &domain.PriceUnavailableError{Symbol: symbol}
	}

	prev := r.Meta.ChartPreviousClose
	if !(prev > 0) {
		prev = r.Meta.PreviousClose
	}
	q := &domain.Quote{
		Symbol:    symbol,
		Name:      r.Meta.LongName,
		Price:     price,
		PrevClose: prev,
		Volume:    r.Meta.RegularMarketVol,
		Time:      time.Unix(r.Meta.RegularMarketTime, 0),
	}
	if q.Name == "" {
		q.Name = r.Meta.ShortName
	}
	if q.Name == "" {
		q.Name = r.Meta.Symbol
	}
	if q.Volume == 0 && len(bars) > 0 {
		q.Volume = bars[len(bars)-1].Volume
	}
	if prev > 0 {
		q.Change = price - prev
		q.ChangePct = q.Change / prev * 100
	}
	return q, nil
}

func (y *YahooAdapter) GetHistory(ctx context.Context, symbol, period, interval string) ([]domain.Candle, error) {
	if period == "" {
		period = "3mo"
	}
	if interval == "" {
		interval = "1d"
	}
	r, err := y.chart(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	return r.candles(), nil
}
