package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"MarketPulse/internal/model"
)

const (
	// DefaultYahooBaseURL is the public Yahoo Finance query host.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	// DefaultYahooCookieURL hands out the session cookie the quote API's crumb is bound to.
	DefaultYahooCookieURL = "https://fc.yahoo.com"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
// The chart API is open; the quote API needs a session cookie plus a matching crumb.
type YahooFetcher struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	client := newHTTPClient(proxyURL)
	if jar, err := cookiejar.New(nil); err == nil {
		client.Jar = jar
	}
	return &YahooFetcher{
		BaseURL:   DefaultYahooBaseURL,
		CookieURL: DefaultYahooCookieURL,
		Client:    client,
		SymbolMap: map[string]string{
			"TWII":   "^TWII",
			"IXIC":   "^IXIC",
			"SPX500": "^GSPC",
		},
	}
}

// newHTTPClient returns a client with a 30s timeout routed through proxyURL when set.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
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
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// yahooQuote is the response structure from Yahoo Finance quote API.
type yahooQuote struct {
	QuoteResponse struct {
		Result []struct {
			Symbol     string   `json:"symbol"`
			TrailingPE *float64 `json:"trailingPE"`
			ForwardPE  *float64 `json:"forwardPE"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

// statusError is a non-200 reply from Yahoo.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo: status %d, body: %s", e.Code, e.Body)
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func (f *YahooFetcher) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		bar := model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   valueAt(quote.Open, i),
			High:   valueAt(quote.High, i),
			Low:    valueAt(quote.Low, i),
			Close:  valueAt(quote.Close, i),
			Volume: valueAt(quote.Volume, i),
		}
		if bar.Close <= 0 || bar.High <= 0 || bar.Low <= 0 {
			continue // skip null bars (holidays, halted sessions)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := "2y"
	if days <= 30 {
		rng = "1mo"
	} else if days <= 90 {
		rng = "3mo"
	} else if days <= 180 {
		rng = "6mo"
	} else if days <= 365 {
		rng = "1y"
	}
	bars, err := f.fetchChart(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// FetchPE reads trailing/forward P/E from the quote API. A rejected crumb is
// refreshed once before giving up.
func (f *YahooFetcher) FetchPE(ctx context.Context, symbol string) (null.Float, error) {
	pe, err := f.fetchPE(ctx, symbol)
	var se *statusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		f.resetCrumb()
		pe, err = f.fetchPE(ctx, symbol)
	}
	return pe, err
}

func (f *YahooFetcher) fetchPE(ctx context.Context, symbol string) (null.Float, error) {
	crumb, err := f.sessionCrumb(ctx)
	if err != nil {
		return null.Float{}, err
	}
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s&crumb=%s",
		f.BaseURL, url.QueryEscape(f.yahooSymbol(symbol)), url.QueryEscape(crumb))

	var quote yahooQuote
	if err := f.get(ctx, u, &quote); err != nil {
		return null.Float{}, err
	}
	if quote.QuoteResponse.Error != nil {
		return null.Float{}, fmt.Errorf("yahoo api error: %s", quote.QuoteResponse.Error.Description)
	}
	if len(quote.QuoteResponse.Result) == 0 {
		return null.Float{}, nil
	}
	r := quote.QuoteResponse.Result[0]
	return preferPE(r.TrailingPE, r.ForwardPE), nil
}

// sessionCrumb returns the cached crumb, obtaining a session cookie and a new crumb when empty.
func (f *YahooFetcher) sessionCrumb(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.crumb != "" {
		return f.crumb, nil
	}

	// The cookie host answers with an error status but still sets the session cookie.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.CookieURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("yahoo session cookie: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err = f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("yahoo read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" {
		return "", fmt.Errorf("yahoo crumb: %w", &statusError{Code: resp.StatusCode, Body: crumb})
	}
	f.crumb = crumb
	return crumb, nil
}

func (f *YahooFetcher) resetCrumb() {
	f.mu.Lock()
	f.crumb = ""
	f.mu.Unlock()
}

// preferPE picks the trailing ratio, falling back to forward when trailing is absent or zero.
func preferPE(trailing, forward *float64) null.Float {
	if trailing != nil && *trailing != 0 {
		return null.FloatFrom(*trailing)
	}
	if forward != nil && *forward != 0 {
		return null.FloatFrom(*forward)
	}
	return null.Float{}
}
