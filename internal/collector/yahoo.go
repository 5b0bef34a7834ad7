package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"MarketPulse/internal/model"
)

// YahooFetcher implements Fetcher against the Yahoo Finance chart API,
// with an HTML scrape of the public quote page to recover pre/post prices
// the chart meta sometimes omits for US listings.
type YahooFetcher struct {
	ChartBaseURL string
	QuoteBaseURL string
	Client       *http.Client
}

// NewYahooFetcher creates a fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		ChartBaseURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		QuoteBaseURL: "https://finance.yahoo.com/quote",
		Client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the chart API response shape.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				MarketState        string   `json:"marketState"`
				RegularMarketPrice float64  `json:"regularMarketPrice"`
				ChartPreviousClose float64  `json:"chartPreviousClose"`
				PreviousClose      float64  `json:"previousClose"`
				PreMarketPrice     *float64 `json:"preMarketPrice"`
				PostMarketPrice    *float64 `json:"postMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*RawQuote, error) {
	u := fmt.Sprintf("%s/%s?interval=15m&range=5d&includePrePost=true",
		f.ChartBaseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	meta := result.Meta

	var closes []float64
	if len(result.Indicators.Quote) > 0 {
		for _, c := range result.Indicators.Quote[0].Close {
			if c != nil {
				closes = append(closes, *c)
			}
		}
	}

	raw := &RawQuote{
		Symbol:          symbol,
		MarketState:     meta.MarketState,
		PreMarketPrice:  meta.PreMarketPrice,
		PostMarketPrice: meta.PostMarketPrice,
		History:         closes,
		Source:          model.SourcePrimary,
	}

	// The chart meta often lacks pre/post prices for US listings even
	// during extended hours. Recover them from the public quote page.
	if !model.IsKoreanListing(symbol) && meta.PreMarketPrice == nil && meta.PostMarketPrice == nil {
		if pre, post := f.scrapeQuotePage(ctx, symbol); pre != nil || post != nil {
			raw.PreMarketPrice = pre
			raw.PostMarketPrice = post
		}
	}

	raw.Price = activePrice(raw, meta.RegularMarketPrice, closes)
	raw.PrevClose = firstNonZero(meta.RegularMarketPrice, meta.ChartPreviousClose, meta.PreviousClose)
	if raw.Price == 0 {
		return nil, fmt.Errorf("yahoo: no usable price for %s", symbol)
	}
	return raw, nil
}

// activePrice picks the price matching the reported session: pre-market
// price during PRE, post-market price during POST/CLOSED, otherwise the
// regular price or the last intraday close.
func activePrice(raw *RawQuote, regular float64, closes []float64) float64 {
	switch raw.MarketState {
	case "PRE":
		if raw.PreMarketPrice != nil {
			return *raw.PreMarketPrice
		}
	case "POST", "CLOSED":
		if raw.PostMarketPrice != nil {
			return *raw.PostMarketPrice
		}
	}
	if regular != 0 {
		return regular
	}
	if len(closes) > 0 {
		return closes[len(closes)-1]
	}
	return 0
}

var (
	postPriceRe = regexp.MustCompile(`"postMarketPrice":\{"raw":([0-9.]+)`)
	prePriceRe  = regexp.MustCompile(`"preMarketPrice":\{"raw":([0-9.]+)`)
)

// scrapeTimeout is the recovery request's own budget. The chart call may
// have consumed most of the caller's deadline by the time we get here.
const scrapeTimeout = 3 * time.Second

// scrapeQuotePage pulls pre/post prices out of the quote page markup.
// Absence of a match is normal, not an error.
func (f *YahooFetcher) scrapeQuotePage(ctx context.Context, symbol string) (pre, post *float64) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scrapeTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s", f.QuoteBaseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(sctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil
	}
	html := string(body)

	if m := prePriceRe.FindStringSubmatch(html); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			pre = &v
		}
	}
	if m := postPriceRe.FindStringSubmatch(html); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			post = &v
		}
	}
	return pre, post
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
