package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketPulse/internal/model"
)

// placeholderKey is the value shipped in example configs; it means the
// batch source was never actually configured.
const placeholderKey = "YOUR_FMP_API_KEY"

// FMPFetcher implements BatchFetcher against the Financial Modeling Prep
// quote endpoint: one request resolves many comma-joined symbols.
type FMPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFMPFetcher creates a batch fetcher with optional proxy support.
func NewFMPFetcher(apiKey, proxyURL string) *FMPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &FMPFetcher{
		BaseURL: "https://financialmodelingprep.com/api/v3",
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: transport,
		},
	}
}

func (f *FMPFetcher) Name() string { return "fmp" }

// Enabled reports whether an API key is configured. A missing or
// placeholder key disables the source entirely.
func (f *FMPFetcher) Enabled() bool {
	return f.APIKey != "" && f.APIKey != placeholderKey
}

// fmpQuote is the per-symbol record the quote endpoint returns.
type fmpQuote struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	PreviousClose     float64 `json:"previousClose"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
}

func (f *FMPFetcher) FetchBatch(ctx context.Context, symbols []string) ([]RawQuote, error) {
	if !f.Enabled() {
		return nil, fmt.Errorf("fmp: not configured")
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	u := fmt.Sprintf("%s/quote/%s?apikey=%s",
		f.BaseURL, url.PathEscape(strings.Join(symbols, ",")), url.QueryEscape(f.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fmp fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fmp: status %d", resp.StatusCode)
	}

	var records []fmpQuote
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("fmp decode: %w", err)
	}

	quotes := make([]RawQuote, 0, len(records))
	for _, r := range records {
		if r.Symbol == "" || r.Price == 0 {
			continue
		}
		quotes = append(quotes, RawQuote{
			Symbol:    r.Symbol,
			Price:     r.Price,
			PrevClose: r.PreviousClose,
			Source:    model.SourceBatch,
		})
	}
	return quotes, nil
}
