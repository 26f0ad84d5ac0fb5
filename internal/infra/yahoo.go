package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"grid_go/internal/domain"
)

// chartResponse mirrors the Yahoo Finance v8 chart payload, reduced to
// the fields the engine reads. Close values are pointers because the API
// pads the series with nulls around session boundaries.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
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

// YahooFeed fetches the latest traded price from the Yahoo Finance chart
// API. A closed session or a padded payload yields the no-data sentinel
// (nil, nil); errors are reserved for transport and decode failures.
type YahooFeed struct {
	baseURL    string
	httpClient *http.Client
}

var _ domain.Feed = (*YahooFeed)(nil)

// NewYahooFeed creates a feed client with production defaults.
func NewYahooFeed() *YahooFeed {
	return &YahooFeed{
		baseURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewYahooFeedWithConfig creates a feed client with custom configuration
func NewYahooFeedWithConfig(baseURL string, timeoutSec int) *YahooFeed {
	feed := NewYahooFeed()
	if baseURL != "" {
		feed.baseURL = baseURL
	}
	if timeoutSec > 0 {
		feed.httpClient.Timeout = time.Duration(timeoutSec) * time.Second
	}
	return feed
}

// FetchLatest returns the most recent 1-minute close for the ticker.
func (f *YahooFeed) FetchLatest(ctx context.Context, ticker string) (*domain.Quote, error) {
	reqURL := fmt.Sprintf("%s/%s?interval=1m&range=1d", f.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewFeedError("request", err)
	}

	// Add browser-like User-Agent to avoid bot detection
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFeedError("fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewFeedError("fetch", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFeedError("read", err)
	}

	var data chartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.NewFeedError("decode", err)
	}

	if data.Chart.Error != nil {
		return nil, domain.NewFeedError("fetch",
			fmt.Errorf("%s: %s", data.Chart.Error.Code, data.Chart.Error.Description))
	}
	if len(data.Chart.Result) == 0 {
		slog.Info("No chart result available, possibly the market is closed")
		return nil, nil
	}

	result := data.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		slog.Info("No timestamp data available, possibly the market is closed")
		return nil, nil
	}

	closes := result.Indicators.Quote[0].Close
	if len(closes) == 0 || closes[len(closes)-1] == nil {
		slog.Info("Close price is missing, market might be closed or data unavailable")
		return nil, nil
	}

	return &domain.Quote{
		Price: decimal.NewFromFloat(*closes[len(closes)-1]),
		At:    time.Unix(result.Timestamp[len(result.Timestamp)-1], 0),
	}, nil
}
