package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func chartPayload(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestYahooFeed_FetchLatest(t *testing.T) {
	t.Run("Valid Payload", func(t *testing.T) {
		server := httptest.NewServer(chartPayload(`{
			"chart": {
				"result": [{
					"timestamp": [1719928800, 1719928860],
					"indicators": {"quote": [{"close": [20120.25, 20123.5]}]}
				}],
				"error": null
			}
		}`))
		defer server.Close()

		feed := NewYahooFeedWithConfig(server.URL, 5)
		quote, err := feed.FetchLatest(context.Background(), "NQ=F")
		if err != nil {
			t.Fatalf("FetchLatest failed: %v", err)
		}
		if quote == nil {
			t.Fatal("expected a quote, got no-data")
		}
		if !quote.Price.Equal(decimal.RequireFromString("20123.5")) {
			t.Errorf("expected price 20123.5, got %s", quote.Price)
		}
		if quote.At.Unix() != 1719928860 {
			t.Errorf("expected latest timestamp, got %d", quote.At.Unix())
		}
	})

	t.Run("Null Close Is No Data", func(t *testing.T) {
		server := httptest.NewServer(chartPayload(`{
			"chart": {
				"result": [{
					"timestamp": [1719928800],
					"indicators": {"quote": [{"close": [null]}]}
				}],
				"error": null
			}
		}`))
		defer server.Close()

		feed := NewYahooFeedWithConfig(server.URL, 5)
		quote, err := feed.FetchLatest(context.Background(), "NQ=F")
		if err != nil {
			t.Fatalf("expected no-data sentinel, got error: %v", err)
		}
		if quote != nil {
			t.Errorf("expected nil quote, got %+v", quote)
		}
	})

	t.Run("Empty Result Is No Data", func(t *testing.T) {
		server := httptest.NewServer(chartPayload(`{"chart":{"result":[],"error":null}}`))
		defer server.Close()

		feed := NewYahooFeedWithConfig(server.URL, 5)
		quote, err := feed.FetchLatest(context.Background(), "NQ=F")
		if err != nil || quote != nil {
			t.Errorf("expected (nil, nil), got (%+v, %v)", quote, err)
		}
	})

	t.Run("Missing Timestamps Is No Data", func(t *testing.T) {
		server := httptest.NewServer(chartPayload(`{
			"chart": {"result": [{"timestamp": [], "indicators": {"quote": []}}], "error": null}
		}`))
		defer server.Close()

		feed := NewYahooFeedWithConfig(server.URL, 5)
		quote, err := feed.FetchLatest(context.Background(), "NQ=F")
		if err != nil || quote != nil {
			t.Errorf("expected (nil, nil), got (%+v, %v)", quote, err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		feed := NewYahooFeedWithConfig(server.URL, 5)
		if _, err := feed.FetchLatest(context.Background(), "NQ=F"); err == nil {
			t.Fatal("expected transport error, got nil")
		}
	})

	t.Run("API Error Payload", func(t *testing.T) {
		server := httptest.NewServer(chartPayload(`{
			"chart": {"result": [], "error": {"code": "Not Found", "description": "No data found"}}
		}`))
		defer server.Close()

		feed := NewYahooFeedWithConfig(server.URL, 5)
		if _, err := feed.FetchLatest(context.Background(), "NQ=F"); err == nil {
			t.Fatal("expected feed error, got nil")
		}
	})
}
