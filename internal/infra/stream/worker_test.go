package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"grid_go/internal/domain"
)

// quoteServer upgrades one connection and pushes the given quotes.
func quoteServer(t *testing.T, quotes []quoteMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Drain the subscribe message before pushing quotes.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for _, q := range quotes {
			b, _ := json.Marshal(q)
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		conn.ReadMessage()
	}))
}

func TestWorker_CachesLatestQuote(t *testing.T) {
	server := quoteServer(t, []quoteMessage{
		{Symbol: "NQ=F", Price: 20100.5, Timestamp: time.Now().UnixMilli()},
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	w := NewWorker(wsURL, "NQ=F", 90)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer w.Disconnect()

	deadline := time.Now().Add(3 * time.Second)
	var quote *domain.Quote
	for time.Now().Before(deadline) {
		var err error
		quote, err = w.FetchLatest(ctx, "NQ=F")
		if err != nil {
			t.Fatalf("FetchLatest failed: %v", err)
		}
		if quote != nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if quote == nil {
		t.Fatal("expected a cached quote before the deadline")
	}
	if !quote.Price.Equal(decimal.RequireFromString("20100.5")) {
		t.Errorf("expected price 20100.5, got %s", quote.Price)
	}
}

func TestWorker_FetchLatest(t *testing.T) {
	t.Run("Stale Quote Is No Data", func(t *testing.T) {
		w := NewWorker("ws://unused", "NQ=F", 60)
		w.latest = &domain.Quote{
			Price: decimal.RequireFromString("20000"),
			At:    time.Now().Add(-10 * time.Minute),
		}

		quote, err := w.FetchLatest(context.Background(), "NQ=F")
		if err != nil {
			t.Fatalf("expected no-data sentinel, got error: %v", err)
		}
		if quote != nil {
			t.Errorf("expected nil quote for stale cache, got %+v", quote)
		}
	})

	t.Run("Empty Cache Is No Data", func(t *testing.T) {
		w := NewWorker("ws://unused", "NQ=F", 60)

		quote, err := w.FetchLatest(context.Background(), "NQ=F")
		if err != nil || quote != nil {
			t.Errorf("expected (nil, nil), got (%+v, %v)", quote, err)
		}
	})

	t.Run("Unsubscribed Ticker", func(t *testing.T) {
		w := NewWorker("ws://unused", "NQ=F", 60)

		if _, err := w.FetchLatest(context.Background(), "ES=F"); err == nil {
			t.Error("expected error for unsubscribed ticker")
		}
	})
}
