package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"grid_go/internal/domain"
)

const (
	maxRetries       = 10
	baseDelay        = 1 * time.Second
	maxDelay         = 60 * time.Second
	readTimeout      = 60 * time.Second
	handshakeTimeout = 10 * time.Second
)

// quoteMessage is one tick from the quote relay.
type quoteMessage struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// Worker keeps a WebSocket subscription to a quote relay and caches the
// latest quote for the engine to pull. FetchLatest never blocks on the
// network: a quote older than staleAfter is treated as no data, so the
// tick aborts the same way it does for a closed market.
type Worker struct {
	wsURL      string
	ticker     string
	staleAfter time.Duration

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	latest    *domain.Quote
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ domain.Feed = (*Worker)(nil)

// NewWorker creates a streaming feed worker.
func NewWorker(wsURL, ticker string, staleAfterSec int) *Worker {
	staleAfter := 90 * time.Second
	if staleAfterSec > 0 {
		staleAfter = time.Duration(staleAfterSec) * time.Second
	}
	return &Worker{
		wsURL:      wsURL,
		ticker:     ticker,
		staleAfter: staleAfter,
	}
}

// Connect starts the WebSocket connection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := calculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

// calculateBackoff returns an exponential delay capped at maxDelay.
func calculateBackoff(retryCount int) time.Duration {
	delay := baseDelay << uint(retryCount)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	slog.Info("Stream connected", slog.String("ticker", w.ticker))
	return nil
}

func (w *Worker) subscribe() error {
	msg := map[string]interface{}{
		"type":    "subscribe",
		"symbols": []string{w.ticker},
	}
	b, _ := json.Marshal(msg)
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()
	if conn == nil {
		return
	}
	defer w.closeConnection()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("Stream read failed", slog.Any("error", err))
			return
		}

		var msg quoteMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Malformed stream message", slog.Any("error", err))
			continue
		}
		if msg.Symbol != w.ticker || msg.Price <= 0 {
			continue
		}

		quote := &domain.Quote{
			Price: decimal.NewFromFloat(msg.Price),
			At:    time.UnixMilli(msg.Timestamp),
		}

		w.mu.Lock()
		w.latest = quote
		w.mu.Unlock()
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect stops the worker and closes the connection. The connection
// is closed before waiting so a blocked read returns immediately.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}

// IsConnected reports whether the WebSocket is currently up.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// FetchLatest serves the cached quote. A missing or stale cache yields
// the no-data sentinel so the engine aborts the tick and retries.
func (w *Worker) FetchLatest(ctx context.Context, ticker string) (*domain.Quote, error) {
	if ticker != w.ticker {
		return nil, domain.NewFeedError("fetch", fmt.Errorf("unsubscribed ticker: %s", ticker))
	}

	w.mu.RLock()
	quote := w.latest
	w.mu.RUnlock()

	if quote == nil || time.Since(quote.At) > w.staleAfter {
		return nil, nil
	}
	return quote, nil
}
