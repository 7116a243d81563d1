package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clde-code/polycopy/market"
)

var (
	ErrNotConnected  = errors.New("websocket not connected")
	ErrAlreadyClosed = errors.New("websocket already closed")
)

// WSConfig configures the live trade stream.
type WSConfig struct {
	URL string `yaml:"url"`
	// BufferSize is the event channel capacity. When the consumer
	// falls behind, events are dropped with a warning rather than
	// blocking the read loop.
	BufferSize       int           `yaml:"buffer_size"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

func (c WSConfig) withDefaults() WSConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	return c
}

// WSFeed streams trade events over a websocket. Frames are JSON
// objects in the market.TradeEvent shape; frames that fail to decode
// are logged and dropped, not fatal.
type WSFeed struct {
	cfg    WSConfig
	logger *slog.Logger

	conn   *websocket.Conn
	events chan market.TradeEvent
	errs   chan error
	done   chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool
}

func NewWSFeed(cfg WSConfig, logger *slog.Logger) *WSFeed {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &WSFeed{
		cfg:    cfg,
		logger: logger,
		events: make(chan market.TradeEvent, cfg.BufferSize),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect dials the stream and starts the read loop.
func (w *WSFeed) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrAlreadyClosed
	}
	w.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: w.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	go w.readLoop()

	w.logger.Debug("trade stream connected", "url", w.cfg.URL)
	return nil
}

// Events is the stream of decoded trade events.
func (w *WSFeed) Events() <-chan market.TradeEvent { return w.events }

// Errors reports the connection failure that ended the stream.
func (w *WSFeed) Errors() <-chan error { return w.errs }

func (w *WSFeed) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *WSFeed) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.connected = false
	w.mu.Unlock()

	close(w.done)

	if w.conn != nil {
		w.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return w.conn.Close()
	}
	return nil
}

func (w *WSFeed) readLoop() {
	defer func() {
		w.mu.Lock()
		w.connected = false
		w.mu.Unlock()
		close(w.events)
	}()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		_, data, err := w.conn.ReadMessage()
		receivedAt := time.Now().UTC()
		if err != nil {
			select {
			case <-w.done:
			default:
				select {
				case w.errs <- err:
				default:
				}
			}
			return
		}

		var ev market.TradeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			w.logger.Warn("dropping undecodable frame", "error", err)
			continue
		}
		if ev.ObservedAt.IsZero() {
			ev.ObservedAt = receivedAt
		}
		if ev.SizeQuote == 0 {
			ev.SizeQuote = ev.Size * ev.ReferencePrice
		}

		select {
		case w.events <- ev:
		case <-w.done:
			return
		default:
			w.logger.Warn("event buffer full, dropping trade",
				"market_id", ev.MarketID)
		}
	}
}
