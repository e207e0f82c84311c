package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"PulseFeed/internal/domain/repository"
	"PulseFeed/pkg/config"
	applogger "PulseFeed/pkg/logger"
	"PulseFeed/pkg/util"
)

// PriceStream keeps a live spot price per asset from the exchange
// WebSocket feed. It reconnects forever until the context is cancelled;
// consumers only ever see the latest observed tick.
type PriceStream struct {
	url            string
	assets         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	latest map[string]tick
}

type tick struct {
	price float64
	at    time.Time
}

func New(cfg *config.Config, log *applogger.Logger) *PriceStream {
	return &PriceStream{
		url:            cfg.Stream.URL,
		assets:         cfg.Snapshots.Assets,
		reconnectDelay: cfg.Stream.ReconnectDelay,
		pingInterval:   cfg.Stream.PingInterval,
		log:            log,
		latest:         make(map[string]tick),
	}
}

// Run connects, subscribes and consumes ticks until ctx is cancelled.
// Connection loss triggers a delayed reconnect, never an error to the
// caller.
func (s *PriceStream) Run(ctx context.Context) {
	for {
		if err := s.connect(ctx); err != nil {
			s.log.Warn("price stream connect failed", applogger.Error(err))
		} else if err := s.subscribe(); err != nil {
			s.log.Warn("price stream subscribe failed", applogger.Error(err))
			s.closeConn()
		} else {
			s.readLoop(ctx)
		}

		select {
		case <-ctx.Done():
			s.closeConn()
			return
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *PriceStream) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("price stream connected", applogger.String("url", s.url))
	return nil
}

func (s *PriceStream) subscribe() error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	for _, asset := range s.assets {
		msg := map[string]string{"type": "subscribe", "symbol": asset}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", asset, err)
		}
	}
	return nil
}

type tickMessage struct {
	Type   string  `json:"type"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Time   int64   `json:"time"` // ms
}

func (s *PriceStream) readLoop(ctx context.Context) {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go s.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return
		}
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("price stream read failed", applogger.Error(err))
			}
			s.closeConn()
			return
		}

		var m tickMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "tick" {
			// ignore non-tick frames
			continue
		}
		s.mu.Lock()
		s.latest[m.Symbol] = tick{price: m.Price, at: util.FromUnixMs(m.Time)}
		s.mu.Unlock()
	}
}

func (s *PriceStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// Latest returns the most recent observed price for the asset.
func (s *PriceStream) Latest(asset string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.latest[asset]
	return t.price, ok
}

func (s *PriceStream) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *PriceStream) Close() error {
	s.closeConn()
	return nil
}

var _ repository.PriceStream = (*PriceStream)(nil)
