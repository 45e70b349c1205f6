package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var ErrClientClosed = errors.New("signaling: client closed")

// Config defines signalling feed connection behavior.
type Config struct {
	URL                string
	DialTimeout        time.Duration
	WriteTimeout       time.Duration
	MaxConnectAttempts int
	Backoff            BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:        5 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxConnectAttempts: 0,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// Client is a websocket client for the signalling layer. It surfaces
// call-ready metadata through the OnCallReady callback and pushes call
// log locations back for persistence.
type Client struct {
	cfg Config
	log zerolog.Logger

	onCallReady func(ReadyState)

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	rng *rand.Rand
}

func NewClient(cfg Config, logger zerolog.Logger, onCallReady func(ReadyState)) *Client {
	return &Client{
		cfg:         cfg,
		log:         logger,
		onCallReady: onCallReady,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type callLogRecord struct {
	CallID       string `json:"call_id"`
	LogFile      string `json:"log_file"`
	StatsLogFile string `json:"stats_log_file"`
}

// Run connects to the signalling feed and reads events until ctx is done
// or the client is closed. Connection loss triggers a reconnect with
// exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return ErrClientClosed
		}
		attempt++
		if c.cfg.MaxConnectAttempts > 0 && attempt > c.cfg.MaxConnectAttempts {
			return fmt.Errorf("signaling: giving up after %d connect attempts", c.cfg.MaxConnectAttempts)
		}
		if err := c.dial(ctx); err != nil {
			delay := NextBackoffDelay(c.cfg.Backoff, attempt, c.rng)
			c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("signaling dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		attempt = 0
		if err := c.readLoop(); err != nil {
			if c.isClosed() {
				return ErrClientClosed
			}
			c.log.Warn().Err(err).Msg("signaling connection lost")
		}
	}
}

func (c *Client) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("signaling: dial %s: %w", c.cfg.URL, err)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	c.mu.Unlock()
	c.log.Info().Str("url", c.cfg.URL).Msg("signaling connected")
	return nil
}

func (c *Client) readLoop() error {
	for {
		conn := c.current()
		if conn == nil {
			return ErrClientClosed
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn().Err(err).Msg("signaling message decode failed")
		return
	}
	switch env.Type {
	case "call_ready":
		var ready wireCallReady
		if err := json.Unmarshal(env.Payload, &ready); err != nil {
			c.log.Warn().Err(err).Str("id", env.ID).Msg("call_ready decode failed")
			return
		}
		if c.onCallReady != nil {
			c.onCallReady(ready.readyState())
		}
	default:
		c.log.Debug().Str("type", env.Type).Msg("ignoring signaling message")
	}
}

// StoreCallLog reports the per-call log file locations to the signalling
// layer so they can be attached to the call record.
func (c *Client) StoreCallLog(callID, logFile, statsLogFile string) error {
	payload, err := json.Marshal(callLogRecord{
		CallID:       callID,
		LogFile:      logFile,
		StatsLogFile: statsLogFile,
	})
	if err != nil {
		return fmt.Errorf("signaling: encode call log record: %w", err)
	}
	return c.send(envelope{
		Type:    "call_log",
		ID:      uuid.NewString(),
		Payload: payload,
	})
}

func (c *Client) send(env envelope) error {
	conn := c.current()
	if conn == nil {
		return ErrClientClosed
	}
	if c.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("signaling: write %s: %w", env.Type, err)
	}
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.conn
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
