package wsclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 10 * time.Second

// Client dials a single WebSocket endpoint
type Client struct {
	endpoint     *url.URL
	dialer       *websocket.Dialer
	pingInterval time.Duration
	writeTimeout time.Duration
	metrics      ports.MetricsCollector
	logger       *zap.Logger
}

// Config holds client configuration
type Config struct {
	Endpoint string

	// HandshakeTimeout bounds the TCP dial, TLS and HTTP upgrade. 0 means no limit.
	HandshakeTimeout time.Duration

	// PingInterval is the keepalive period. 0 disables keepalive pings.
	PingInterval time.Duration

	// WriteTimeout bounds each outbound frame
	WriteTimeout time.Duration

	// TLSConfig is used for wss endpoints. nil uses the system roots.
	TLSConfig *tls.Config

	Metrics ports.MetricsCollector
	Logger  *zap.Logger
}

// NewClient creates a new client for cfg.Endpoint
func NewClient(cfg *Config) (*Client, error) {
	endpoint, err := ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	if IsSecure(endpoint) {
		tlsConfig := cfg.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		dialer.TLSClientConfig = tlsConfig
	}

	return &Client{
		endpoint:     endpoint,
		dialer:       dialer,
		pingInterval: cfg.PingInterval,
		writeTimeout: writeTimeout,
		metrics:      metrics,
		logger:       logger.With(zap.String("endpoint", endpoint.String())),
	}, nil
}

// Connect starts a new session and returns it in the connecting state.
// The handshake runs in the background; its outcome arrives as the first
// event on Session.Events. Cancelling ctx closes the session.
func (c *Client) Connect(ctx context.Context) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		id:     uuid.New().String(),
		client: c,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		ctx:    sessionCtx,
		cancel: cancel,
		logger: c.logger,
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	s.state.Store(int32(StateConnecting))
	c.metrics.SetSessionState(ports.SessionStateConnecting)

	go s.run()

	return s
}

// dial performs the handshake and returns the upgraded connection
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w (status %s)", c.endpoint, err, resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	return conn, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordConnection(string, time.Duration) {}
func (nopMetrics) RecordFrameReceived(string, int)        {}
func (nopMetrics) RecordFrameSent(string)                 {}
func (nopMetrics) RecordPing()                            {}
func (nopMetrics) RecordTransportError()                  {}
func (nopMetrics) RecordSessionClosed(string)             {}
func (nopMetrics) SetSessionState(ports.SessionState)     {}
