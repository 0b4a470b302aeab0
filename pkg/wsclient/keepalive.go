package wsclient

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// keepalive writes ping control frames on an open connection.
// Inbound pings are answered by the gorilla default ping handler.
type keepalive struct {
	session  *Session
	conn     *websocket.Conn
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newKeepalive(s *Session, conn *websocket.Conn, interval time.Duration) *keepalive {
	return &keepalive{
		session:  s,
		conn:     conn,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start starts the ping loop
func (k *keepalive) Start() {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return
	}
	k.running = true
	k.mu.Unlock()

	go k.run()
}

// Stop stops the ping loop and waits for it to exit
func (k *keepalive) Stop() {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return
	}
	k.running = false
	k.mu.Unlock()

	close(k.stopCh)
	<-k.doneCh
}

func (k *keepalive) run() {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopCh:
			return
		case <-ticker.C:
			if err := k.ping(); err != nil {
				// the reader surfaces the broken connection
				k.session.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (k *keepalive) ping() error {
	deadline := time.Now().Add(k.session.client.writeTimeout)
	if err := k.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return err
	}

	k.session.client.metrics.RecordPing()
	k.session.logger.Debug("ping")
	return nil
}
