// Package wstest provides in-process WebSocket servers for tests.
package wstest

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame is a data frame received by the server
type Frame struct {
	Type int
	Data []byte
}

// HandlerFunc serves one upgraded connection. The connection is closed when it returns.
type HandlerFunc func(conn *Conn)

// Server is a WebSocket server bound to a loopback port
type Server struct {
	// URL is the ws:// URL of the server including Path
	URL string

	http    *httptest.Server
	handler HandlerFunc

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	received []Frame
	pings    int
	accepted int

	wg sync.WaitGroup
}

// NewServer starts a server serving h on path and registers its shutdown with t
func NewServer(t testing.TB, path string, h HandlerFunc) *Server {
	t.Helper()
	return newServer(t, path, h, httptest.NewServer)
}

// NewTLSServer is like NewServer but serves wss:// with a self-signed certificate.
// ClientTLSConfig returns a client config trusting it.
func NewTLSServer(t testing.TB, path string, h HandlerFunc) *Server {
	t.Helper()
	return newServer(t, path, h, httptest.NewTLSServer)
}

func newServer(t testing.TB, path string, h HandlerFunc, start func(http.Handler) *httptest.Server) *Server {
	s := &Server{
		handler: h,
		conns:   make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.serveWS)
	s.http = start(mux)
	s.URL = "ws" + strings.TrimPrefix(s.http.URL, "http") + path

	t.Cleanup(s.Close)
	return s
}

// ClientTLSConfig returns a TLS config trusting the server certificate, nil for plain servers
func (s *Server) ClientTLSConfig() *tls.Config {
	if s.http.TLS == nil {
		return nil
	}
	transport, ok := s.http.Client().Transport.(*http.Transport)
	if !ok || transport.TLSClientConfig == nil {
		return nil
	}
	return transport.TLSClientConfig.Clone()
}

// Close closes every open connection and stops the server
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.http.Close()
	s.wg.Wait()
}

// Received returns the data frames read from clients so far
func (s *Server) Received() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := make([]Frame, len(s.received))
	copy(frames, s.received)
	return frames
}

// Pings returns the number of ping frames received from clients
func (s *Server) Pings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pings
}

// Accepted returns the number of upgraded connections
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[ws] = struct{}{}
	s.accepted++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	ws.SetPingHandler(func(appData string) error {
		s.mu.Lock()
		s.pings++
		s.mu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	s.handler(&Conn{Conn: ws, server: s})
}

// Conn wraps a server side connection and records what it reads
type Conn struct {
	*websocket.Conn
	server *Server
}

// Read reads one data frame and records it
func (c *Conn) Read() (Frame, error) {
	mt, data, err := c.ReadMessage()
	if err != nil {
		return Frame{}, err
	}

	f := Frame{Type: mt, Data: data}
	c.server.mu.Lock()
	c.server.received = append(c.server.received, f)
	c.server.mu.Unlock()
	return f, nil
}

// Drain reads and records frames until the connection fails
func (c *Conn) Drain() {
	for {
		if _, err := c.Read(); err != nil {
			return
		}
	}
}
