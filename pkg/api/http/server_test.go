package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aescanero/u64feed/pkg/adapters/storage/memory"
	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedState ports.SessionState

func (f fixedState) CurrentState() ports.SessionState {
	return ports.SessionState(f)
}

func newTestServer(t *testing.T, state ports.SessionState) (*Server, *memory.SessionStore) {
	t.Helper()

	store := memory.NewSessionStore()
	s := NewServer(&Config{
		Sessions: store,
		State:    fixedState(state),
		Logger:   zap.NewNop(),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("u64feed_pings_sent_total 0\n"))
		}),
	})
	return s, store
}

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthFollowsSessionState(t *testing.T) {
	tests := []struct {
		state  ports.SessionState
		status int
	}{
		{ports.SessionStateOpen, http.StatusOK},
		{ports.SessionStateConnecting, http.StatusServiceUnavailable},
		{ports.SessionStateClosed, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			s, _ := newTestServer(t, tt.state)
			rec := do(t, s, "/health")
			assert.Equal(t, tt.status, rec.Code)

			var body struct {
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.state), body.Checks["session"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, ports.SessionStateOpen)
	rec := do(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u64feed_pings_sent_total")
}

func TestSessionRoutes(t *testing.T) {
	s, store := newTestServer(t, ports.SessionStateOpen)
	require.NoError(t, store.Save(context.Background(), &ports.SessionRecord{
		ID:             "abc",
		Endpoint:       "ws://localhost:8080/random-u64",
		State:          ports.SessionStateOpen,
		GreetingSent:   true,
		FramesReceived: 4,
		StartedAt:      time.Now(),
	}))

	rec := do(t, s, "/api/v1/sessions")
	require.Equal(t, http.StatusOK, rec.Code)

	var list SessionListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "abc", list.Sessions[0].ID)

	rec = do(t, s, "/api/v1/sessions/abc")
	require.Equal(t, http.StatusOK, rec.Code)

	var record ports.SessionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.True(t, record.GreetingSent)
	assert.EqualValues(t, 4, record.FramesReceived)

	rec = do(t, s, "/api/v1/sessions/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeOnListenerUntilShutdown(t *testing.T) {
	s, _ := newTestServer(t, ports.SessionStateOpen)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-served)
}
