package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/models"
)

// MockScheduler is a mock implementation of Scheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Status() models.ScheduleStatus {
	args := m.Called()
	return args.Get(0).(models.ScheduleStatus)
}

func (m *MockScheduler) TriggerNow(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		status   models.ScheduleStatus
		wantCode int
		wantBody string
	}{
		{"running", models.ScheduleStatus{Running: true, Runs: 3}, http.StatusOK, "ok"},
		{"stopped", models.ScheduleStatus{}, http.StatusServiceUnavailable, "stopped"},
		{"last run failed", models.ScheduleStatus{Running: true, LastError: "sink failed"}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &MockScheduler{}
			sched.On("Status").Return(tt.status)

			rec := serve(New(":0", sched, nil, nil, arbor.NewLogger()), http.MethodGet, "/healthz")

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("premarket_runs_total 1\n"))
	})

	rec := serve(New(":0", &MockScheduler{}, metrics, nil, arbor.NewLogger()), http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "premarket_runs_total 1")
}

func TestScanRoute(t *testing.T) {
	sched := &MockScheduler{}
	sched.On("TriggerNow", mock.Anything).Return(nil).Once()
	sched.On("TriggerNow", mock.Anything).Return(errors.New("scan already in progress")).Once()
	sched.On("Status").Return(models.ScheduleStatus{Running: true, Runs: 1, LastRunID: "run-1"})

	s := New(":0", sched, nil, nil, arbor.NewLogger())

	rec := serve(s, http.MethodPost, "/api/scan")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-1")

	rec = serve(s, http.MethodPost, "/api/scan")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(s, http.MethodGet, "/api/scan")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNotFound(t *testing.T) {
	rec := serve(New(":0", &MockScheduler{}, nil, nil, arbor.NewLogger()), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportRoutes(t *testing.T) {
	hub := NewHub(arbor.NewLogger())
	s := New(":0", &MockScheduler{}, nil, hub, arbor.NewLogger())

	rec := serve(s, http.MethodGet, "/api/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	hub.Publish(models.Ranking{RunID: "run-9", Phase: models.PhaseLive, Threshold: 65}, "<p>report</p>")

	rec = serve(s, http.MethodGet, "/api/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-9")

	rec = serve(s, http.MethodGet, "/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<p>report</p>")
}

func TestWebSocketReceivesRankings(t *testing.T) {
	hub := NewHub(arbor.NewLogger())
	hub.Publish(models.Ranking{RunID: "run-1"}, "")

	srv := httptest.NewServer(New(":0", &MockScheduler{}, nil, hub, arbor.NewLogger()).Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// Latest ranking is replayed on connect
	var msg struct {
		Type    string         `json:"type"`
		Payload models.Ranking `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageRanking, msg.Type)
	assert.Equal(t, "run-1", msg.Payload.RunID)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(models.Ranking{RunID: "run-2"}, "")

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "run-2", msg.Payload.RunID)
}

func TestWebSocketReplayNeverFollowsNewerRanking(t *testing.T) {
	hub := NewHub(arbor.NewLogger())
	hub.Publish(models.Ranking{Threshold: 0}, "")

	srv := httptest.NewServer(New(":0", &MockScheduler{}, nil, hub, arbor.NewLogger()).Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	const publishes = 50
	const clients = 8

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= publishes; i++ {
			hub.Publish(models.Ranking{Threshold: i}, "")
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

			// Sequence numbers must never go backwards for a client
			previous := -1
			for previous < publishes {
				var msg struct {
					Payload models.Ranking `json:"payload"`
				}
				if !assert.NoError(t, conn.ReadJSON(&msg)) {
					return
				}
				assert.GreaterOrEqual(t, msg.Payload.Threshold, previous)
				previous = msg.Payload.Threshold
			}
		}()
	}

	<-done
	wg.Wait()
}
