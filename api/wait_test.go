package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dialcheck/dialcheck/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// statusServer serves /status from a scripted status sequence (sticking on
// the last one) and /results with an empty result document.
type statusServer struct {
	mu       sync.Mutex
	statuses []string
	polls    int
	server   *httptest.Server
}

func newStatusServer(t *testing.T, statuses ...string) *statusServer {
	t.Helper()
	s := &statusServer{statuses: statuses}

	mux := http.NewServeMux()
	mux.HandleFunc("/test-runs/tr-1/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.statuses[min(s.polls, len(s.statuses)-1)]
		s.polls++
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("/test-runs/tr-1/results", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"testRunId": "tr-1", "status": "RUNNING"})
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *statusServer) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func TestWaitForRun_ReturnsImmediatelyOnFinished(t *testing.T) {
	server := newStatusServer(t, "FINISHED")
	client := New(server.server.URL, "secret-key", zerolog.Nop())

	// A huge interval proves the loop returns without sleeping first
	start := time.Now()
	status, err := client.WaitForRun(context.Background(), "tr-1", WaitOptions{
		Interval: time.Hour,
		Timeout:  2 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusFinished, status)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, 1, server.pollCount())
}

func TestWaitForRun_FollowsStatusTransitions(t *testing.T) {
	server := newStatusServer(t, "CREATED", "RUNNING", "SCORING", "FINISHED")
	client := New(server.server.URL, "secret-key", zerolog.Nop())

	status, err := client.WaitForRun(context.Background(), "tr-1", WaitOptions{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusFinished, status)
	require.Equal(t, 4, server.pollCount())
}

func TestWaitForRun_FailsFastOnFailedRun(t *testing.T) {
	server := newStatusServer(t, "RUNNING", "FAILED")
	client := New(server.server.URL, "secret-key", zerolog.Nop())

	_, err := client.WaitForRun(context.Background(), "tr-1", WaitOptions{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
	})

	var failErr *RunFailedError
	require.ErrorAs(t, err, &failErr)
	require.Equal(t, "tr-1", failErr.TestRunID)
	require.Equal(t, model.StatusFailed, failErr.Status)
}

func TestWaitForRun_TimesOutWhileRunning(t *testing.T) {
	server := newStatusServer(t, "RUNNING")
	client := New(server.server.URL, "secret-key", zerolog.Nop())

	_, err := client.WaitForRun(context.Background(), "tr-1", WaitOptions{
		Interval: 5 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, "tr-1", timeoutErr.TestRunID)
	require.Equal(t, model.StatusRunning, timeoutErr.LastStatus)
	require.GreaterOrEqual(t, server.pollCount(), 1)
}

func TestWaitForRun_AbortsOnNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	client := New(server.URL, "secret-key", zerolog.Nop())

	start := time.Now()
	_, err := client.WaitForRun(context.Background(), "tr-1", WaitOptions{
		Interval: time.Hour,
		Timeout:  2 * time.Hour,
	})
	require.ErrorIs(t, err, ErrRunNotFound)
	require.Less(t, time.Since(start), time.Second)
}

func TestWaitForRun_KeepsPollingThroughTransientErrors(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		polls++
		n := polls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "FINISHED"})
	}))
	defer server.Close()
	client := New(server.URL, "secret-key", zerolog.Nop())

	status, err := client.WaitForRun(context.Background(), "tr-1", WaitOptions{
		Interval: time.Millisecond,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusFinished, status)
}

func TestWaitForRun_HonorsContextCancellation(t *testing.T) {
	server := newStatusServer(t, "RUNNING")
	client := New(server.server.URL, "secret-key", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.WaitForRun(ctx, "tr-1", WaitOptions{
		Interval: time.Hour,
		Timeout:  2 * time.Hour,
	})
	require.ErrorIs(t, err, context.Canceled)
}
