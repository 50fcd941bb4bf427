package daemon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sburl/ebay-oauth-go/internal/auth"
	"github.com/sburl/ebay-oauth-go/internal/daemon"
	"github.com/sburl/ebay-oauth-go/pkg/logger"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok && v != ""
}

func (m *memStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestDaemon_RunSweepsThenStops(t *testing.T) {
	t.Parallel()

	var probes atomic.Int32
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer probe.Close()

	store := &memStore{data: map[string]string{
		"EBAY_APP_ID":             "app",
		"EBAY_CLIENT_SECRET":      "secret",
		"EBAY_USER_TOKEN":         "tok",
		"EBAY_APP_ID_WORK":        "work-app",
		"EBAY_CLIENT_SECRET_WORK": "work-secret",
		"EBAY_USER_TOKEN_WORK":    "work-tok",
	}}

	registry := auth.NewRegistry(func(suffix string) (*auth.Manager, error) {
		return auth.NewManager(store, suffix, auth.WithProbeURL(probe.URL))
	})

	d, err := daemon.New(registry, []string{"", "WORK"}, time.Hour, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, "127.0.0.1:0")
	}()

	// The initial sweep probes every account exactly once; the next cron
	// tick is an hour away.
	require.Eventually(t, func() bool {
		return probes.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after context cancel")
	}
	assert.Equal(t, int32(2), probes.Load())
}
