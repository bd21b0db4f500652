package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesync/sitesync-server/internal/config"
	"github.com/sitesync/sitesync-server/internal/storage"
)

func newTestForwarder(maxRetries int) *ForwarderService {
	return NewForwarderService(nil, storage.NewMemoryStore(), &config.WebhookConfig{
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	})
}

func TestSubject(t *testing.T) {
	orgID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t,
		"org.11111111-2222-3333-4444-555555555555.events.entry.checked_in",
		subject(orgID, "entry.checked_in"))
}

func TestDeliver(t *testing.T) {
	var received atomic.Int32
	var gotContentType, gotUserAgent string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fwd := newTestForwarder(2)
	err := fwd.deliver(context.Background(), ts.URL, []byte(`{"type":"entry.checked_in"}`))
	require.NoError(t, err)

	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "sitesync-webhook/1.0", gotUserAgent)
}

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	fwd := newTestForwarder(3)
	err := fwd.deliver(context.Background(), ts.URL, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverExhaustsRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	fwd := newTestForwarder(1)
	err := fwd.deliver(context.Background(), ts.URL, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestDeliverStopsOnCanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fwd := newTestForwarder(5)
	err := fwd.deliver(ctx, ts.URL, []byte(`{}`))
	require.Error(t, err)
}
