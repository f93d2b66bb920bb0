package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_Send(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	ev := NewEvent("wet", 0.91, true, "snapshots/violation_20240501_123000.jpg", ts)
	n := NewNotifier(srv.URL)
	assert.NoError(t, n.Send(context.Background(), ev))

	assert.Equal(t, "wet", got.Class)
	assert.Equal(t, float32(0.91), got.Confidence)
	assert.True(t, got.IsMixed)
	assert.Equal(t, "2024-05-01T12:30:00Z", got.Timestamp)
	assert.NotEmpty(t, got.ID)
}

func TestNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	err := n.Send(context.Background(), NewEvent("dry", 0.6, false, "", time.Now()))
	assert.Error(t, err)
}

func TestNotifier_NilIsNoop(t *testing.T) {
	n := NewNotifier("")
	assert.Nil(t, n)
	assert.NoError(t, n.Send(context.Background(), Event{}))
}
