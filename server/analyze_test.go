package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"wastewatch/iface"
)

type mockBackend struct {
	detections []iface.Detection
}

func (m *mockBackend) LoadModel(string, iface.NamesConf, float32, float32, bool) error { return nil }
func (m *mockBackend) Destroy()                                                        {}
func (m *mockBackend) CheckConfig() iface.EngineConfig                                 { return iface.EngineConfig{} }
func (m *mockBackend) Detect(gocv.Mat) iface.RetData {
	return iface.RetData{Success: true, Detections: m.detections}
}

func encodedFrame(t *testing.T) []byte {
	t.Helper()
	mat := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()
	buf, err := gocv.IMEncode(".jpg", mat)
	assert.NoError(t, err)
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out
}

func testServer(t *testing.T, dets []iface.Detection) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SnapshotDir = t.TempDir()
	s, err := New(cfg)
	assert.NoError(t, err)
	s.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)
	}
	go s.runWorker(0, &mockBackend{detections: dets})
	return s
}

func TestAnalyze_Violation(t *testing.T) {
	wet := iface.Detection{Class: "wet", Conf: 0.99, Box: iface.BoxFromCorners(1, 1, 2, 2)}
	s := testServer(t, []iface.Detection{wet})

	out, err := s.analyze(context.Background(), encodedFrame(t), "dry")
	assert.NoError(t, err)
	assert.True(t, out.IsViolation)
	assert.False(t, out.IsMixed)
	if assert.NotNil(t, out.Class) {
		assert.Equal(t, "wet", *out.Class)
	}
	if assert.NotNil(t, out.Confidence) {
		assert.Equal(t, float32(0.99), *out.Confidence)
	}
	assert.Contains(t, out.SnapshotPath, "violation_20240501_123045.jpg")

	// the raw frame was persisted
	_, err = os.Stat(out.SnapshotPath)
	assert.NoError(t, err)
}

func TestAnalyze_NoDetections(t *testing.T) {
	s := testServer(t, nil)

	out, err := s.analyze(context.Background(), encodedFrame(t), "dry")
	assert.NoError(t, err)
	assert.False(t, out.IsViolation)
	assert.False(t, out.IsMixed)
	assert.Nil(t, out.Class)
	assert.Nil(t, out.Confidence)
	assert.Empty(t, out.SnapshotPath)
}

func TestRouter_Analyze(t *testing.T) {
	wet := iface.Detection{Class: "wet", Conf: 0.9, Box: iface.BoxFromCorners(1, 1, 2, 2)}
	s := testServer(t, []iface.Detection{wet})
	router := s.Router()

	t.Run("ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pong")
	})

	t.Run("analyze against matching bin", func(t *testing.T) {
		b64 := base64.StdEncoding.EncodeToString(encodedFrame(t))
		body := `{"image":"` + b64 + `","bin":"wet"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_violation":false`)
		assert.Contains(t, w.Body.String(), `"class":"wet"`)
	})

	t.Run("rejects bad bin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze",
			strings.NewReader(`{"image":"aGk=","bin":"compost"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing image", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
