package uxastunnel

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/socheatsok78/uxastunnel/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFrame = "afrl.cmasi.AirVehicleState$lmcp|afrl.cmasi.AirVehicleState||1|2$LMCPthisisthepayloadhereblabla$sads$"

type recordingForwarder struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (f *recordingForwarder) SendFrame(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func newTestRouter(t *testing.T, cfg *Tunnel, fwd Forwarder) http.Handler {
	t.Helper()
	return NewRouter(cfg, fwd, log.NewNopLogger(), prometheus.NewRegistry())
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", HttpHeaderContentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTunnelForwardsEnvelope(t *testing.T) {
	fwd := &recordingForwarder{}
	h := newTestRouter(t, &Tunnel{TunnelURLPath: "/tunnel"}, fwd)

	rec := post(h, "/tunnel/", testFrame)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, fwd.frames, 1)
	assert.Equal(t, testFrame, string(fwd.frames[0]))

	var res struct {
		Status   string `json:"status"`
		ID       string `json:"id"`
		Envelope struct {
			Address     string `json:"address"`
			Descriptor  string `json:"descriptor"`
			PayloadSize int    `json:"payload_size"`
		} `json:"envelope"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ok", res.Status)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, res.ID, rec.Header().Get(middleware.TunnelIDHeader))
	assert.Equal(t, "afrl.cmasi.AirVehicleState", res.Envelope.Address)
	assert.Equal(t, "afrl.cmasi.AirVehicleState", res.Envelope.Descriptor)
	assert.Equal(t, 36, res.Envelope.PayloadSize)
	assert.Equal(t, HttpHeaderUserAgent, rec.Header().Get("Server"))
}

func TestTunnelKeepsClientRequestID(t *testing.T) {
	h := newTestRouter(t, &Tunnel{}, &recordingForwarder{})

	req := httptest.NewRequest(http.MethodPost, "/tunnel/", strings.NewReader(testFrame))
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.TunnelIDHeader))
}

func TestTunnelRejectsMalformedEnvelope(t *testing.T) {
	fwd := &recordingForwarder{}
	h := newTestRouter(t, &Tunnel{}, fwd)

	for _, body := range []string{
		"",
		"addr$lmcp|d|g|1|2",
		"addr$lmcp|d|g|1$payload",
	} {
		rec := post(h, "/tunnel/", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Contains(t, rec.Body.String(), "malformed", "body %q", body)
	}
	assert.Empty(t, fwd.frames)
}

func TestTunnelContentTypeFilter(t *testing.T) {
	fwd := &recordingForwarder{}
	h := newTestRouter(t, &Tunnel{AllowedContentTypes: []string{"json"}}, fwd)

	rec := post(h, "/tunnel/", testFrame)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(h, "/tunnel/", "uxas.roadmonitor$json|d||1|2${}")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, fwd.frames, 1)
}

func TestTunnelForwardError(t *testing.T) {
	h := newTestRouter(t, &Tunnel{}, &recordingForwarder{err: errors.New("broken pipe")})

	rec := post(h, "/tunnel/", testFrame)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "broken pipe")
}

func TestTunnelMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, &Tunnel{}, &recordingForwarder{})

	req := httptest.NewRequest(http.MethodGet, "/tunnel/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTunnelBodyTooLarge(t *testing.T) {
	fwd := &recordingForwarder{}
	h := newTestRouter(t, &Tunnel{}, fwd)

	body := "a$b|c|d|e|f$" + string(bytes.Repeat([]byte("x"), MaxEnvelopeSize))
	rec := post(h, "/tunnel/", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, fwd.frames)
}

func TestCustomTunnelPath(t *testing.T) {
	fwd := &recordingForwarder{}
	h := newTestRouter(t, &Tunnel{TunnelURLPath: "/uxas"}, fwd)

	rec := post(h, "/uxas/", testFrame)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(h, "/tunnel/", testFrame)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHeartbeat(t *testing.T) {
	h := newTestRouter(t, &Tunnel{}, &recordingForwarder{})

	req := httptest.NewRequest(http.MethodGet, "/heartbeat", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
