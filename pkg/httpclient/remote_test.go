package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/constants"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemote(t *testing.T, h http.HandlerFunc) *Remote {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	cfg := NewClientConfig()
	cfg.BaseURL = ts.URL
	cfg.RetryCount = 0
	return NewRemote(cfg)
}

func TestRemoteApply(t *testing.T) {
	var gotBody, gotQuery string
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, constants.APIApply, r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotQuery = r.URL.Query().Get("dry_run")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"converged":false,"dry_run":true,"reports":[` +
			`{"name":"tank","state":"pool.present","result":false,"changes":{},"comment":"boom","run_id":"r1"}]}`))
	})

	res, err := remote.Apply(context.Background(), []byte("pools: []\n"), true)
	require.NoError(t, err)
	assert.Equal(t, "pools: []\n", gotBody)
	assert.Equal(t, "true", gotQuery)
	assert.False(t, res.Converged)
	assert.True(t, res.DryRun)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, "boom", res.Reports[0].Comment)
}

func TestRemoteApplyRejected(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":2100,"domain":"STATE","kind":"InvalidArgument","message":"Invalid state document"}`))
	})

	_, err := remote.Apply(context.Background(), []byte("bad"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StateInvalidDocument))
	assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))
}

func TestRemoteUnreachable(t *testing.T) {
	cfg := NewClientConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.RetryCount = 0

	_, err := NewRemote(cfg).Apply(context.Background(), []byte("pools: []\n"), false)
	require.Error(t, err)
	assert.Equal(t, errors.KindToolUnavailable, errors.KindOf(err))
}

func TestRemoteReportsAndHealth(t *testing.T) {
	remote := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case constants.APIReports:
			_, _ = w.Write([]byte(`{"reports":[{"name":"tank","state":"pool.present","result":true,` +
				`"changes":{},"comment":"no update needed","run_id":"r1"}],"last_run":"2025-03-01T12:00:00Z"}`))
		case "/health":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	reports, err := remote.Reports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports.Reports, 1)
	assert.Equal(t, "no update needed", reports.Reports[0].Comment)
	require.NotNil(t, reports.LastRun)
	assert.Equal(t, 2025, reports.LastRun.Year())

	_, err = remote.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRemoteFromConfig(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(ts.Close)

	cfg := &config.Config{}
	cfg.Remote.BaseURL = "http://127.0.0.1:1"
	cfg.Remote.Token = "s3cret"
	cfg.Remote.Timeout = 5 * time.Second

	remote := RemoteFromConfig(cfg, ts.URL)
	out, err := remote.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "Bearer s3cret", auth)
}
