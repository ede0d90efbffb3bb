package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stratastor/zstate/pkg/zfs/state"
	"github.com/stratastor/zstate/pkg/zfs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "/api/v1/zstate"

type staticReports struct {
	reports []*state.Report
	at      time.Time
}

func (s staticReports) Last() ([]*state.Report, time.Time, error) {
	return s.reports, s.at, nil
}

func setupRouter(t *testing.T, reports ReportSource) (*gin.Engine, *testutil.FakeRunner) {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "api-test")
	require.NoError(t, err)

	runner := testutil.NewFakeRunner()
	builder := command.NewBuilder(testutil.Catalog(t), command.Binaries{})
	pools := pool.NewManager(runner, builder, l)
	datasets := dataset.NewManager(runner, builder, l)
	engine := state.NewEngine(pools, datasets, l)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	NewHandler(engine, pools, datasets, reports, l).RegisterRoutes(router.Group(base))
	return router, runner
}

func serve(router *gin.Engine, method, uri, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, uri, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCatalogRoute(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := serve(router, http.MethodGet, base+"/catalog/pool", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "pool", body["scope"])
	props := body["properties"].(map[string]any)
	autoexpand := props["autoexpand"].(map[string]any)
	assert.Equal(t, "bool", autoexpand["type"])
	assert.Equal(t, true, autoexpand["edit"])
	assert.NotContains(t, props, "compression")

	w = serve(router, http.MethodGet, base+"/catalog/zfs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["properties"], "compression")

	w = serve(router, http.MethodGet, base+"/catalog/bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPoolPropertiesRoute(t *testing.T) {
	router, runner := setupRouter(t, nil)
	runner.On("zpool get", command.Output{Stdout: "tank\tautoexpand\ton\tlocal\ntank\tsize\t1099511627776\t-\n"})

	w := serve(router, http.MethodGet, base+"/pools/tank/properties?properties=autoexpand,size&humanize=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"zpool get -H -o name,property,value,source autoexpand,size tank"}, runner.Lines())

	result := decode(t, w)["result"].(map[string]any)
	tank := result["tank"].(map[string]any)
	assert.Equal(t, map[string]any{"value": "on", "source": "local"}, tank["autoexpand"])
	assert.Equal(t, "1T", tank["size"].(map[string]any)["value"])
}

func TestPoolPropertiesErrors(t *testing.T) {
	router, runner := setupRouter(t, nil)
	runner.On("zpool get", command.Output{Retcode: 1, Stderr: "cannot open 'nopool': no such pool\n"})

	w := serve(router, http.MethodGet, base+"/pools/nopool/properties", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decode(t, w)["kind"])

	runner.Reset()
	w = serve(router, http.MethodGet, base+"/pools/1bad/properties", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, runner.Calls(), "invalid names never reach the tool")
}

func TestDatasetPropertiesRoute(t *testing.T) {
	router, runner := setupRouter(t, nil)
	runner.On("zfs get", command.Output{Stdout: "tank/data\tcompression\ton\tlocal\n"})

	w := serve(router, http.MethodGet, base+"/datasets/tank/data?properties=compression&depth=1&source=local", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t,
		[]string{"zfs get -H -d 1 -o name,property,value,source -s local compression tank/data"},
		runner.Lines())

	result := decode(t, w)["result"].(map[string]any)
	assert.Equal(t,
		map[string]any{"compression": map[string]any{"value": true, "source": "local"}},
		result["tank/data"])

	w = serve(router, http.MethodGet, base+"/datasets/tank/data?depth=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, base+"/datasets/tank/a@b@c", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const applyDoc = `
datasets:
  - name: tank/home
    properties:
      compression: "on"
`

func TestApplyRoute(t *testing.T) {
	t.Run("converges", func(t *testing.T) {
		router, runner := setupRouter(t, nil)
		runner.On("zfs list", command.Output{Retcode: 1, Stderr: "dataset does not exist"})

		w := serve(router, http.MethodPost, base+"/apply", applyDoc)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		assert.Equal(t, true, body["converged"])
		assert.Equal(t, false, body["dry_run"])
		reports := body["reports"].([]any)
		require.Len(t, reports, 1)
		assert.Equal(t, "filesystem tank/home was created", reports[0].(map[string]any)["comment"])

		var created []string
		for _, c := range runner.Mutations() {
			created = append(created, c.Line())
		}
		assert.Equal(t, []string{"zfs create -o compression=on tank/home"}, created)
	})

	t.Run("dry run", func(t *testing.T) {
		router, runner := setupRouter(t, nil)
		runner.On("zfs list", command.Output{Retcode: 1, Stderr: "dataset does not exist"})

		w := serve(router, http.MethodPost, base+"/apply?dry_run=true", applyDoc)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decode(t, w)["dry_run"])
		assert.Empty(t, runner.Mutations())
	})

	t.Run("not converged", func(t *testing.T) {
		router, runner := setupRouter(t, nil)
		runner.On("zfs list", command.Output{Retcode: 1, Stderr: "dataset does not exist"})
		runner.On("zfs create", command.Output{Retcode: 1, Stderr: "cannot create 'tank/home': permission denied"})

		w := serve(router, http.MethodPost, base+"/apply", applyDoc)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, false, decode(t, w)["converged"])
	})

	t.Run("invalid document", func(t *testing.T) {
		router, runner := setupRouter(t, nil)

		w := serve(router, http.MethodPost, base+"/apply", "datasets:\n  - kind: filesystem\n")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, runner.Calls())
	})
}

func TestReportsRoute(t *testing.T) {
	router, _ := setupRouter(t, nil)
	w := serve(router, http.MethodGet, base+"/reports", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	router, _ = setupRouter(t, staticReports{
		reports: []*state.Report{{Name: "tank", State: "pool.present", Result: true, Comment: "no update needed"}},
		at:      at,
	})
	w = serve(router, http.MethodGet, base+"/reports", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "2025-03-01T12:00:00Z", body["last_run"])
	require.Len(t, body["reports"], 1)
}
