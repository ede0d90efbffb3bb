package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/internal/constants"
	"github.com/stratastor/zstate/internal/managers"
	"github.com/stratastor/zstate/pkg/zfs/api"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

// registerRoutes mounts health, metrics and the zstate API on engine.
// reports may be nil when no scheduler runs.
func registerRoutes(engine *gin.Engine, set *managers.Set, reports api.ReportSource,
	gatherer prometheus.Gatherer, l logger.Logger) {
	engine.GET("/health", health(set))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	handler := api.NewHandler(set.Engine, set.Pools, set.Datasets, reports, l)
	handler.RegisterRoutes(engine.Group(constants.APIBase))
}

// health reports ok while both tool binaries resolve.
func health(set *managers.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		bins := set.Executor.Binaries()
		status := http.StatusOK
		body := gin.H{
			"status":             "healthy",
			"pool_properties":    len(set.Catalog.Names(property.ScopePool)),
			"dataset_properties": len(set.Catalog.Names(property.ScopeDataset)),
		}
		for _, bin := range []string{bins.ZFS, bins.Zpool} {
			if err := set.Executor.Available(bin); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["error"] = err.Error()
				break
			}
		}
		c.JSON(status, body)
	}
}
