package api

import (
	"github.com/gin-gonic/gin"
)

// Catalog:
//
//	GET    /catalog/:scope          Property descriptors of pool, dataset or auto
//	  Response: {"scope": "pool", "properties": {"autoexpand": {...}}}
//
// Pools:
//
//	GET    /pools/:name/properties  Pool properties
//	  Query:    properties=a,b raw=true humanize=true
//	  Response: {"result": {"tank": {"autoexpand": {"value": true, "source": "local"}}}}
//
// Datasets:
//
//	GET    /datasets/*name          Dataset, snapshot or bookmark properties
//	  Query:    properties=a,b recursive=true depth=1 type=filesystem source=local
//	            raw=true humanize=true
//	  Response: {"result": {"tank/fs": {...}}}
//
// State:
//
//	POST   /apply                   Converge a YAML or JSON state document
//	  Query:    dry_run=true
//	  Response: {"converged": true, "dry_run": false, "reports": [...]}
//	            422 when any entry did not converge
//
//	GET    /reports                 Reports of the last scheduled run
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.Use(ErrorHandler())

	router.GET("/catalog/:scope", ValidateScope(), h.getCatalog)

	pools := router.Group("/pools")
	{
		pools.GET("/:name/properties", ValidatePoolName(), h.getPoolProperties)
	}

	datasets := router.Group("/datasets")
	{
		datasets.GET("/*name", ValidateDatasetName(), h.getDatasetProperties)
	}

	router.POST("/apply", LimitBody(maxDocumentSize), h.apply)
	router.GET("/reports", h.lastReports)
}
