// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"github.com/stratastor/zstate/pkg/zfs/state"
)

// NewHandler wires the managers and engine into HTTP handlers. reports
// may be nil.
func NewHandler(engine *state.Engine, pools *pool.Manager, datasets *dataset.Manager,
	reports ReportSource, l logger.Logger) *Handler {
	if l == nil {
		l, _ = logger.NewTag(logger.Config{LogLevel: "info"}, "api")
	}
	return &Handler{
		pools:    pools,
		datasets: datasets,
		engine:   engine,
		reports:  reports,
		log:      l,
	}
}

func (h *Handler) getCatalog(c *gin.Context) {
	scope := c.MustGet("scope").(property.Scope)
	c.JSON(http.StatusOK, catalogResponse{
		Scope:      scope,
		Properties: h.pools.Catalog().Properties(scope),
	})
}

func (h *Handler) getPoolProperties(c *gin.Context) {
	name := c.Param("name")

	listing, err := h.pools.Get(c.Request.Context(), name, splitList(c.Query("properties")),
		pool.GetOptions{
			Raw:      c.Query("raw") == "true",
			Humanize: c.Query("humanize") == "true",
		})
	if err != nil {
		APIError(c, err)
		return
	}
	if listing.Len() == 0 {
		APIError(c, errors.New(errors.ZFSPoolNotFound, name))
		return
	}
	c.JSON(http.StatusOK, listingResponse{Result: listing})
}

func (h *Handler) getDatasetProperties(c *gin.Context) {
	name := c.GetString("dataset")

	opts := dataset.GetOptions{
		Properties: splitList(c.Query("properties")),
		Recursive:  c.Query("recursive") == "true",
		Type:       c.Query("type"),
		Source:     c.Query("source"),
		Raw:        c.Query("raw") == "true",
		Humanize:   c.Query("humanize") == "true",
	}
	if d := c.Query("depth"); d != "" {
		depth, err := strconv.Atoi(d)
		if err != nil || depth < 0 {
			APIError(c, errors.New(errors.ServerRequestValidation, "depth must be a non-negative integer"))
			return
		}
		opts.Depth = depth
	}

	listing, err := h.datasets.Get(c.Request.Context(), []string{name}, opts)
	if err != nil {
		APIError(c, err)
		return
	}
	c.JSON(http.StatusOK, listingResponse{Result: listing})
}

// apply accepts a YAML or JSON state document. The body is read raw since
// the document decoder applies defaults binding would skip.
func (h *Handler) apply(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		APIError(c, errors.Wrap(err, errors.StateReadFailed))
		return
	}
	doc, err := state.ParseDocument(body)
	if err != nil {
		APIError(c, err)
		return
	}

	dryRun := c.Query("dry_run") == "true"
	engine := h.engine.DryRun(dryRun)
	reports := engine.Apply(c.Request.Context(), doc)

	converged := state.Converged(reports)
	status := http.StatusOK
	if !converged {
		status = http.StatusUnprocessableEntity
	}
	h.log.Info("state applied over http",
		"request_id", c.GetString("request_id"),
		"converged", converged,
		"reports", len(reports),
		"dry_run", dryRun)

	c.JSON(status, applyResponse{
		Converged: converged,
		DryRun:    dryRun,
		Reports:   reports,
	})
}

func (h *Handler) lastReports(c *gin.Context) {
	if h.reports == nil {
		APIError(c, errors.New(errors.StateScheduleFailed, "scheduler not running").
			WithKind(errors.KindToolUnavailable))
		return
	}
	reports, at, err := h.reports.Last()
	resp := reportsResponse{Reports: reports}
	if !at.IsZero() {
		resp.LastRun = &at
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
