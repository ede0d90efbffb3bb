// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// The server wraps gin.Engine in an http.Server instead of calling
// gin.Run so it can be shut down through the lifecycle package's context
// and shutdown hooks.

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/managers"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/api"
)

var (
	mu  sync.Mutex
	srv *http.Server
)

// Options carries what Start needs beyond configuration.
type Options struct {
	Port    int
	Set     *managers.Set
	Reports api.ReportSource
	// Gatherer backs /metrics; prometheus.DefaultGatherer when nil.
	Gatherer prometheus.Gatherer
}

// NewEngine builds the gin engine with middleware and every route.
func NewEngine(opts Options, l logger.Logger) *gin.Engine {
	switch config.GetConfig().Environment {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(l))
	registerRoutes(engine, opts.Set, opts.Reports, gatherer, l)
	return engine
}

// Start serves until ctx is cancelled or the listener fails.
func Start(ctx context.Context, opts Options) error {
	l, err := logger.NewTag(config.NewLoggerConfig(config.GetConfig()), "server")
	if err != nil {
		return err
	}
	if opts.Set == nil {
		return errors.New(errors.ServerStart, "no managers configured")
	}

	mu.Lock()
	srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           NewEngine(opts, l),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s := srv
	mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		l.Info("listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return errors.Wrap(err, errors.ServerStart)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return Shutdown(shutdownCtx)
	}
}

func Shutdown(ctx context.Context) error {
	mu.Lock()
	s := srv
	srv = nil
	mu.Unlock()

	if s == nil {
		return nil
	}
	if err := s.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ServerShutdown)
	}
	return nil
}
