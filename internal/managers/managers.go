// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package managers assembles the executor, property catalog, pool and
// dataset managers and the reconciliation engine from configuration, so
// the CLI and the HTTP server share one construction path.
//
// Usage:
//   - cmd/* call Build once per process
//   - pkg/server receives the built Set and never constructs managers itself
package managers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"github.com/stratastor/zstate/pkg/zfs/state"
)

// Set is every component one process needs.
type Set struct {
	Executor *command.CommandExecutor
	Catalog  *property.Catalog
	Pools    *pool.Manager
	Datasets *dataset.Manager
	Engine   *state.Engine
}

// Build creates the executor from cfg, loads the catalog from the
// installed tools and wires the managers over it. reg may be nil when
// metrics are not exported. A catalog that could not be loaded is logged
// and left empty; every property then resolves as a string.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Set, error) {
	lcfg := config.NewLoggerConfig(cfg)
	l, err := logger.NewTag(lcfg, "zstate")
	if err != nil {
		return nil, err
	}

	bins := command.Binaries{ZFS: cfg.ZFS.BinZFS, Zpool: cfg.ZFS.BinZpool}
	opts := []command.ExecutorOption{
		command.WithTimeout(cfg.ZFS.Timeout),
		command.WithBinaries(bins),
	}
	if reg != nil {
		m, err := command.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, command.WithMetrics(m))
	}
	executor := command.NewCommandExecutor(cfg.ZFS.UseSudo, lcfg, opts...)

	catalog, err := property.Load(ctx, executor, l)
	if err != nil {
		l.Warn("property catalog incomplete", "err", err)
	}

	builder := command.NewBuilder(catalog, executor.Binaries())
	pools := pool.NewManager(executor, builder, l)
	datasets := dataset.NewManager(executor, builder, l)

	return &Set{
		Executor: executor,
		Catalog:  catalog,
		Pools:    pools,
		Datasets: datasets,
		Engine:   state.NewEngine(pools, datasets, l).WithDeviceDir(cfg.ZFS.DeviceDir),
	}, nil
}
