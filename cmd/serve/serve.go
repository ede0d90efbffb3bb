// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/managers"
	"github.com/stratastor/zstate/pkg/lifecycle"
	"github.com/stratastor/zstate/pkg/server"
	"github.com/stratastor/zstate/pkg/zfs/state"
)

func NewServeCmd() *cobra.Command {
	var detached bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and reconcile the state file on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			return runServe(cfg, detached || cfg.Server.Daemonize)
		},
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cfg *config.Config, detached bool) error {
	log, err := logger.NewTag(config.NewLoggerConfig(cfg), "serve")
	if err != nil {
		return err
	}

	if err := config.EnsureDirectories(); err != nil {
		return err
	}

	if detached {
		// The child re-runs the same command line and finds itself reborn.
		dctx := &daemon.Context{
			PidFileName: cfg.Server.PIDFile,
			PidFilePerm: 0644,
			LogFileName: cfg.Server.LogFile,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
		}
		d, err := dctx.Reborn()
		if err != nil {
			return err
		}
		if d != nil {
			log.Info("zstate is running as a daemon", "pid", d.Pid)
			return nil
		}
		defer func() { _ = dctx.Release() }()
	} else if err := lifecycle.EnsureSingleInstance(cfg.Server.PIDFile); err != nil {
		return err
	}

	return startServer(cfg, log)
}

func startServer(cfg *config.Config, log logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lifecycle.RegisterContextCanceller(cancel)

	set, err := managers.Build(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	engine := set.Engine.DryRun(cfg.Schedule.DryRun)
	scheduler, err := state.NewScheduler(engine, set.Pools, cfg.Schedule.StateFile, cfg.Schedule.Interval, log)
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	lifecycle.RegisterShutdownHook(func() {
		log.Info("stopping scheduler")
		if err := scheduler.Stop(); err != nil {
			log.Error("scheduler shutdown failed", "err", err)
		}
	})
	lifecycle.RegisterReloadHook(func() {
		log.Info("reapplying state file", "path", cfg.Schedule.StateFile)
		if _, err := scheduler.RunOnce(ctx); err != nil {
			log.Error("reapply failed", "err", err)
		}
	})
	go lifecycle.HandleSignals(ctx)

	log.Info("starting zstate server", "port", cfg.Server.Port, "state_file", cfg.Schedule.StateFile)
	err = server.Start(ctx, server.Options{
		Port:    cfg.Server.Port,
		Set:     set,
		Reports: scheduler,
	})
	lifecycle.Shutdown()
	return err
}
