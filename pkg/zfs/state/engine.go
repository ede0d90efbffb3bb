// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

// Engine drives pools and datasets toward a desired state. It has no
// retry layer; every call is safe to repeat.
type Engine struct {
	pools    *pool.Manager
	datasets *dataset.Manager
	catalog  *property.Catalog
	log      logger.Logger
	dryRun   bool
	devDir   string
}

func NewEngine(pools *pool.Manager, datasets *dataset.Manager, l logger.Logger) *Engine {
	if l == nil {
		l, _ = logger.NewTag(logger.Config{LogLevel: "info"}, "state")
	}
	return &Engine{
		pools:    pools,
		datasets: datasets,
		catalog:  pools.Catalog(),
		log:      l,
	}
}

// DryRun returns a copy of the engine that reports changes without
// issuing any mutating command.
func (e *Engine) DryRun(on bool) *Engine {
	c := *e
	c.dryRun = on
	return &c
}

// WithDeviceDir returns a copy of the engine that resolves relative layout
// devices against dir unless a pool names its own directory.
func (e *Engine) WithDeviceDir(dir string) *Engine {
	c := *e
	c.devDir = dir
	return &c
}

func (e *Engine) deviceDir(cfg PoolConfig) string {
	if cfg.DeviceDir != "" {
		return cfg.DeviceDir
	}
	if e.devDir != "" {
		return e.devDir
	}
	return DefaultDeviceDir
}

type runIDKey struct{}

// WithRunID tags every report produced under ctx with id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func (e *Engine) newReport(ctx context.Context, state, name string) *Report {
	id, _ := ctx.Value(runIDKey{}).(string)
	if id == "" {
		id = uuid.NewString()
	}
	return &Report{Name: name, State: state, Result: true, Changes: map[string]any{}, RunID: id}
}

func (r *Report) fail(comment string, kind errors.Kind) *Report {
	r.Result = false
	r.Comment = comment
	r.Kind = kind
	return r
}

func (r *Report) failErr(err error) *Report {
	msg := err.Error()
	var ze *errors.ZError
	if errors.As(err, &ze) && ze.Details != "" {
		msg = ze.Details
	}
	return r.fail(msg, errors.KindOf(err))
}

// failResult prefers the tool's own error text over comment.
func (r *Report) failResult(res command.Result, comment string) *Report {
	if res.Error != "" {
		comment = res.Error
	}
	return r.fail(comment, res.Kind)
}

// PoolPresent makes sure the pool exists with the desired properties. A
// missing pool is created from the layout, or imported when no layout is
// given and st.Config.Import allows it.
func (e *Engine) PoolPresent(ctx context.Context, st PoolState) *Report {
	r := e.newReport(ctx, "pool.present", st.Name)

	exists, err := e.pools.Exists(ctx, st.Name)
	if err != nil {
		return r.failErr(err)
	}
	if exists {
		return e.updatePool(ctx, r, st)
	}

	vdevs, err := ParseLayout(st.Layout, e.deviceDir(st.Config))
	if err != nil {
		return r.failErr(err)
	}

	if len(vdevs) == 0 {
		if !st.Config.Import {
			return r.fail(fmt.Sprintf("storage pool %s was not created, no layout specified", st.Name),
				errors.KindInvalidArgument)
		}
		if e.dryRun {
			r.Changes[st.Name] = "imported"
			r.Comment = fmt.Sprintf("storage pool %s would be imported", st.Name)
			return r
		}
		res := e.pools.Import(ctx, pool.ImportConfig{
			Name:  st.Name,
			Force: st.Config.Force,
			Dirs:  st.Config.ImportDirs,
		})
		if !res.Succeeded {
			e.log.Debug("import failed", "pool", st.Name, "error", res.Error)
			return r.fail(fmt.Sprintf("storage pool %s was not imported, no (valid) layout specified for creation",
				st.Name), res.Kind)
		}
		e.log.Info("pool imported", "pool", st.Name, "run_id", r.RunID)
		r.Changes[st.Name] = "imported"
		r.Comment = fmt.Sprintf("storage pool %s was imported", st.Name)
		return r
	}

	if e.dryRun {
		r.Changes[st.Name] = "created"
		r.Comment = fmt.Sprintf("storage pool %s would be created", st.Name)
		return r
	}
	res := e.pools.Create(ctx, pool.CreateConfig{
		Name:                 st.Name,
		VDevs:                vdevs,
		Properties:           st.Properties,
		FilesystemProperties: st.FilesystemProperties,
		Force:                st.Config.Force,
	})
	if !res.Succeeded {
		return r.failResult(res, fmt.Sprintf("storage pool %s was not created", st.Name))
	}
	e.log.Info("pool created", "pool", st.Name, "run_id", r.RunID)
	r.Changes[st.Name] = "created"
	r.Comment = fmt.Sprintf("storage pool %s was created", st.Name)
	return r
}

func (e *Engine) updatePool(ctx context.Context, r *Report, st PoolState) *Report {
	if len(st.Properties) == 0 {
		r.Comment = "no update needed"
		return r
	}

	observed, err := e.pools.Properties(ctx, st.Name)
	if err != nil {
		return r.failErr(err)
	}
	diff := ComputeDiff(e.catalog, property.ScopePool, observed, st.Properties, e.log)
	if diff.Empty() {
		r.Comment = "no update needed"
		return r
	}

	changes := map[string]any{}
	var failed []string
	for _, name := range diff.Sets() {
		value := diff.Value(name)
		if !e.dryRun {
			res := e.pools.Set(ctx, st.Name, name, value)
			if !res.Succeeded {
				e.log.Warn("pool property not updated", "pool", st.Name, "property", name, "error", res.Error)
				failed = append(failed, name)
				continue
			}
		}
		e.log.Info("pool property updated", "pool", st.Name, "property", name, "run_id", r.RunID)
		changes[name] = value
	}
	if len(changes) > 0 {
		r.Changes[st.Name] = changes
	}
	if len(failed) > 0 {
		return r.fail("The following properties were not updated: "+strings.Join(failed, ", "),
			errors.KindPermissionOrState)
	}
	r.Comment = "properties updated"
	return r
}

// PoolAbsent exports or destroys the pool. A missing pool is a no-op.
func (e *Engine) PoolAbsent(ctx context.Context, name string, export, force bool) *Report {
	r := e.newReport(ctx, "pool.absent", name)

	exists, err := e.pools.Exists(ctx, name)
	if err != nil {
		return r.failErr(err)
	}
	if !exists {
		r.Comment = fmt.Sprintf("storage pool %s is absent", name)
		return r
	}

	action := "destroyed"
	if export {
		action = "exported"
	}
	if !e.dryRun {
		var res command.Result
		if export {
			res = e.pools.Export(ctx, force, name)
		} else {
			res = e.pools.Destroy(ctx, name, force)
		}
		if !res.Succeeded {
			return r.failResult(res, fmt.Sprintf("storage pool %s was not %s", name, action))
		}
	}
	e.log.Info("pool removed", "pool", name, "action", action, "run_id", r.RunID)
	r.Changes[name] = action
	r.Comment = fmt.Sprintf("storage pool %s was %s", name, action)
	return r
}
