/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dataset

import (
	"context"
	"strconv"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/common"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Manager handles ZFS dataset operations
type Manager struct {
	runner  command.Runner
	builder *command.Builder
	log     logger.Logger
}

func NewManager(runner command.Runner, builder *command.Builder, l logger.Logger) *Manager {
	if l == nil {
		l, _ = logger.NewTag(logger.Config{LogLevel: "info"}, "zfs")
	}
	return &Manager{runner: runner, builder: builder, log: l}
}

// Catalog returns the catalog values are decoded with.
func (m *Manager) Catalog() *property.Catalog {
	return m.builder.Catalog()
}

func (m *Manager) exec(ctx context.Context, label string, spec command.Spec) command.Result {
	spec.Scope = property.ScopeDataset
	cmd := m.builder.Build(spec)

	out, err := m.runner.Run(ctx, cmd)
	if err != nil {
		m.log.Error("zfs command could not run", "cmd", cmd.String(), "err", err)
		return command.FromError(label, err)
	}
	res := command.ParseResult(out, label)
	if !res.Succeeded {
		m.log.Debug("zfs command failed", "cmd", cmd.String(), "error", res.Error)
	}
	return res
}

func (m *Manager) query(ctx context.Context, spec command.Spec) (string, error) {
	spec.Scope = property.ScopeDataset
	cmd := m.builder.Build(spec)

	out, err := m.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if out.Retcode != 0 {
		res := command.ParseResult(out, "")
		return "", errors.NewCommandError(cmd.String(), out.Retcode, res.Error)
	}
	return out.Stdout, nil
}

func checkName(label, name string, dtype common.DatasetType) (command.Result, bool) {
	if err := common.ValidateName(name, dtype); err != nil {
		return command.Failed(label, err.Error(), errors.KindOf(err)), false
	}
	return command.Result{}, true
}

func checkMountpoint(label string, props map[string]any) (command.Result, bool) {
	mp, ok := props["mountpoint"].(string)
	if !ok {
		return command.Result{}, true
	}
	if err := common.MountpointNameCheck(mp); err != nil {
		return command.Failed(label, err.Error(), errors.KindOf(err)), false
	}
	return command.Result{}, true
}

// Exists checks if a dataset exists. A zero typ matches any type.
func (m *Manager) Exists(ctx context.Context, name string, typ common.DatasetType) (bool, error) {
	spec := command.Spec{
		Scope:      property.ScopeDataset,
		Subcommand: "list",
		Targets:    []string{name},
	}
	if types := typeList(typ); types != "" {
		spec.Options = map[string][]any{"-t": {types}}
	}
	out, err := m.runner.Run(ctx, m.builder.Build(spec))
	if err != nil {
		return false, err
	}
	return out.Retcode == 0, nil
}

// Create creates a filesystem, or a volume when cfg.VolumeSize is set.
// Properties are applied by the same invocation.
func (m *Manager) Create(ctx context.Context, cfg CreateConfig) command.Result {
	const label = "created"
	if res, ok := checkName(label, cfg.Name, common.TypeFilesystem|common.TypeVolume); !ok {
		return res
	}
	if res, ok := checkMountpoint(label, cfg.Properties); !ok {
		return res
	}

	var flags []string
	if cfg.CreateParent {
		flags = append(flags, "-p")
	}
	var opts map[string][]any
	if cfg.VolumeSize != nil {
		if cfg.Sparse {
			flags = append(flags, "-s")
		}
		size := property.Encode(property.TypeSize, cfg.VolumeSize, false)
		if _, err := strconv.ParseInt(size, 10, 64); err != nil {
			return command.Failed(label, "invalid volume size: "+size, errors.KindInvalidArgument)
		}
		opts = map[string][]any{"-V": {size}}
	}

	res := m.exec(ctx, label, command.Spec{
		Subcommand:           "create",
		Flags:                flags,
		Options:              opts,
		FilesystemProperties: cfg.Properties,
		Targets:              []string{cfg.Name},
	})
	if res.Succeeded {
		m.log.Info("dataset created", "name", cfg.Name)
	}
	return res
}

// Destroy removes a dataset, snapshot or bookmark.
func (m *Manager) Destroy(ctx context.Context, name string, opts DestroyOptions) command.Result {
	const label = "destroyed"
	if res, ok := checkName(label, name, common.TypeEntityMask); !ok {
		return res
	}
	var flags []string
	if opts.Force {
		flags = append(flags, "-f")
	}
	if opts.RecursiveAll {
		flags = append(flags, "-R")
	}
	if opts.Recursive {
		flags = append(flags, "-r")
	}
	res := m.exec(ctx, label, command.Spec{Subcommand: "destroy", Flags: flags, Targets: []string{name}})
	if res.Succeeded {
		m.log.Info("dataset destroyed", "name", name)
	}
	return res
}

// Rename renames a dataset or snapshot.
func (m *Manager) Rename(ctx context.Context, name, newName string, opts RenameOptions) command.Result {
	const label = "renamed"
	if res, ok := checkName(label, newName, common.TypeEntityMask); !ok {
		return res
	}

	var flags []string
	if common.InferType(name).IsSnapshot() {
		if opts.Recursive {
			flags = append(flags, "-r")
		}
		if opts.CreateParent || opts.Force {
			m.log.Warn("create_parent and force do not apply to snapshots", "name", name)
		}
	} else {
		if opts.CreateParent {
			flags = append(flags, "-p")
		}
		if opts.Force {
			flags = append(flags, "-f")
		}
		if opts.Recursive {
			m.log.Warn("recursive only applies to snapshots", "name", name)
		}
	}
	return m.exec(ctx, label, command.Spec{Subcommand: "rename", Flags: flags, Targets: []string{name, newName}})
}

// List reports the selected columns of name (or every dataset).
func (m *Manager) List(ctx context.Context, opts ListOptions) (*command.Listing, error) {
	props := []string{"name"}
	columns := opts.Properties
	if len(columns) == 0 {
		columns = DefaultListProperties
	}
	for _, c := range columns {
		if c != "name" {
			props = append(props, c)
		}
	}

	flags := []string{"-H"}
	options := map[string][]any{"-o": {strings.Join(props, ",")}}
	if opts.Recursive {
		flags = append(flags, "-r")
		if opts.Depth > 0 {
			options["-d"] = []any{opts.Depth}
		}
	}
	if opts.Type != "" {
		options["-t"] = []any{opts.Type}
	}
	if opts.Sort != "" && slices.Contains(props, opts.Sort) {
		key := "-s"
		if opts.Descending {
			key = "-S"
		}
		options[key] = []any{opts.Sort}
	}

	out, err := m.query(ctx, command.Spec{
		Subcommand: "list",
		Flags:      flags,
		Options:    options,
		Targets:    []string{opts.Name},
	})
	if err != nil {
		return nil, err
	}

	l := command.NewListing()
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		for i := 1; i < len(cols) && i < len(props); i++ {
			value := m.Catalog().DecodeAuto(property.ScopeDataset, props[i], cols[i])
			if !opts.Parsable {
				value = m.Catalog().EncodeAuto(property.ScopeDataset, props[i], value, true)
			}
			l.Set(cols[0], props[i], command.Entry{Value: value})
		}
	}
	return l, nil
}

// Get returns properties of one or more datasets.
func (m *Manager) Get(ctx context.Context, names []string, opts GetOptions) (*command.Listing, error) {
	fields := []string{"name", "property"}
	extra := opts.Fields
	if len(extra) == 0 {
		extra = []string{"value", "source"}
	}
	for _, f := range extra {
		if f != "name" && f != "property" {
			fields = append(fields, f)
		}
	}

	flags := []string{"-H"}
	if opts.Parsable {
		flags = append(flags, "-p")
	}
	options := map[string][]any{"-o": {strings.Join(fields, ",")}}
	if opts.Depth > 0 {
		options["-d"] = []any{opts.Depth}
	} else if opts.Recursive {
		flags = append(flags, "-r")
	}
	if opts.Type != "" {
		options["-t"] = []any{opts.Type}
	}
	if opts.Source != "" {
		options["-s"] = []any{opts.Source}
	}
	props := "all"
	if len(opts.Properties) > 0 {
		props = strings.Join(opts.Properties, ",")
	}

	out, err := m.query(ctx, command.Spec{
		Subcommand:    "get",
		Flags:         flags,
		Options:       options,
		PropertyNames: []string{props},
		Targets:       names,
	})
	if err != nil {
		return nil, err
	}
	return command.ParseListing(out, m.Catalog(), command.ListingOptions{
		Scope:    property.ScopeDataset,
		Fields:   fields,
		Raw:      opts.Raw,
		Humanize: opts.Humanize,
	})
}

// Properties returns every property of name, decoded.
func (m *Manager) Properties(ctx context.Context, name string) (map[string]any, error) {
	l, err := m.Get(ctx, []string{name}, GetOptions{Parsable: true})
	if err != nil {
		return nil, err
	}
	return l.Values(name), nil
}

// Property returns a single decoded value.
func (m *Manager) Property(ctx context.Context, name, prop string) (command.Entry, error) {
	l, err := m.Get(ctx, []string{name}, GetOptions{Properties: []string{prop}})
	if err != nil {
		return command.Entry{}, err
	}
	e, ok := l.Get(name, prop)
	if !ok {
		return command.Entry{}, errors.New(errors.PropertyUnknown, prop).WithMetadata("dataset", name)
	}
	return e, nil
}

// Set assigns every property in props with a single invocation.
func (m *Manager) Set(ctx context.Context, props map[string]any, names ...string) command.Result {
	const label = "set"
	if len(props) == 0 {
		return command.Failed(label, "no properties to set", errors.KindInvalidArgument)
	}
	if res, ok := checkMountpoint(label, props); !ok {
		return res
	}
	keys := maps.Keys(props)
	slices.Sort(keys)
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = props[k]
	}
	return m.exec(ctx, label, command.Spec{
		Subcommand:     "set",
		PropertyNames:  keys,
		PropertyValues: values,
		Targets:        names,
	})
}

// Inherit clears a local value. revert (-S) falls back to the received
// value instead of the parent's.
func (m *Manager) Inherit(ctx context.Context, prop, name string, recursive, revert bool) command.Result {
	var flags []string
	if recursive {
		flags = append(flags, "-r")
	}
	if revert {
		flags = append(flags, "-S")
	}
	return m.exec(ctx, "inherited", command.Spec{
		Subcommand:    "inherit",
		Flags:         flags,
		PropertyNames: []string{prop},
		Targets:       []string{name},
	})
}

// Snapshot creates one or more snapshots atomically.
func (m *Manager) Snapshot(ctx context.Context, names []string, recursive bool, props map[string]any) command.Result {
	const label = "snapshotted"
	for _, n := range names {
		if res, ok := checkName(label, n, common.TypeSnapshot); !ok {
			return res
		}
	}
	var flags []string
	if recursive {
		flags = append(flags, "-r")
	}
	return m.exec(ctx, label, command.Spec{
		Subcommand:           "snapshot",
		Flags:                flags,
		FilesystemProperties: props,
		Targets:              names,
	})
}

// Bookmark creates bookmark from snapshot.
func (m *Manager) Bookmark(ctx context.Context, snapshot, bookmark string) command.Result {
	const label = "bookmarked"
	if res, ok := checkName(label, snapshot, common.TypeSnapshot|common.TypeBookmark); !ok {
		return res
	}
	if res, ok := checkName(label, bookmark, common.TypeBookmark); !ok {
		return res
	}
	return m.exec(ctx, label, command.Spec{Subcommand: "bookmark", Targets: []string{snapshot, bookmark}})
}

// Clone creates name from snapshot.
func (m *Manager) Clone(ctx context.Context, snapshot, name string, createParent bool, props map[string]any) command.Result {
	const label = "cloned"
	if res, ok := checkName(label, snapshot, common.TypeSnapshot); !ok {
		return res
	}
	return m.exec(ctx, label, command.Spec{
		Subcommand:           "clone",
		Flags:                flagIf(createParent, "-p"),
		FilesystemProperties: props,
		Targets:              []string{snapshot, name},
	})
}

// Promote makes a clone independent of its origin snapshot.
func (m *Manager) Promote(ctx context.Context, name string) command.Result {
	return m.exec(ctx, "promoted", command.Spec{Subcommand: "promote", Targets: []string{name}})
}

// Rollback reverts the dataset to snapshot.
func (m *Manager) Rollback(ctx context.Context, snapshot string, opts RollbackOptions) command.Result {
	const label = "rolledback"
	if res, ok := checkName(label, snapshot, common.TypeSnapshot); !ok {
		return res
	}
	var flags []string
	if opts.RecursiveAll {
		flags = append(flags, "-R")
	}
	if opts.Recursive {
		flags = append(flags, "-r")
	}
	if opts.Force {
		if opts.Recursive || opts.RecursiveAll {
			flags = append(flags, "-f")
		} else {
			m.log.Warn("force needs recursive or recursive_all", "snapshot", snapshot)
		}
	}
	return m.exec(ctx, label, command.Spec{Subcommand: "rollback", Flags: flags, Targets: []string{snapshot}})
}

// Mount mounts name, or every filesystem when name is empty.
func (m *Manager) Mount(ctx context.Context, name string, opts MountOptions) command.Result {
	var flags []string
	if opts.Overlay {
		flags = append(flags, "-O")
	}
	if name == "" {
		flags = append(flags, "-a")
	}
	var options map[string][]any
	if opts.Options != "" {
		options = map[string][]any{"-o": {opts.Options}}
	}
	return m.exec(ctx, "mounted", command.Spec{
		Subcommand: "mount",
		Flags:      flags,
		Options:    options,
		Targets:    []string{name},
	})
}

// Unmount unmounts name, or every filesystem when name is empty.
func (m *Manager) Unmount(ctx context.Context, name string, force bool) command.Result {
	flags := flagIf(force, "-f")
	if name == "" {
		flags = append(flags, "-a")
	}
	return m.exec(ctx, "unmounted", command.Spec{Subcommand: "unmount", Flags: flags, Targets: []string{name}})
}

// typeList renders a type mask the way -t expects it, e.g.
// "filesystem,volume".
func typeList(typ common.DatasetType) string {
	var names []string
	for _, t := range []common.DatasetType{
		common.TypeFilesystem, common.TypeVolume, common.TypeSnapshot, common.TypeBookmark,
	} {
		if typ&t != 0 {
			names = append(names, t.String())
		}
	}
	return strings.Join(names, ",")
}

func flagIf(cond bool, flag string) []string {
	if cond {
		return []string{flag}
	}
	return nil
}
