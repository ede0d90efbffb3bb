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

package pool

import (
	"context"
	"strconv"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/common"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

// Manager manages ZFS pool operations. Mutating operations report tool
// failures through command.Result; queries return a ZError instead.
type Manager struct {
	runner  command.Runner
	builder *command.Builder
	log     logger.Logger
}

func NewManager(runner command.Runner, builder *command.Builder, l logger.Logger) *Manager {
	if l == nil {
		l, _ = logger.NewTag(logger.Config{LogLevel: "info"}, "zpool")
	}
	return &Manager{runner: runner, builder: builder, log: l}
}

// Catalog returns the catalog values are decoded with.
func (p *Manager) Catalog() *property.Catalog {
	return p.builder.Catalog()
}

// buildVDevArgs converts VDevSpec to command arguments
func buildVDevArgs(specs []VDevSpec) []string {
	var args []string
	for _, spec := range specs {
		if spec.Type != "" && spec.Type != "stripe" && spec.Type != "disk" {
			args = append(args, spec.Type)
		}
		args = append(args, spec.Devices...)
		if len(spec.Children) > 0 {
			args = append(args, buildVDevArgs(spec.Children)...)
		}
	}
	return args
}

func (p *Manager) exec(ctx context.Context, label string, spec command.Spec) command.Result {
	spec.Scope = property.ScopePool
	cmd := p.builder.Build(spec)

	out, err := p.runner.Run(ctx, cmd)
	if err != nil {
		p.log.Error("zpool command could not run", "cmd", cmd.String(), "err", err)
		return command.FromError(label, err)
	}
	res := command.ParseResult(out, label)
	if !res.Succeeded {
		p.log.Debug("zpool command failed", "cmd", cmd.String(), "error", res.Error)
	}
	return res
}

func (p *Manager) query(ctx context.Context, spec command.Spec) (string, error) {
	spec.Scope = property.ScopePool
	cmd := p.builder.Build(spec)

	out, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if out.Retcode != 0 {
		res := command.ParseResult(out, "")
		return "", errors.NewCommandError(cmd.String(), out.Retcode, res.Error)
	}
	return out.Stdout, nil
}

func invalid(label string, err error) command.Result {
	return command.Failed(label, err.Error(), errors.KindOf(err))
}

// Exists reports whether the pool is imported. A failing list means no.
func (p *Manager) Exists(ctx context.Context, name string) (bool, error) {
	cmd := p.builder.Build(command.Spec{
		Scope:      property.ScopePool,
		Subcommand: "list",
		Targets:    []string{name},
	})
	out, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return false, err
	}
	return out.Retcode == 0, nil
}

// Healthy reports whether `zpool status -x` finds nothing to complain about.
func (p *Manager) Healthy(ctx context.Context) (bool, error) {
	out, err := p.query(ctx, command.Spec{Subcommand: "status", Flags: []string{"-x"}})
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "all pools are healthy", nil
}

// Status returns the status of name, or of every pool when name is empty.
func (p *Manager) Status(ctx context.Context, name string) ([]*Status, error) {
	out, err := p.query(ctx, command.Spec{Subcommand: "status", Targets: []string{name}})
	if err != nil {
		return nil, err
	}
	return parseStatus(out, p.Catalog()), nil
}

// IOStat samples I/O statistics over interval seconds and returns the
// last report.
func (p *Manager) IOStat(ctx context.Context, name string, interval int, parsable bool) ([]*VDev, error) {
	if interval <= 0 {
		interval = 5
	}
	out, err := p.query(ctx, command.Spec{
		Subcommand: "iostat",
		Flags:      []string{"-v"},
		Targets:    []string{name, strconv.Itoa(interval), "2"},
	})
	if err != nil {
		return nil, err
	}
	return parseIOStat(out, p.Catalog(), parsable), nil
}

// List reports the selected columns of every pool, or of opts.Name.
func (p *Manager) List(ctx context.Context, opts ListOptions) (*command.Listing, error) {
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

	out, err := p.query(ctx, command.Spec{
		Subcommand: "list",
		Flags:      []string{"-H"},
		Options:    map[string][]any{"-o": {strings.Join(props, ",")}},
		Targets:    []string{opts.Name},
	})
	if err != nil {
		return nil, err
	}
	return parseList(out, props, p.Catalog(), opts.Parsable), nil
}

// Get returns the requested properties (all when props is empty).
func (p *Manager) Get(ctx context.Context, name string, props []string, opts GetOptions) (*command.Listing, error) {
	names := "all"
	if len(props) > 0 {
		names = strings.Join(props, ",")
	}
	flags := []string{"-H"}
	if opts.Parsable {
		flags = append(flags, "-p")
	}
	out, err := p.query(ctx, command.Spec{
		Subcommand:    "get",
		Flags:         flags,
		Options:       map[string][]any{"-o": {strings.Join(command.DefaultListingFields, ",")}},
		PropertyNames: []string{names},
		Targets:       []string{name},
	})
	if err != nil {
		return nil, err
	}
	return command.ParseListing(out, p.Catalog(), command.ListingOptions{
		Scope:    property.ScopePool,
		Raw:      opts.Raw,
		Humanize: opts.Humanize,
	})
}

// Properties returns every property of name, decoded from the exact
// machine values.
func (p *Manager) Properties(ctx context.Context, name string) (map[string]any, error) {
	l, err := p.Get(ctx, name, nil, GetOptions{Parsable: true})
	if err != nil {
		return nil, err
	}
	return l.Values(name), nil
}

// Set assigns a single pool property.
func (p *Manager) Set(ctx context.Context, name, prop string, value any) command.Result {
	return p.exec(ctx, "set", command.Spec{
		Subcommand:     "set",
		PropertyNames:  []string{prop},
		PropertyValues: []any{value},
		Targets:        []string{name},
	})
}

// Create creates a new pool. Pool and root dataset properties travel on
// the same invocation.
func (p *Manager) Create(ctx context.Context, cfg CreateConfig) command.Result {
	const label = "created"
	if err := common.PoolNameCheck(cfg.Name); err != nil {
		return invalid(label, err)
	}
	if cfg.MountPoint != "" {
		if err := common.MountpointNameCheck(cfg.MountPoint); err != nil {
			return invalid(label, err)
		}
	}
	args := buildVDevArgs(cfg.VDevs)
	if len(args) == 0 {
		return command.Failed(label, "no vdevs specified", errors.KindInvalidArgument)
	}

	var flags []string
	if cfg.Force {
		flags = append(flags, "-f")
	}
	if _, ok := cfg.Properties["bootsize"]; ok || cfg.CreateBoot {
		flags = append(flags, "-B")
	}

	res := p.exec(ctx, label, command.Spec{
		Subcommand:           "create",
		Flags:                flags,
		Options:              p.rootOptions(cfg.AltRoot, cfg.MountPoint),
		FilesystemProperties: cfg.FilesystemProperties,
		PoolProperties:       cfg.Properties,
		Targets:              append([]string{cfg.Name}, args...),
	})
	if res.Succeeded {
		p.log.Info("pool created", "pool", cfg.Name)
		res.Output = p.layout(ctx, cfg.Name)
	}
	return res
}

func (p *Manager) rootOptions(altroot, mountpoint string) map[string][]any {
	opts := map[string][]any{}
	if altroot != "" {
		opts["-R"] = []any{altroot}
	}
	if mountpoint != "" {
		opts["-m"] = []any{mountpoint}
	}
	return opts
}

// layout looks up the vdev tree of a pool after a topology change. A
// failing status only means the result carries no layout.
func (p *Manager) layout(ctx context.Context, name string) []any {
	statuses, err := p.Status(ctx, name)
	if err != nil {
		p.log.Debug("vdev layout unavailable", "pool", name, "err", err)
		return nil
	}
	for _, st := range statuses {
		if st.Name != name {
			continue
		}
		for _, root := range st.Config {
			if root.Name == name {
				return root.Layout()
			}
		}
	}
	return nil
}

// Add appends vdevs to an existing pool.
func (p *Manager) Add(ctx context.Context, name string, vdevs []VDevSpec, force bool) command.Result {
	const label = "added"
	args := buildVDevArgs(vdevs)
	if len(args) == 0 {
		return command.Failed(label, "no vdevs specified", errors.KindInvalidArgument)
	}
	res := p.exec(ctx, label, command.Spec{
		Subcommand: "add",
		Flags:      flagIf(force, "-f"),
		Targets:    append([]string{name}, args...),
	})
	if res.Succeeded {
		res.Output = p.layout(ctx, name)
	}
	return res
}

// Attach mirrors device onto newDevice.
func (p *Manager) Attach(ctx context.Context, name, device, newDevice string, force bool) command.Result {
	res := p.exec(ctx, "attached", command.Spec{
		Subcommand: "attach",
		Flags:      flagIf(force, "-f"),
		Targets:    []string{name, device, newDevice},
	})
	if res.Succeeded {
		res.Output = p.layout(ctx, name)
	}
	return res
}

// Detach removes device from a mirror.
func (p *Manager) Detach(ctx context.Context, name, device string) command.Result {
	res := p.exec(ctx, "detached", command.Spec{
		Subcommand: "detach",
		Targets:    []string{name, device},
	})
	if res.Succeeded {
		res.Output = p.layout(ctx, name)
	}
	return res
}

// Split detaches one side of every mirror into newName.
func (p *Manager) Split(ctx context.Context, name, newName string, cfg SplitConfig) command.Result {
	if err := common.PoolNameCheck(newName); err != nil {
		return invalid("split", err)
	}
	return p.exec(ctx, "split", command.Spec{
		Subcommand:     "split",
		Options:        p.rootOptions(cfg.AltRoot, ""),
		PoolProperties: cfg.Properties,
		Targets:        []string{name, newName},
	})
}

// Replace swaps oldDevice for newDevice, or resilvers oldDevice in place
// when newDevice is empty.
func (p *Manager) Replace(ctx context.Context, name, oldDevice, newDevice string, force bool) command.Result {
	res := p.exec(ctx, "replaced", command.Spec{
		Subcommand: "replace",
		Flags:      flagIf(force, "-f"),
		Targets:    []string{name, oldDevice, newDevice},
	})
	if res.Succeeded {
		res.Output = p.layout(ctx, name)
	}
	return res
}

// Destroy destroys a ZFS pool
func (p *Manager) Destroy(ctx context.Context, name string, force bool) command.Result {
	if name == "" {
		return command.Failed("destroyed", "pool name cannot be empty", errors.KindInvalidArgument)
	}
	res := p.exec(ctx, "destroyed", command.Spec{
		Subcommand: "destroy",
		Flags:      flagIf(force, "-f"),
		Targets:    []string{name},
	})
	if res.Succeeded {
		p.log.Info("pool destroyed", "pool", name)
	}
	return res
}

// Export exports one or more pools.
func (p *Manager) Export(ctx context.Context, force bool, names ...string) command.Result {
	if len(names) == 0 {
		return command.Failed("exported", "pool name cannot be empty", errors.KindInvalidArgument)
	}
	return p.exec(ctx, "exported", command.Spec{
		Subcommand: "export",
		Flags:      flagIf(force, "-f"),
		Targets:    names,
	})
}

// Import imports a pool by name, or every visible pool when cfg.Name is
// empty.
func (p *Manager) Import(ctx context.Context, cfg ImportConfig) command.Result {
	const label = "imported"
	if cfg.NewName != "" {
		if err := common.PoolNameCheck(cfg.NewName); err != nil {
			return invalid(label, err)
		}
	}

	var flags []string
	if cfg.Force || cfg.OnlyDestroyed {
		flags = append(flags, "-f")
	}
	if cfg.OnlyDestroyed {
		flags = append(flags, "-D")
	}
	if cfg.NoMount {
		flags = append(flags, "-N")
	}
	switch cfg.Recovery {
	case RecoveryRewind:
		flags = append(flags, "-F")
	case RecoveryTest:
		flags = append(flags, "-F", "-n")
	case RecoveryNoLog:
		flags = append(flags, "-m")
	}

	opts := p.rootOptions(cfg.AltRoot, "")
	if cfg.MountOptions != "" {
		opts["-o"] = []any{cfg.MountOptions}
	}
	for _, dir := range cfg.Dirs {
		opts["-d"] = append(opts["-d"], dir)
	}

	var targets []string
	if cfg.Name != "" {
		targets = []string{cfg.Name, cfg.NewName}
	} else {
		flags = append(flags, "-a")
	}

	res := p.exec(ctx, label, command.Spec{
		Subcommand:     "import",
		Flags:          flags,
		Options:        opts,
		PoolProperties: cfg.Properties,
		Targets:        targets,
	})
	if res.Succeeded {
		p.log.Info("pool imported", "pool", cfg.Name)
	}
	return res
}

// Scrub starts, stops or pauses a scrub without waiting for it. Output
// reports whether a scrub is now running.
func (p *Manager) Scrub(ctx context.Context, name string, action ScrubAction) command.Result {
	var flags []string
	switch action {
	case ScrubStop:
		flags = []string{"-s"}
	case ScrubPause:
		flags = []string{"-p"}
	}
	res := p.exec(ctx, "scrubbing", command.Spec{
		Subcommand: "scrub",
		Flags:      flags,
		Targets:    []string{name},
	})
	if res.Succeeded {
		res.Output = action == ScrubStart
	}
	return res
}

// Online brings devices online, expanding them to use all space when
// expand is set.
func (p *Manager) Online(ctx context.Context, name string, expand bool, devices ...string) command.Result {
	return p.exec(ctx, "onlined", command.Spec{
		Subcommand: "online",
		Flags:      flagIf(expand, "-e"),
		Targets:    append([]string{name}, devices...),
	})
}

// Offline takes devices offline, until the next reboot when temporary.
func (p *Manager) Offline(ctx context.Context, name string, temporary bool, devices ...string) command.Result {
	return p.exec(ctx, "offlined", command.Spec{
		Subcommand: "offline",
		Flags:      flagIf(temporary, "-t"),
		Targets:    append([]string{name}, devices...),
	})
}

// LabelClear removes ZFS label information from a device.
func (p *Manager) LabelClear(ctx context.Context, device string, force bool) command.Result {
	return p.exec(ctx, "labelcleared", command.Spec{
		Subcommand: "labelclear",
		Flags:      flagIf(force, "-f"),
		Targets:    []string{device},
	})
}

// Clear resets device errors of the pool, or of one device.
func (p *Manager) Clear(ctx context.Context, name, device string) command.Result {
	return p.exec(ctx, "cleared", command.Spec{
		Subcommand: "clear",
		Targets:    []string{name, device},
	})
}

// Reguid generates a new pool GUID.
func (p *Manager) Reguid(ctx context.Context, name string) command.Result {
	return p.exec(ctx, "reguided", command.Spec{Subcommand: "reguid", Targets: []string{name}})
}

// Reopen reopens every vdev of the pool.
func (p *Manager) Reopen(ctx context.Context, name string) command.Result {
	return p.exec(ctx, "reopened", command.Spec{Subcommand: "reopen", Targets: []string{name}})
}

// Upgrade enables supported features on name, or on every pool when name
// is empty. A zero version means the newest.
func (p *Manager) Upgrade(ctx context.Context, name string, version int) command.Result {
	spec := command.Spec{Subcommand: "upgrade", Targets: []string{name}}
	if version > 0 {
		spec.Options = map[string][]any{"-V": {version}}
	}
	if name == "" {
		spec.Flags = []string{"-a"}
	}
	return p.exec(ctx, "upgraded", spec)
}

// History returns the logged commands of name, or of every pool.
func (p *Manager) History(ctx context.Context, name string, internal, verbose bool) ([]HistoryEntry, error) {
	var flags []string
	if verbose {
		flags = append(flags, "-l")
	}
	if internal {
		flags = append(flags, "-i")
	}
	out, err := p.query(ctx, command.Spec{Subcommand: "history", Flags: flags, Targets: []string{name}})
	if err != nil {
		return nil, err
	}
	return parseHistory(out), nil
}

func flagIf(cond bool, flag string) []string {
	if cond {
		return []string{flag}
	}
	return nil
}
