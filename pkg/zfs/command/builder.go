// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Arg is one argv element. Raw is what the process receives; Text is the
// encoder's display form, which quotes values containing whitespace.
type Arg struct {
	Raw  string
	Text string
}

func plain(s string) Arg { return Arg{Raw: s, Text: s} }

// Command is a fully built invocation. It is never run through a shell;
// String exists for logs, tests and error reporting.
type Command struct {
	Scope      property.Scope
	Binary     string
	Subcommand string
	args       []Arg
}

// Argv returns binary, subcommand and arguments in exec form.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.args)+2)
	argv = append(argv, c.Binary, c.Subcommand)
	for _, a := range c.args {
		argv = append(argv, a.Raw)
	}
	return argv
}

// Args returns the arguments after the subcommand in exec form.
func (c Command) Args() []string {
	return c.Argv()[2:]
}

// String renders the text form, e.g.
// /sbin/zpool create -o comment="a b" mypool.
func (c Command) String() string {
	parts := make([]string, 0, len(c.args)+2)
	parts = append(parts, c.Binary, c.Subcommand)
	for _, a := range c.args {
		parts = append(parts, a.Text)
	}
	return strings.Join(parts, " ")
}

// Line is String with the binary reduced to its base name.
func (c Command) Line() string {
	return filepath.Base(c.Binary) + strings.TrimPrefix(c.String(), c.Binary)
}

// Shell renders argv so it can be pasted into a POSIX shell.
func (c Command) Shell() string {
	return shellquote.Join(c.Argv()...)
}

// Key identifies the command family and subcommand, e.g. "zpool create".
func (c Command) Key() string {
	return filepath.Base(c.Binary) + " " + c.Subcommand
}

// Mutating reports whether the command changes state.
func (c Command) Mutating() bool {
	return !ReadOnlySubcommands[c.Subcommand]
}

// Spec describes a command before encoding. Maps are emitted in sorted key
// order so equal specs always build byte-identical commands.
type Spec struct {
	Scope      property.Scope
	Subcommand string
	Flags      []string
	// Options maps an option flag to one or more values; each value is
	// emitted as "<flag> <value>".
	Options map[string][]any
	// FilesystemProperties become -O for zpool and -o for zfs.
	FilesystemProperties map[string]any
	PoolProperties       map[string]any
	// PropertyNames without PropertyValues are emitted bare (get);
	// with values they pair up as name=value (set).
	PropertyNames  []string
	PropertyValues []any
	// Empty targets are skipped.
	Targets []string
}

// Binaries holds the paths of the two tool binaries.
type Binaries struct {
	ZFS   string
	Zpool string
}

// DefaultBinaries returns the standard install locations.
func DefaultBinaries() Binaries {
	return Binaries{ZFS: BinZFS, Zpool: BinZpool}
}

// Builder turns Specs into Commands using the catalog for value types.
type Builder struct {
	catalog *property.Catalog
	bins    Binaries
}

func NewBuilder(catalog *property.Catalog, bins Binaries) *Builder {
	if catalog == nil {
		catalog = property.EmptyCatalog()
	}
	if bins.ZFS == "" {
		bins.ZFS = BinZFS
	}
	if bins.Zpool == "" {
		bins.Zpool = BinZpool
	}
	return &Builder{catalog: catalog, bins: bins}
}

// Catalog returns the catalog the builder encodes with.
func (b *Builder) Catalog() *property.Catalog {
	return b.catalog
}

// Binary returns the binary path for scope.
func (b *Builder) Binary(scope property.Scope) string {
	if scope == property.ScopePool {
		return b.bins.Zpool
	}
	return b.bins.ZFS
}

// Build assembles binary, subcommand, flags, options, filesystem properties,
// pool properties, property assignments and targets in that order.
func (b *Builder) Build(spec Spec) Command {
	scope := spec.Scope
	if scope != property.ScopePool {
		scope = property.ScopeDataset
	}

	cmd := Command{
		Scope:      scope,
		Binary:     b.Binary(scope),
		Subcommand: spec.Subcommand,
	}

	for _, f := range spec.Flags {
		cmd.args = append(cmd.args, plain(f))
	}

	for _, key := range sortedKeys(spec.Options) {
		for _, v := range spec.Options[key] {
			cmd.args = append(cmd.args, plain(key), b.encodeArg(property.ScopeDataset, key, v))
		}
	}

	fsFlag := "-o"
	if scope == property.ScopePool {
		fsFlag = "-O"
	}
	for _, key := range sortedKeys(spec.FilesystemProperties) {
		cmd.args = append(cmd.args, plain(fsFlag),
			b.assignment(property.ScopeDataset, key, spec.FilesystemProperties[key]))
	}

	for _, key := range sortedKeys(spec.PoolProperties) {
		cmd.args = append(cmd.args, plain("-o"),
			b.assignment(property.ScopePool, key, spec.PoolProperties[key]))
	}

	if len(spec.PropertyValues) > 0 {
		for i, name := range spec.PropertyNames {
			if i >= len(spec.PropertyValues) {
				break
			}
			cmd.args = append(cmd.args, b.assignment(scope, name, spec.PropertyValues[i]))
		}
	} else {
		for _, name := range spec.PropertyNames {
			cmd.args = append(cmd.args, plain(name))
		}
	}

	for _, t := range spec.Targets {
		if t == "" {
			continue
		}
		cmd.args = append(cmd.args, b.encodeArg(property.ScopeDataset, "", t))
	}

	return cmd
}

// assignment renders name=value in machine form.
func (b *Builder) assignment(scope property.Scope, name string, value any) Arg {
	a := b.encodeArg(scope, name, value)
	return Arg{Raw: name + "=" + a.Raw, Text: name + "=" + a.Text}
}

// encodeArg encodes value with the type registered for name; an empty
// name always encodes as Str.
func (b *Builder) encodeArg(scope property.Scope, name string, value any) Arg {
	typ := property.TypeStr
	if name != "" {
		typ = b.catalog.TypeOf(scope, name)
	}
	text := property.Encode(typ, value, false)
	if typ == property.TypeStr {
		return Arg{Raw: property.Unquote(text), Text: text}
	}
	return Arg{Raw: text, Text: text}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
