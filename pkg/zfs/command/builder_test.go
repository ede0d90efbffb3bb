// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command_test

import (
	"testing"

	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"github.com/stratastor/zstate/pkg/zfs/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBuildGolden(t *testing.T) {
	b := command.NewBuilder(testutil.Catalog(t), command.Binaries{ZFS: "/sbin/zfs", Zpool: "/sbin/zpool"})

	tests := []struct {
		name string
		spec command.Spec
		want string
	}{
		{
			name: "set_recursive",
			spec: command.Spec{
				Scope:          property.ScopeDataset,
				Subcommand:     "set",
				Flags:          []string{"-r"},
				PropertyNames:  []string{"quota"},
				PropertyValues: []any{"5G"},
				Targets:        []string{"mypool"},
			},
			want: "/sbin/zfs set -r quota=5368709120 mypool",
		},
		{
			name: "set_multiple",
			spec: command.Spec{
				Scope:          property.ScopeDataset,
				Subcommand:     "set",
				PropertyNames:  []string{"quota", "readonly"},
				PropertyValues: []any{"5G", "no"},
				Targets:        []string{"mypool"},
			},
			want: "/sbin/zfs set quota=5368709120 readonly=off mypool",
		},
		{
			name: "create_with_parents",
			spec: command.Spec{
				Scope:      property.ScopeDataset,
				Subcommand: "create",
				Flags:      []string{"-p"},
				FilesystemProperties: map[string]any{
					"quota":       "1G",
					"compression": "lz4",
				},
				Targets: []string{"mypool/dataset"},
			},
			want: "/sbin/zfs create -p -o compression=lz4 -o quota=1073741824 mypool/dataset",
		},
		{
			name: "create_quoted_target",
			spec: command.Spec{
				Scope:      property.ScopeDataset,
				Subcommand: "create",
				FilesystemProperties: map[string]any{
					"quota":       "4.20M",
					"compression": "lz4",
				},
				Targets: []string{"my pool/jorge's dataset"},
			},
			want: `/sbin/zfs create -o compression=lz4 -o quota=4404019 "my pool/jorge's dataset"`,
		},
		{
			name: "import_dirs",
			spec: command.Spec{
				Scope:      property.ScopePool,
				Subcommand: "import",
				Options:    map[string][]any{"-d": {"/tmp", "/zvol"}},
				Targets:    []string{"mypool"},
			},
			want: "/sbin/zpool import -d /tmp -d /zvol mypool",
		},
		{
			name: "pool_create_quoted",
			spec: command.Spec{
				Scope:                property.ScopePool,
				Subcommand:           "create",
				FilesystemProperties: map[string]any{"quota": "100G"},
				PoolProperties:       map[string]any{"comment": "jorge's comment has a space"},
				Targets:              []string{"my pool"},
			},
			want: `/sbin/zpool create -O quota=107374182400 -o comment="jorge's comment has a space" "my pool"`,
		},
		{
			name: "iostat",
			spec: command.Spec{
				Scope:      property.ScopePool,
				Subcommand: "iostat",
				Flags:      []string{"-v"},
				Targets:    []string{"mypool", "60", "1"},
			},
			want: "/sbin/zpool iostat -v mypool 60 1",
		},
		{
			name: "list_snapshots",
			spec: command.Spec{
				Scope:      property.ScopeDataset,
				Subcommand: "list",
				Flags:      []string{"-r"},
				Options:    map[string][]any{"-t": {"snap"}},
				Targets:    []string{"my pool"},
			},
			want: `/sbin/zfs list -r -t snap "my pool"`,
		},
		{
			name: "skip_empty_targets",
			spec: command.Spec{
				Scope:      property.ScopeDataset,
				Subcommand: "list",
				Targets:    []string{"", "mypool", ""},
			},
			want: "/sbin/zfs list mypool",
		},
		{
			name: "bare_property_names",
			spec: command.Spec{
				Scope:         property.ScopePool,
				Subcommand:    "get",
				Flags:         []string{"-H"},
				Options:       map[string][]any{"-o": {"name,property,value,source"}},
				PropertyNames: []string{"all"},
				Targets:       []string{"mypool"},
			},
			want: "/sbin/zpool get -H -o name,property,value,source all mypool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := b.Build(tt.spec)
			assert.Equal(t, tt.want, cmd.String())
			// Deterministic output for equal specs.
			assert.Equal(t, cmd.String(), b.Build(tt.spec).String())
		})
	}
}

func TestBuildArgvIsUnquoted(t *testing.T) {
	b := command.NewBuilder(testutil.Catalog(t), command.Binaries{ZFS: "/sbin/zfs", Zpool: "/sbin/zpool"})
	cmd := b.Build(command.Spec{
		Scope:                property.ScopePool,
		Subcommand:           "create",
		FilesystemProperties: map[string]any{"quota": "100G"},
		PoolProperties:       map[string]any{"comment": `say "hi" there`},
		Targets:              []string{"my pool", "mirror", "/dev/sda", "/dev/sdb"},
	})

	assert.Equal(t, []string{
		"/sbin/zpool", "create",
		"-O", "quota=107374182400",
		"-o", `comment=say "hi" there`,
		"my pool", "mirror", "/dev/sda", "/dev/sdb",
	}, cmd.Argv())
	assert.Equal(t, `zpool create -O quota=107374182400 -o comment="say \"hi\" there" "my pool" mirror /dev/sda /dev/sdb`, cmd.Line())
	assert.Equal(t, "zpool create", cmd.Key())
	assert.True(t, cmd.Mutating())
	assert.Equal(t, `/sbin/zpool create -O quota=107374182400 -o 'comment=say "hi" there' 'my pool' mirror /dev/sda /dev/sdb`, cmd.Shell())
}

func TestBuildWithoutCatalog(t *testing.T) {
	b := command.NewBuilder(nil, command.Binaries{})
	cmd := b.Build(command.Spec{
		Scope:          property.ScopeDataset,
		Subcommand:     "set",
		PropertyNames:  []string{"quota"},
		PropertyValues: []any{"5G"},
		Targets:        []string{"tank"},
	})
	assert.Equal(t, command.BinZFS+" set quota=5G tank", cmd.String())
	assert.False(t, b.Build(command.Spec{Scope: property.ScopePool, Subcommand: "list"}).Mutating())
}
