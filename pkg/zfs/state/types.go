// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/creasty/defaults"
	"github.com/stratastor/zstate/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Ensure string

const (
	EnsurePresent  Ensure = "present"
	EnsureAbsent   Ensure = "absent"
	EnsurePromoted Ensure = "promoted"
)

// Dataset kinds as the declarative document names them.
const (
	KindFilesystem = "filesystem"
	KindVolume     = "volume"
	KindSnapshot   = "snapshot"
	KindBookmark   = "bookmark"
)

// Report is the outcome of converging one entity.
type Report struct {
	Name    string         `json:"name" yaml:"name"`
	State   string         `json:"state" yaml:"state"`
	Result  bool           `json:"result" yaml:"result"`
	Changes map[string]any `json:"changes" yaml:"changes"`
	Comment string         `json:"comment" yaml:"comment"`
	Kind    errors.Kind    `json:"kind,omitempty" yaml:"kind,omitempty"`
	RunID   string         `json:"run_id" yaml:"run_id"`
}

// DefaultDeviceDir is where relative layout devices live when neither the
// pool nor the engine says otherwise.
const DefaultDeviceDir = "/dev"

// PoolConfig controls how a missing pool is brought into existence.
type PoolConfig struct {
	// Import tries `zpool import` when the pool is missing and no layout
	// is given.
	Import bool `yaml:"import" json:"import" default:"true"`
	Force  bool `yaml:"force" json:"force"`
	// DeviceDir is joined to relative layout device paths. Empty means
	// the engine's default.
	DeviceDir  string   `yaml:"device_dir,omitempty" json:"device_dir,omitempty"`
	ImportDirs []string `yaml:"import_dirs,omitempty" json:"import_dirs,omitempty" validate:"omitempty,dive,required"`
}

// PoolState is the desired state of one pool.
type PoolState struct {
	Name                 string         `yaml:"name" json:"name" validate:"required"`
	Ensure               Ensure         `yaml:"ensure" json:"ensure" default:"present" validate:"oneof=present absent"`
	Properties           map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	FilesystemProperties map[string]any `yaml:"filesystem_properties,omitempty" json:"filesystem_properties,omitempty"`
	Layout               any            `yaml:"layout,omitempty" json:"layout,omitempty"`
	Config               PoolConfig     `yaml:"config" json:"config"`
	// Export exports instead of destroying when the pool must be absent.
	Export bool `yaml:"export" json:"export"`
	// Scrub is a cron expression for a recurring scrub.
	Scrub string `yaml:"scrub,omitempty" json:"scrub,omitempty" validate:"omitempty,cron"`
}

func (p *PoolState) UnmarshalYAML(value *yaml.Node) error {
	if err := defaults.Set(p); err != nil {
		return err
	}
	type plain PoolState
	return value.Decode((*plain)(p))
}

// DatasetState is the desired state of one filesystem, volume, snapshot
// or bookmark.
type DatasetState struct {
	Name       string         `yaml:"name" json:"name" validate:"required"`
	Kind       string         `yaml:"kind" json:"kind" default:"filesystem" validate:"oneof=filesystem volume snapshot bookmark"`
	Ensure     Ensure         `yaml:"ensure" json:"ensure" default:"present" validate:"oneof=present absent promoted"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	// VolumeSize is required for volumes, e.g. "10G".
	VolumeSize   any    `yaml:"volume_size,omitempty" json:"volume_size,omitempty" validate:"required_if=Kind volume Ensure present"`
	Sparse       bool   `yaml:"sparse" json:"sparse"`
	CreateParent bool   `yaml:"create_parent" json:"create_parent"`
	ClonedFrom   string `yaml:"cloned_from,omitempty" json:"cloned_from,omitempty"`
	// Snapshot is the source of a bookmark.
	Snapshot  string `yaml:"snapshot,omitempty" json:"snapshot,omitempty" validate:"required_if=Kind bookmark Ensure present"`
	Recursive bool   `yaml:"recursive" json:"recursive"`
	Force     bool   `yaml:"force" json:"force"`
}

func (d *DatasetState) UnmarshalYAML(value *yaml.Node) error {
	if err := defaults.Set(d); err != nil {
		return err
	}
	type plain DatasetState
	return value.Decode((*plain)(d))
}
