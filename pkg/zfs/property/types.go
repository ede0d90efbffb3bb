// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package property

import (
	"context"
	"fmt"
	"strings"

	"github.com/stratastor/zstate/pkg/errors"
)

// Scope selects the property namespace.
type Scope string

const (
	ScopePool    Scope = "pool"
	ScopeDataset Scope = "dataset"
	// ScopeAuto overlays dataset descriptors on top of pool descriptors.
	ScopeAuto Scope = "auto"
)

// ParseScope accepts the short names used on the command line and in URLs.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "pool", "zpool":
		return ScopePool, nil
	case "dataset", "zfs", "filesystem", "volume":
		return ScopeDataset, nil
	case "auto", "":
		return ScopeAuto, nil
	}
	return "", errors.New(errors.PropertyInvalidScope, s)
}

// Type is the semantic value type of a property.
type Type string

const (
	TypeBool    Type = "bool"
	TypeBoolAlt Type = "bool_alt"
	TypeSize    Type = "size"
	TypeNumeric Type = "numeric"
	TypeStr     Type = "str"
)

// Descriptor describes one property as reported by the tool itself.
type Descriptor struct {
	Name     string `json:"name"`
	Scope    Scope  `json:"scope"`
	Editable bool   `json:"edit"`
	// Inheritable is nil for pool properties; the pool listing has no
	// INHERIT column.
	Inheritable *bool  `json:"inherit,omitempty"`
	Type        Type   `json:"type"`
	Values      string `json:"values"`
}

// CanInherit reports whether `zfs inherit` applies to the property.
func (d Descriptor) CanInherit() bool {
	return d.Inheritable != nil && *d.Inheritable
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s, edit=%t)", d.Name, d.Type, d.Editable)
}

// Describer produces the raw self-description listing for a scope, the
// usage text printed by `zfs get` / `zpool get` when called without
// arguments.
type Describer interface {
	Describe(ctx context.Context, scope Scope) (string, error)
}

// NormalizeName maps wildcard property families onto their descriptor key:
// "feature@async_destroy" becomes "feature@", "written@snap" becomes "written@".
func NormalizeName(name string) string {
	if i := strings.Index(name, "@"); i >= 0 {
		return name[:i+1]
	}
	return name
}

// IsUserProperty reports whether name is a user defined "module:property".
func IsUserProperty(name string) bool {
	return strings.Contains(name, ":")
}
