// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package property

import (
	"context"

	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Catalog holds the pool and dataset descriptors discovered from the tool.
// It is built once and read-only afterwards; pass it to whatever needs
// type information instead of reaching for a package level cache.
type Catalog struct {
	pool    map[string]Descriptor
	dataset map[string]Descriptor
}

// NewCatalog builds a catalog from already-parsed descriptor maps. Nil maps
// are allowed and behave as empty scopes.
func NewCatalog(pool, dataset map[string]Descriptor) *Catalog {
	if pool == nil {
		pool = map[string]Descriptor{}
	}
	if dataset == nil {
		dataset = map[string]Descriptor{}
	}
	return &Catalog{pool: pool, dataset: dataset}
}

// EmptyCatalog resolves every property as Str.
func EmptyCatalog() *Catalog {
	return NewCatalog(nil, nil)
}

// FromHelp parses pool and dataset listings captured elsewhere.
func FromHelp(poolHelp, datasetHelp string) (*Catalog, error) {
	pool, err := ParseHelp(ScopePool, poolHelp)
	if err != nil {
		return nil, err
	}
	dataset, err := ParseHelp(ScopeDataset, datasetHelp)
	if err != nil {
		return nil, err
	}
	return NewCatalog(pool, dataset), nil
}

// Load asks src for both listings. A scope whose listing cannot be read or
// parsed stays empty; the returned catalog is always usable and the error
// is only informational.
func Load(ctx context.Context, src Describer, l logger.Logger) (*Catalog, error) {
	c := EmptyCatalog()
	var firstErr error

	for _, scope := range []Scope{ScopePool, ScopeDataset} {
		text, err := src.Describe(ctx, scope)
		if err != nil {
			if l != nil {
				l.Warn("property listing unavailable", "scope", scope, "err", err)
			}
			if firstErr == nil {
				firstErr = errors.Wrap(err, errors.PropertyCatalogLoad).
					WithMetadata("scope", string(scope))
			}
			continue
		}

		props, err := ParseHelp(scope, text)
		if err != nil {
			if l != nil {
				l.Warn("property listing unparsable", "scope", scope, "err", err)
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if scope == ScopePool {
			c.pool = props
		} else {
			c.dataset = props
		}
		if l != nil {
			l.Debug("property catalog loaded", "scope", scope, "count", len(props))
		}
	}

	return c, firstErr
}

// Properties returns a copy of the descriptors for scope. ScopeAuto merges
// both, dataset entries winning.
func (c *Catalog) Properties(scope Scope) map[string]Descriptor {
	out := make(map[string]Descriptor)
	switch scope {
	case ScopePool:
		maps.Copy(out, c.pool)
	case ScopeDataset:
		maps.Copy(out, c.dataset)
	default:
		maps.Copy(out, c.pool)
		maps.Copy(out, c.dataset)
	}
	return out
}

// Names returns the sorted property names of scope.
func (c *Catalog) Names(scope Scope) []string {
	names := maps.Keys(c.Properties(scope))
	slices.Sort(names)
	return names
}

// Empty reports whether nothing was discovered for either scope.
func (c *Catalog) Empty() bool {
	return len(c.pool) == 0 && len(c.dataset) == 0
}

// Lookup resolves name within scope. Wildcard families are matched by their
// prefix. User properties resolve to an editable, inheritable Str outside
// the pool scope.
func (c *Catalog) Lookup(scope Scope, name string) (Descriptor, bool) {
	key := NormalizeName(name)

	switch scope {
	case ScopePool:
		d, ok := c.pool[key]
		return d, ok
	case ScopeDataset:
		if d, ok := c.dataset[key]; ok {
			return d, true
		}
	default:
		if d, ok := c.dataset[key]; ok {
			return d, true
		}
		if d, ok := c.pool[key]; ok {
			return d, true
		}
	}

	if IsUserProperty(name) {
		inherit := true
		return Descriptor{
			Name:        name,
			Scope:       ScopeDataset,
			Editable:    true,
			Inheritable: &inherit,
			Type:        TypeStr,
		}, true
	}
	return Descriptor{}, false
}

// TypeOf returns the type of name in scope, Str when unknown.
func (c *Catalog) TypeOf(scope Scope, name string) Type {
	if d, ok := c.Lookup(scope, name); ok {
		return d.Type
	}
	return TypeStr
}

// DecodeAuto decodes value using the type registered for name.
func (c *Catalog) DecodeAuto(scope Scope, name string, value any) any {
	return Decode(c.TypeOf(scope, name), value)
}

// EncodeAuto encodes value using the type registered for name.
func (c *Catalog) EncodeAuto(scope Scope, name string, value any, humanize bool) string {
	return Encode(c.TypeOf(scope, name), value, humanize)
}

// DecodeAutoMap decodes every entry of props.
func (c *Catalog) DecodeAutoMap(scope Scope, props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for name, value := range props {
		out[name] = c.DecodeAuto(scope, name, value)
	}
	return out
}

// EncodeAutoMap encodes every entry of props.
func (c *Catalog) EncodeAutoMap(scope Scope, props map[string]any, humanize bool) map[string]string {
	out := make(map[string]string, len(props))
	for name, value := range props {
		out[name] = c.EncodeAuto(scope, name, value, humanize)
	}
	return out
}
