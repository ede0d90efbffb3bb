// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Diff is the set of changes that converges observed properties to the
// desired ones. Values are decoded.
type Diff struct {
	Added   map[string]any `json:"added,omitempty"`
	Updated map[string]any `json:"updated,omitempty"`
	// Removed holds the observed value of properties that go back to
	// their inherited value. Only a null desired value lands here.
	Removed map[string]any `json:"removed,omitempty"`
	// Skipped lists desired properties that were unknown or read-only.
	Skipped []string `json:"skipped,omitempty"`
}

// Empty reports whether nothing needs to change.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Sets returns every property that needs a `set`, in sorted order.
func (d Diff) Sets() []string {
	names := append(maps.Keys(d.Added), maps.Keys(d.Updated)...)
	slices.Sort(names)
	return names
}

// Value returns the desired value of a property from Added or Updated.
func (d Diff) Value(name string) any {
	if v, ok := d.Updated[name]; ok {
		return v
	}
	return d.Added[name]
}

// Changes flattens the diff into the report form: the new value of every
// set property and nil for every inherited one.
func (d Diff) Changes() map[string]any {
	out := make(map[string]any, len(d.Added)+len(d.Updated)+len(d.Removed))
	maps.Copy(out, d.Added)
	maps.Copy(out, d.Updated)
	for name := range d.Removed {
		out[name] = nil
	}
	return out
}

// ComputeDiff compares desired against observed for one entity. Inputs
// are not modified. Values compare by their machine encoding so "10G",
// 10737418240 and int 10737418240 are all equal.
func ComputeDiff(
	catalog *property.Catalog,
	scope property.Scope,
	observed, desired map[string]any,
	l logger.Logger,
) Diff {
	d := Diff{
		Added:   map[string]any{},
		Updated: map[string]any{},
		Removed: map[string]any{},
	}

	for _, name := range sortedKeys(desired) {
		desc, ok := catalog.Lookup(scope, name)
		if !ok {
			l.Warn("unknown property ignored", "property", name, "scope", scope)
			d.Skipped = append(d.Skipped, name)
			continue
		}
		if !desc.Editable {
			l.Warn("read-only property ignored", "property", name, "scope", scope)
			d.Skipped = append(d.Skipped, name)
			continue
		}

		raw := desired[name]
		cur, present := observed[name]
		if present {
			cur = catalog.DecodeAuto(scope, name, cur)
		}

		// Only an explicit null inherits. The literal "none" is a value
		// that is set like any other.
		if raw == nil && scope != property.ScopePool {
			if present && cur != nil && desc.CanInherit() {
				d.Removed[name] = cur
			} else if present && cur != nil {
				d.Updated[name] = nil
			}
			continue
		}

		want := catalog.DecodeAuto(scope, name, raw)
		if want == nil && raw != nil {
			want = "none"
		}
		switch {
		case !present:
			d.Added[name] = want
		case catalog.EncodeAuto(scope, name, cur, false) != catalog.EncodeAuto(scope, name, want, false):
			d.Updated[name] = want
		}
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
