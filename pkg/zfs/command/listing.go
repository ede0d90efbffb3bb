// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

// DefaultListingFields is the column order requested with -o.
var DefaultListingFields = []string{"name", "property", "value", "source"}

// Entry is one property of one entity in a get listing.
type Entry struct {
	Value  any               `json:"value"`
	Source string            `json:"source,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// Listing keeps entities and their properties in output order.
type Listing struct {
	entities *orderedmap.OrderedMap
}

// ListingOptions controls how values are decoded.
type ListingOptions struct {
	Scope  property.Scope
	Fields []string
	// Raw keeps the tool's text untouched.
	Raw bool
	// Humanize re-encodes decoded values for display.
	Humanize bool
}

func NewListing() *Listing {
	return &Listing{entities: orderedmap.New()}
}

// ParseListing parses tab-delimited get output. Tab is the only delimiter,
// so values containing spaces survive.
func ParseListing(text string, catalog *property.Catalog, opts ListingOptions) (*Listing, error) {
	if catalog == nil {
		catalog = property.EmptyCatalog()
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultListingFields
	}

	l := NewListing()
	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 3 {
			return nil, errors.New(errors.ZFSListingParse, "expected at least 3 tab separated columns").
				WithMetadata("line", strconv.Itoa(n+1)).
				WithMetadata("text", line)
		}

		row := make(map[string]string, len(fields))
		for i, f := range fields {
			if i < len(cols) {
				row[f] = cols[i]
			}
		}

		name, prop := row["name"], row["property"]
		entry := Entry{Value: row["value"]}
		if src := row["source"]; src != "" && src != "-" {
			entry.Source = src
		}
		for _, f := range fields {
			switch f {
			case "name", "property", "value", "source":
			default:
				if entry.Extra == nil {
					entry.Extra = make(map[string]string)
				}
				entry.Extra[f] = row[f]
			}
		}

		if !opts.Raw {
			decoded := catalog.DecodeAuto(opts.Scope, prop, row["value"])
			if opts.Humanize {
				entry.Value = catalog.EncodeAuto(opts.Scope, prop, decoded, true)
			} else {
				entry.Value = decoded
			}
		}

		l.Set(name, prop, entry)
	}
	return l, nil
}

// Set records e under name, keeping first-seen order for both levels.
func (l *Listing) Set(name, prop string, e Entry) {
	v, ok := l.entities.Get(name)
	if !ok {
		v = orderedmap.New()
		l.entities.Set(name, v)
	}
	v.(*orderedmap.OrderedMap).Set(prop, e)
}

// Names returns entity names in output order.
func (l *Listing) Names() []string {
	return l.entities.Keys()
}

// Len returns the number of entities.
func (l *Listing) Len() int {
	return len(l.entities.Keys())
}

// Properties returns the property names of entity in output order.
func (l *Listing) Properties(name string) []string {
	v, ok := l.entities.Get(name)
	if !ok {
		return nil
	}
	return v.(*orderedmap.OrderedMap).Keys()
}

// Get returns one entry.
func (l *Listing) Get(name, prop string) (Entry, bool) {
	v, ok := l.entities.Get(name)
	if !ok {
		return Entry{}, false
	}
	e, ok := v.(*orderedmap.OrderedMap).Get(prop)
	if !ok {
		return Entry{}, false
	}
	return e.(Entry), true
}

// Values flattens entity into property -> value.
func (l *Listing) Values(name string) map[string]any {
	out := make(map[string]any)
	for _, prop := range l.Properties(name) {
		e, _ := l.Get(name, prop)
		out[prop] = e.Value
	}
	return out
}

func (l *Listing) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.entities)
}
