// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package property

import (
	"strings"

	"github.com/stratastor/zstate/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	poolAliases = map[string]string{
		"allocated":     "alloc",
		"autoexpand":    "expand",
		"autoreplace":   "replace",
		"listsnapshots": "listsnaps",
		"fragmentation": "frag",
	}

	datasetAliases = map[string]string{
		"available":         "avail",
		"logicalreferenced": "lrefer.",
		"logicalused":       "lused.",
		"readonly":          "rdonly",
		"recordsize":        "recsize",
		"refreservation":    "refreserv",
		"referenced":        "refer",
		"reservation":       "reserv",
		"volblocksize":      "volblock",
		"compression":       "compress",
	}

	// Columns reported by zpool status/iostat that never show up in the
	// get listing.
	poolSizeExtras = []string{
		"capacity-alloc", "capacity-free",
		"operations-read", "operations-write",
		"bandwidth-read", "bandwidth-write",
		"read", "write",
	}
	poolNumericExtras = []string{"cksum", "cap"}

	boolByName    = map[string]bool{"sharenfs": true, "sharesmb": true, "canmount": true}
	numericByName = map[string]bool{"version": true, "copies": true}
)

// ParseHelp parses a self-description listing into descriptors keyed by
// name. Aliases and the status/iostat extras for the scope are included.
func ParseHelp(scope Scope, text string) (map[string]Descriptor, error) {
	fold := cases.Lower(language.Und)

	props := make(map[string]Descriptor)
	var header []string

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(fold.String(line))
		switch {
		case len(fields) == 0:
			continue
		case fields[0] == "property":
			header = fields
			continue
		case header == nil || len(fields) < 2:
			continue
		case fields[1] != "yes" && fields[1] != "no":
			continue
		}

		d, ok := descriptorFromRow(scope, header, fields)
		if !ok {
			continue
		}
		props[d.Name] = d

		if alias, ok := aliasesFor(scope)[d.Name]; ok {
			props[alias] = d
		}
	}

	if header == nil {
		return nil, errors.New(errors.PropertyCatalogParse, "no PROPERTY header in listing").
			WithMetadata("scope", string(scope))
	}

	if scope == ScopePool {
		for _, name := range poolSizeExtras {
			props[name] = Descriptor{Name: name, Scope: scope, Type: TypeSize, Values: "<size>"}
		}
		for _, name := range poolNumericExtras {
			props[name] = Descriptor{Name: name, Scope: scope, Type: TypeNumeric, Values: "<count>"}
		}
	}

	return props, nil
}

func aliasesFor(scope Scope) map[string]string {
	if scope == ScopePool {
		return poolAliases
	}
	return datasetAliases
}

// descriptorFromRow zips a row with the header; everything past the last
// header column belongs to VALUES.
func descriptorFromRow(scope Scope, header, fields []string) (Descriptor, bool) {
	cols := mergeLast(fields, len(header))
	row := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(cols) {
			row[h] = cols[i]
		}
	}

	name := NormalizeName(row["property"])
	if name == "" {
		return Descriptor{}, false
	}

	d := Descriptor{
		Name:     name,
		Scope:    scope,
		Editable: row["edit"] == "yes",
		Values:   row["values"],
	}
	if v, ok := row["inherit"]; ok {
		inherit := v == "yes"
		d.Inheritable = &inherit
	}
	d.Type = detectType(d.Name, d.Values)
	return d, true
}

func mergeLast(fields []string, n int) []string {
	if n <= 0 || len(fields) <= n {
		return fields
	}
	merged := make([]string, 0, n)
	merged = append(merged, fields[:n-1]...)
	return append(merged, strings.Join(fields[n-1:], " "))
}

func detectType(name, values string) Type {
	switch {
	case strings.HasPrefix(values, "on | off"):
		return TypeBool
	case strings.HasPrefix(values, "yes | no"):
		return TypeBoolAlt
	case values == "<size>" || values == "<size> | none":
		return TypeSize
	case values == "<count>" || values == "<count> | none" || values == "<guid>":
		return TypeNumeric
	case boolByName[name]:
		return TypeBool
	case numericByName[name]:
		return TypeNumeric
	}
	return TypeStr
}
