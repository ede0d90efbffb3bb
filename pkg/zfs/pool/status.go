// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"strings"

	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

// parseStatus splits `zpool status` output into pools. Lines are
// "key: value" except inside the tab-indented config table, whose device
// names may themselves contain colons.
func parseStatus(text string, catalog *property.Catalog) []*Status {
	var (
		pools   []*Status
		current *Status
		key     string
		config  []string
	)
	flush := func() {
		if current != nil && len(config) > 0 {
			current.Config = parseConfig(config, catalog)
		}
		config = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] != '\t' && strings.Contains(line, ":") {
			k, v, _ := strings.Cut(line, ":")
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "pool" {
				if current == nil || current.Name != v {
					flush()
					current = &Status{Name: v, Fields: map[string]string{}}
					pools = append(pools, current)
				}
				key = k
				continue
			}
			if current == nil {
				continue
			}
			key = k
			if k != "config" {
				current.Fields[k] = v
			}
			continue
		}

		if current == nil {
			continue
		}
		if key == "config" {
			config = append(config, line)
			continue
		}
		current.Fields[key] += "\n" + strings.TrimSpace(line)
	}
	flush()
	return pools
}

// parseConfig turns the vdev table into a tree. Rows are indented by one
// tab and then two spaces per level.
func parseConfig(lines []string, catalog *property.Catalog) []*VDev {
	var (
		header []string
		roots  []*VDev
		stack  []*VDev
	)
	for _, line := range lines {
		if header == nil {
			header = strings.Fields(strings.ToLower(line))
			continue
		}
		row := strings.TrimPrefix(line, "\t")
		fields := strings.Fields(row)
		if len(fields) == 0 {
			continue
		}
		depth := indent(row) / 2

		v := &VDev{Name: fields[0], Stats: map[string]any{}}
		for i := 1; i < len(fields) && i < len(header); i++ {
			v.Stats[header[i]] = catalog.DecodeAuto(property.ScopePool, header[i], fields[i])
		}
		if len(fields) > len(header) {
			v.Note = strings.Join(fields[len(header):], " ")
		}

		if depth > len(stack) {
			depth = len(stack)
		}
		stack = stack[:depth]
		if depth == 0 {
			roots = append(roots, v)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, v)
		}
		stack = append(stack, v)
	}
	return roots
}

func indent(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// iostatHeader replaces the two-line iostat header.
var iostatHeader = []string{
	"capacity-alloc",
	"capacity-free",
	"operations-read",
	"operations-write",
	"bandwidth-read",
	"bandwidth-write",
}

// parseIOStat keeps the last report of `zpool iostat -v`. Each report is
// closed by a dashed separator line.
func parseIOStat(text string, catalog *property.Catalog, parsable bool) []*VDev {
	var (
		last    []*VDev
		current []*VDev
		stack   []*VDev
	)
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if tail := fields[len(fields)-1]; tail == "write" || tail == "bandwidth" {
			continue
		}
		if strings.HasPrefix(line, "-") && strings.HasSuffix(line, "-") {
			if len(current) > 0 {
				last = current
			}
			current, stack = nil, nil
			continue
		}

		v := &VDev{Name: fields[0], Stats: map[string]any{}}
		for i, col := range iostatHeader {
			if i+1 >= len(fields) {
				break
			}
			decoded := catalog.DecodeAuto(property.ScopePool, col, fields[i+1])
			if parsable {
				v.Stats[col] = decoded
			} else {
				v.Stats[col] = catalog.EncodeAuto(property.ScopePool, col, decoded, true)
			}
		}

		depth := indent(line) / 2
		if depth > len(stack) {
			depth = len(stack)
		}
		stack = stack[:depth]
		if depth == 0 {
			current = append(current, v)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, v)
		}
		stack = append(stack, v)
	}
	if len(current) > 0 {
		last = current
	}
	return last
}

// parseList zips tab separated `zpool list -H` rows with props, whose
// first entry is always name.
func parseList(text string, props []string, catalog *property.Catalog, parsable bool) *command.Listing {
	l := command.NewListing()
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(strings.TrimSpace(line), "\t")
		name := cols[0]
		for i := 1; i < len(cols) && i < len(props); i++ {
			decoded := catalog.DecodeAuto(property.ScopePool, props[i], cols[i])
			var value any = decoded
			if !parsable {
				value = catalog.EncodeAuto(property.ScopePool, props[i], decoded, true)
			}
			l.Set(name, props[i], command.Entry{Value: value})
		}
	}
	return l
}

const historyPrefix = "History for '"

// parseHistory reads "History for 'pool':" sections followed by
// "<timestamp> <command>" lines.
func parseHistory(text string) []HistoryEntry {
	var entries []HistoryEntry
	pool := "unknown"
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, historyPrefix) {
			pool = strings.TrimSuffix(strings.TrimPrefix(line, historyPrefix), "':")
			continue
		}
		if strings.TrimSpace(line) == "" || len(line) < 20 {
			continue
		}
		entries = append(entries, HistoryEntry{
			Pool:      pool,
			Timestamp: line[:19],
			Command:   line[20:],
		})
	}
	return entries
}
