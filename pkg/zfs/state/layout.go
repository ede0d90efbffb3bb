// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Allocation classes absorb every vdev that follows them on the command
// line, so in an unordered group map they are emitted after the data vdevs.
var vdevClasses = []string{"special", "dedup", "log", "cache", "spare"}

// vdevKeyword matches the grouping words zpool accepts, including the
// draid[parity][:Nd][:Nc][:Ns] forms.
var vdevKeyword = regexp.MustCompile(`^(mirror|raidz[1-3]?|draid[1-3]?(:\d+[dcs])*)$`)

func isKeyword(token string) bool {
	return vdevKeyword.MatchString(token) || slices.Contains(vdevClasses, token)
}

// ParseLayout turns a declarative layout into vdev specs. Accepted forms:
//
//	[/dev/sda, /dev/sdb]                  flat device list
//	[{mirror: [sda, sdb]}, {log: [sdc]}]  ordered single-key groups
//	{mirror-0: "sda sdb", log: "sdc"}     legacy group map
//
// A "-suffix" on a group key is dropped and relative device paths are
// joined to deviceDir.
func ParseLayout(layout any, deviceDir string) ([]pool.VDevSpec, error) {
	switch l := layout.(type) {
	case nil:
		return nil, nil
	case []string:
		return []pool.VDevSpec{{Type: "disk", Devices: resolveDevices(l, deviceDir)}}, nil
	case []any:
		var specs []pool.VDevSpec
		for i, item := range l {
			switch it := item.(type) {
			case string:
				devices, err := splitDevices(it)
				if err != nil {
					return nil, err
				}
				specs = append(specs, pool.VDevSpec{Type: "disk", Devices: resolveDevices(devices, deviceDir)})
			case map[string]any:
				for _, key := range orderedGroups(maps.Keys(it)) {
					spec, err := parseGroup(key, it[key], deviceDir)
					if err != nil {
						return nil, err
					}
					specs = append(specs, spec)
				}
			default:
				return nil, errors.New(errors.StateInvalidLayout,
					fmt.Sprintf("layout entry %d has unsupported type %T", i, item))
			}
		}
		return specs, nil
	case map[string]any:
		var specs []pool.VDevSpec
		for _, key := range orderedGroups(maps.Keys(l)) {
			spec, err := parseGroup(key, l[key], deviceDir)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	case map[string]string:
		generic := make(map[string]any, len(l))
		for k, v := range l {
			generic[k] = v
		}
		return ParseLayout(generic, deviceDir)
	}
	return nil, errors.New(errors.StateInvalidLayout, fmt.Sprintf("unsupported layout type %T", layout))
}

// orderedGroups sorts data vdev groups first and allocation classes last.
func orderedGroups(keys []string) []string {
	rank := func(key string) int {
		typ, _, _ := strings.Cut(key, "-")
		if i := slices.Index(vdevClasses, typ); i >= 0 {
			return i + 1
		}
		return 0
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return keys
}

func parseGroup(key string, value any, deviceDir string) (pool.VDevSpec, error) {
	typ, _, _ := strings.Cut(key, "-")
	spec := pool.VDevSpec{Type: typ}

	var devices []string
	switch v := value.(type) {
	case string:
		d, err := splitDevices(v)
		if err != nil {
			return spec, err
		}
		devices = d
	case []string:
		devices = v
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case string:
				d, err := splitDevices(it)
				if err != nil {
					return spec, err
				}
				devices = append(devices, d...)
			case map[string]any:
				for _, k := range orderedGroups(maps.Keys(it)) {
					child, err := parseGroup(k, it[k], deviceDir)
					if err != nil {
						return spec, err
					}
					spec.Children = append(spec.Children, child)
				}
			default:
				return spec, errors.New(errors.StateInvalidLayout,
					fmt.Sprintf("group %s has unsupported device %T", key, item))
			}
		}
	default:
		return spec, errors.New(errors.StateInvalidLayout,
			fmt.Sprintf("group %s has unsupported type %T", key, value))
	}

	spec.Devices = resolveDevices(devices, deviceDir)
	if len(spec.Devices) == 0 && len(spec.Children) == 0 {
		return spec, errors.New(errors.StateInvalidLayout, "group "+key+" has no devices")
	}
	return spec, nil
}

func splitDevices(s string) ([]string, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.StateInvalidLayout).WithMetadata("devices", s)
	}
	return words, nil
}

func resolveDevices(devices []string, deviceDir string) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		if deviceDir != "" && !filepath.IsAbs(d) && !isKeyword(d) {
			d = filepath.Join(deviceDir, d)
		}
		out = append(out, d)
	}
	return out
}
