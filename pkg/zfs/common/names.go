/*
 * Copyright 2024 Raamsri Kumar <raam@tinkershack.in> and The StrataSTOR Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"strings"

	"github.com/stratastor/zstate/pkg/errors"
)

// Name rules follow zfs_namecheck.c from OpenZFS.

const (
	MaxDatasetNameLen = 256 // ZFS_MAX_DATASET_NAME_LEN
	MaxDatasetNesting = 50  // zfs_max_dataset_nesting default
)

// DatasetType is a bitmask so callers can accept several kinds at once.
type DatasetType uint8

const (
	TypeInvalid    DatasetType = 0
	TypeFilesystem DatasetType = 1 << iota
	TypeSnapshot
	TypeVolume
	TypePool
	TypeBookmark
)

const (
	TypeDatasetMask = TypeFilesystem | TypeVolume | TypeSnapshot
	TypeEntityMask  = TypeFilesystem | TypeVolume | TypeSnapshot | TypeBookmark
)

// ParseType maps the tool's type names onto DatasetType.
func ParseType(s string) DatasetType {
	switch strings.ToLower(s) {
	case "filesystem", "fs":
		return TypeFilesystem
	case "volume", "vol":
		return TypeVolume
	case "snapshot", "snap":
		return TypeSnapshot
	case "bookmark":
		return TypeBookmark
	case "pool", "zpool":
		return TypePool
	}
	return TypeInvalid
}

// String returns the name `zfs list -t` expects.
func (dt DatasetType) String() string {
	switch dt {
	case TypeFilesystem:
		return "filesystem"
	case TypeVolume:
		return "volume"
	case TypeSnapshot:
		return "snapshot"
	case TypeBookmark:
		return "bookmark"
	case TypePool:
		return "pool"
	case TypeInvalid:
		return "invalid"
	}
	return "dataset"
}

func (dt DatasetType) IsDataset() bool    { return dt&TypeDatasetMask != 0 }
func (dt DatasetType) IsSnapshot() bool   { return dt&TypeSnapshot != 0 }
func (dt DatasetType) IsFilesystem() bool { return dt&TypeFilesystem != 0 }
func (dt DatasetType) IsVolume() bool     { return dt&TypeVolume != 0 }
func (dt DatasetType) IsBookmark() bool   { return dt&TypeBookmark != 0 }

// Name is a dataset name split at its snapshot or bookmark delimiter.
type Name struct {
	Base     string
	Snapshot string
	Bookmark string
	Type     DatasetType
}

func (n Name) String() string {
	switch {
	case n.Snapshot != "":
		return n.Base + "@" + n.Snapshot
	case n.Bookmark != "":
		return n.Base + "#" + n.Bookmark
	}
	return n.Base
}

// Pool returns the first path component.
func (n Name) Pool() string {
	return PoolOf(n.Base)
}

// Parent returns the parent dataset of Base, or "" for a pool root.
func (n Name) Parent() string {
	if i := strings.LastIndexByte(n.Base, '/'); i > 0 {
		return n.Base[:i]
	}
	return ""
}

// ParseName validates name and infers its kind from the delimiter. Names
// without a delimiter are reported as filesystems; telling a volume apart
// needs the tool.
func ParseName(name string) (Name, error) {
	if err := EntityNameCheck(name); err != nil {
		return Name{}, err
	}
	if i := strings.IndexAny(name, "@#"); i >= 0 {
		n := Name{Base: name[:i]}
		if name[i] == '@' {
			n.Snapshot, n.Type = name[i+1:], TypeSnapshot
		} else {
			n.Bookmark, n.Type = name[i+1:], TypeBookmark
		}
		return n, nil
	}
	return Name{Base: name, Type: TypeFilesystem}, nil
}

// InferType is ParseName for callers that only need the kind.
func InferType(name string) DatasetType {
	n, err := ParseName(name)
	if err != nil {
		return TypeInvalid
	}
	return n.Type
}

// PoolOf returns the pool component of a dataset name.
func PoolOf(name string) string {
	if i := strings.IndexAny(name, "/@#"); i >= 0 {
		return name[:i]
	}
	return name
}

// Depth counts the slashes before any snapshot or bookmark delimiter.
func Depth(path string) int {
	depth := 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '/':
			depth++
		case '@', '#':
			return depth
		}
	}
	return depth
}

func validChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == ':' || c == ' '
}

func invalidName(name, reason string) error {
	return errors.New(errors.ZFSInvalidName, reason+": "+name).
		WithMetadata("name", name)
}

// EntityNameCheck validates any dataset, snapshot or bookmark name.
func EntityNameCheck(path string) error {
	switch {
	case len(path) == 0:
		return invalidName(path, "name empty")
	case len(path) >= MaxDatasetNameLen:
		return invalidName(path, "name too long")
	case path[0] == '/':
		return invalidName(path, "leading slash")
	case path[len(path)-1] == '/':
		return invalidName(path, "trailing slash")
	}

	foundDelim := false
	start := 0
	for start < len(path) {
		end := start
		for end < len(path) && path[end] != '/' && path[end] != '@' && path[end] != '#' {
			end++
		}
		if start == end {
			return invalidName(path, "empty component")
		}

		component := path[start:end]
		for _, c := range component {
			if !validChar(c) && c != '%' {
				return invalidName(path, "invalid character")
			}
		}
		if component == "." || component == ".." {
			return invalidName(path, "self or parent reference")
		}

		if end == len(path) {
			break
		}
		switch path[end] {
		case '@', '#':
			if foundDelim {
				return invalidName(path, "multiple delimiters")
			}
			foundDelim = true
			if end+1 >= len(path) {
				return invalidName(path, "empty component after delimiter")
			}
		case '/':
			if foundDelim {
				return invalidName(path, "slash after delimiter")
			}
		}
		start = end + 1
	}

	if Depth(path) >= MaxDatasetNesting {
		return invalidName(path, "nesting too deep")
	}
	return nil
}

// ValidateName checks path and that its kind is one of dtype.
func ValidateName(path string, dtype DatasetType) error {
	if dtype == TypePool {
		return PoolNameCheck(path)
	}
	n, err := ParseName(path)
	if err != nil {
		return err
	}
	kind := n.Type
	if kind == TypeFilesystem {
		kind = TypeFilesystem | TypeVolume
	}
	if kind&dtype == 0 {
		return invalidName(path, "not a "+dtype.String()+" name")
	}
	return nil
}

// PoolNameCheck validates pool names.
func PoolNameCheck(name string) error {
	// room for the internal $ORIGIN datasets
	if len(name) >= MaxDatasetNameLen-2-len("$ORIGIN")*2 {
		return invalidName(name, "name too long")
	}
	if len(name) == 0 || !((name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z')) {
		return invalidName(name, "name must begin with a letter")
	}
	for _, c := range name {
		if !validChar(c) {
			return invalidName(name, "invalid character")
		}
	}
	switch name {
	case "mirror", "raidz", "draid", "spare", "log":
		return invalidName(name, "reserved name")
	}
	for _, prefix := range []string{"mirror", "raidz", "draid", "spare"} {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) &&
			name[len(prefix)] >= '0' && name[len(prefix)] <= '9' {
			return invalidName(name, "reserved name")
		}
	}
	return nil
}

// MountpointNameCheck accepts absolute paths plus the special values.
func MountpointNameCheck(path string) error {
	switch path {
	case "none", "legacy":
		return nil
	}
	if path == "" || path[0] != '/' {
		return invalidName(path, "mountpoint must be absolute")
	}
	for _, component := range strings.Split(path[1:], "/") {
		if len(component) >= MaxDatasetNameLen {
			return invalidName(path, "component too long")
		}
	}
	return nil
}
