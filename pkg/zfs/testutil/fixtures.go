// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	_ "embed"
	"testing"

	"github.com/stratastor/zstate/pkg/zfs/property"
)

var (
	//go:embed testdata/zpool_help.txt
	ZpoolHelp string

	//go:embed testdata/zfs_help.txt
	ZFSHelp string
)

// Catalog parses the bundled help listings.
func Catalog(t testing.TB) *property.Catalog {
	t.Helper()
	c, err := property.FromHelp(ZpoolHelp, ZFSHelp)
	if err != nil {
		t.Fatalf("failed to parse bundled listings: %v", err)
	}
	return c
}
