// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package property

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestParseHelpPool(t *testing.T) {
	props, err := ParseHelp(ScopePool, readFixture(t, "zpool_help.txt"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		editable bool
		typ      Type
		values   string
	}{
		{"comment", true, TypeStr, "<comment-string>"},
		{"freeing", false, TypeSize, "<size>"},
		{"listsnapshots", true, TypeBool, "on | off"},
		{"listsnaps", true, TypeBool, "on | off"},
		{"version", true, TypeNumeric, "<version>"},
		{"guid", false, TypeNumeric, "<guid>"},
		{"alloc", false, TypeSize, "<size>"},
		{"expand", true, TypeBool, "on | off"},
		{"frag", false, TypeStr, "<percent>"},
		{"bootsize", true, TypeSize, "<size>"},
		{"cachefile", true, TypeStr, "<file> | none"},
		{"feature@", true, TypeStr, "disabled | enabled | active"},
		{"dedupratio", false, TypeStr, "<1.00x or higher if deduped>"},
		{"cap", false, TypeNumeric, "<count>"},
		{"capacity-alloc", false, TypeSize, "<size>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := props[tt.name]
			require.True(t, ok, "missing %s", tt.name)
			assert.Equal(t, tt.editable, d.Editable)
			assert.Equal(t, tt.typ, d.Type)
			assert.Equal(t, tt.values, d.Values)
			assert.Nil(t, d.Inheritable)
			assert.Equal(t, ScopePool, d.Scope)
		})
	}

	assert.Equal(t, "listsnapshots", props["listsnaps"].Name)
	_, hasFooter := props["the"]
	assert.False(t, hasFooter)
}

func TestParseHelpDataset(t *testing.T) {
	props, err := ParseHelp(ScopeDataset, readFixture(t, "zfs_help.txt"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		editable bool
		inherit  bool
		typ      Type
	}{
		{"available", false, false, TypeSize},
		{"avail", false, false, TypeSize},
		{"lrefer.", false, false, TypeSize},
		{"defer_destroy", false, false, TypeBoolAlt},
		{"canmount", true, false, TypeBool},
		{"sharenfs", true, true, TypeBool},
		{"copies", true, true, TypeNumeric},
		{"version", true, false, TypeNumeric},
		{"quota", true, false, TypeSize},
		{"filesystem_limit", true, false, TypeNumeric},
		{"compression", true, true, TypeBool},
		{"compress", true, true, TypeBool},
		{"recsize", true, true, TypeStr},
		{"rdonly", true, true, TypeBool},
		{"userquota@", true, false, TypeSize},
		{"written@", false, false, TypeSize},
		{"casesensitivity", false, true, TypeStr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := props[tt.name]
			require.True(t, ok, "missing %s", tt.name)
			assert.Equal(t, tt.editable, d.Editable)
			require.NotNil(t, d.Inheritable)
			assert.Equal(t, tt.inherit, *d.Inheritable)
			assert.Equal(t, tt.typ, d.Type)
		})
	}

	assert.Equal(t, "on | off | lzjb | gzip | gzip-[1-9] | zle | lz4", props["compression"].Values)
	assert.Equal(t, "filesystem | volume | snapshot | bookmark", props["type"].Values)
	_, hasRefratio := props["refratio"]
	assert.False(t, hasRefratio)
}

func TestParseHelpWithoutHeader(t *testing.T) {
	_, err := ParseHelp(ScopePool, "cannot open 'foo': no such pool\n")
	assert.Error(t, err)
}

func TestMergeLast(t *testing.T) {
	assert.Equal(t,
		[]string{"atime", "yes", "yes", "on | off"},
		mergeLast([]string{"atime", "yes", "yes", "on", "|", "off"}, 4))
	assert.Equal(t, []string{"a", "b"}, mergeLast([]string{"a", "b"}, 3))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "feature@", NormalizeName("feature@async_destroy"))
	assert.Equal(t, "userquota@", NormalizeName("userquota@matt"))
	assert.Equal(t, "quota", NormalizeName("quota"))
}
