package state

import (
	"testing"

	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout any
		want   []pool.VDevSpec
	}{
		{
			name:   "nil",
			layout: nil,
		},
		{
			name:   "flat list",
			layout: []string{"sda", "/tmp/file0"},
			want:   []pool.VDevSpec{{Type: "disk", Devices: []string{"/dev/sda", "/tmp/file0"}}},
		},
		{
			name: "ordered groups",
			layout: []any{
				map[string]any{"mirror-0": []any{"disk0", "disk1"}},
				map[string]any{"mirror-1": "disk2 disk3"},
				map[string]any{"log": []any{"disk4"}},
			},
			want: []pool.VDevSpec{
				{Type: "mirror", Devices: []string{"/dev/disk0", "/dev/disk1"}},
				{Type: "mirror", Devices: []string{"/dev/disk2", "/dev/disk3"}},
				{Type: "log", Devices: []string{"/dev/disk4"}},
			},
		},
		{
			name:   "legacy map puts classes last",
			layout: map[string]any{"log": "mirror sdc sdd", "raidz-0": "sde sdf sdg", "cache": "sdh"},
			want: []pool.VDevSpec{
				{Type: "raidz", Devices: []string{"/dev/sde", "/dev/sdf", "/dev/sdg"}},
				{Type: "log", Devices: []string{"mirror", "/dev/sdc", "/dev/sdd"}},
				{Type: "cache", Devices: []string{"/dev/sdh"}},
			},
		},
		{
			name:   "typed legacy map",
			layout: map[string]string{"disk-0": `"my disk"`},
			want:   []pool.VDevSpec{{Type: "disk", Devices: []string{"/dev/my disk"}}},
		},
		{
			name: "nested group",
			layout: []any{
				map[string]any{"log": []any{map[string]any{"mirror": []any{"a", "b"}}}},
			},
			want: []pool.VDevSpec{{
				Type:     "log",
				Devices:  []string{},
				Children: []pool.VDevSpec{{Type: "mirror", Devices: []string{"/dev/a", "/dev/b"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLayout(tt.layout, "/dev")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLayoutDeviceNamesLikeKeywords(t *testing.T) {
	got, err := ParseLayout(map[string]any{
		"log":   "mirror mirror0 raidz_spare1",
		"draid": "draid2:4d:1s sdb",
	}, "/dev")
	require.NoError(t, err)
	assert.Equal(t, []pool.VDevSpec{
		{Type: "draid", Devices: []string{"draid2:4d:1s", "/dev/sdb"}},
		{Type: "log", Devices: []string{"mirror", "/dev/mirror0", "/dev/raidz_spare1"}},
	}, got)

	for _, token := range []string{"mirror", "raidz", "raidz3", "draid", "draid1:8d:12c:2s", "spare"} {
		assert.True(t, isKeyword(token), token)
	}
	for _, token := range []string{"mirror0", "raidz_spare1", "raidz4", "draidx", "spares"} {
		assert.False(t, isKeyword(token), token)
	}
}

func TestParseLayoutWithoutDeviceDir(t *testing.T) {
	got, err := ParseLayout([]any{"sda"}, "")
	require.NoError(t, err)
	assert.Equal(t, []pool.VDevSpec{{Type: "disk", Devices: []string{"sda"}}}, got)
}

func TestParseLayoutErrors(t *testing.T) {
	for name, layout := range map[string]any{
		"scalar":       42,
		"bad entry":    []any{3.14},
		"empty group":  map[string]any{"mirror": []any{}},
		"bad group":    map[string]any{"mirror": 7},
		"unterminated": map[string]any{"mirror": `"sda`},
		"bad device":   []any{map[string]any{"mirror": []any{true}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout(layout, "/dev")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.StateInvalidLayout))
			assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))
		})
	}
}
