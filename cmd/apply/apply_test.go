package apply

import (
	"bytes"
	"testing"

	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPrintReports(t *testing.T) {
	reports := []*state.Report{{
		Name:    "tank/home",
		State:   "filesystem.present",
		Result:  true,
		Changes: map[string]any{"quota": "10G"},
		Comment: "updated",
		RunID:   "r1",
	}}

	var buf bytes.Buffer
	require.NoError(t, PrintReports(&buf, reports))

	var back []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 1)
	assert.Equal(t, "tank/home", back[0]["name"])
	assert.Equal(t, map[string]any{"quota": "10G"}, back[0]["changes"])
	assert.NotContains(t, back[0], "kind")
}

func TestNotConverged(t *testing.T) {
	assert.NoError(t, NotConverged(nil))
	assert.NoError(t, NotConverged([]*state.Report{{Name: "tank", Result: true}}))

	err := NotConverged([]*state.Report{
		{Name: "tank", Result: true},
		{Name: "tank/a", State: "filesystem.present", Comment: "dataset is busy", Kind: errors.KindBusy},
		{Name: "tank/b", State: "filesystem.present", Comment: "nope"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StateApplyFailed))
	assert.Equal(t, errors.KindBusy, errors.KindOf(err))

	var ze *errors.ZError
	require.True(t, errors.As(err, &ze))
	assert.Equal(t, "tank/a", ze.Metadata["name"])
	assert.Equal(t, "2", ze.Metadata["failed"])
	assert.Equal(t, "dataset is busy", ze.Details)
}
