// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"github.com/stratastor/zstate/pkg/zfs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const poolGet = "mypool\tsize\t1992864825344\t-\n" +
	"mypool\tautoexpand\toff\tdefault\n" +
	"mypool\tcomment\tmy pool comment with spaces\tlocal\n" +
	"mypool\tfeature@async_destroy\tenabled\tlocal\n" +
	"mypool\tcapacity\t0\t-\n"

func TestParseListingPool(t *testing.T) {
	l, err := command.ParseListing(poolGet, testutil.Catalog(t), command.ListingOptions{Scope: property.ScopePool})
	require.NoError(t, err)

	assert.Equal(t, []string{"mypool"}, l.Names())
	assert.Equal(t,
		[]string{"size", "autoexpand", "comment", "feature@async_destroy", "capacity"},
		l.Properties("mypool"))

	e, ok := l.Get("mypool", "size")
	require.True(t, ok)
	assert.Equal(t, int64(1992864825344), e.Value)
	assert.Empty(t, e.Source)

	e, _ = l.Get("mypool", "autoexpand")
	assert.Equal(t, false, e.Value)
	assert.Equal(t, "default", e.Source)

	e, _ = l.Get("mypool", "comment")
	assert.Equal(t, "my pool comment with spaces", e.Value)

	e, _ = l.Get("mypool", "feature@async_destroy")
	assert.Equal(t, "enabled", e.Value)

	assert.Equal(t, map[string]any{
		"size":                  int64(1992864825344),
		"autoexpand":            false,
		"comment":               "my pool comment with spaces",
		"feature@async_destroy": "enabled",
		"capacity":              int64(0),
	}, l.Values("mypool"))
}

func TestParseListingModes(t *testing.T) {
	cat := testutil.Catalog(t)

	raw, err := command.ParseListing(poolGet, cat, command.ListingOptions{Scope: property.ScopePool, Raw: true})
	require.NoError(t, err)
	e, _ := raw.Get("mypool", "autoexpand")
	assert.Equal(t, "off", e.Value)

	human, err := command.ParseListing(poolGet, cat, command.ListingOptions{Scope: property.ScopePool, Humanize: true})
	require.NoError(t, err)
	e, _ = human.Get("mypool", "size")
	assert.Equal(t, "1.81T", e.Value)
}

func TestParseListingDatasets(t *testing.T) {
	out := strings.Join([]string{
		"tank\tquota\t5368709120\tlocal\t-",
		"tank\treadonly\toff\tdefault\t-",
		"tank/data\tcompression\tlz4\tinherited from tank\t-",
		"tank/data\tmounted\tyes\t-\t-",
	}, "\n")

	l, err := command.ParseListing(out, testutil.Catalog(t), command.ListingOptions{
		Scope:  property.ScopeDataset,
		Fields: []string{"name", "property", "value", "source", "received"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"tank", "tank/data"}, l.Names())
	assert.Equal(t, 2, l.Len())

	e, _ := l.Get("tank", "quota")
	assert.Equal(t, int64(5368709120), e.Value)
	assert.Equal(t, map[string]string{"received": "-"}, e.Extra)

	e, _ = l.Get("tank/data", "compression")
	assert.Equal(t, "lz4", e.Value)
	assert.Equal(t, "inherited from tank", e.Source)

	e, _ = l.Get("tank/data", "mounted")
	assert.Equal(t, true, e.Value)

	_, ok := l.Get("tank", "nope")
	assert.False(t, ok)
	assert.Nil(t, l.Properties("missing"))
}

func TestParseListingMalformed(t *testing.T) {
	_, err := command.ParseListing("tank quota 5G\n", nil, command.ListingOptions{})
	assert.True(t, errors.Is(err, errors.ZFSListingParse))
}

func TestListingJSONKeepsOrder(t *testing.T) {
	l, err := command.ParseListing("b\tquota\tnone\t-\na\tquota\tnone\t-\n", testutil.Catalog(t),
		command.ListingOptions{Scope: property.ScopeDataset})
	require.NoError(t, err)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, `{"b":{"quota":{"value":null}},"a":{"quota":{"value":null}}}`, string(data))
}
