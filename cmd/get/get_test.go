package get

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListing() *command.Listing {
	l := command.NewListing()
	l.Set("tank", "size", command.Entry{Value: int64(1024), Source: "-"})
	l.Set("tank", "autoexpand", command.Entry{Value: true, Source: "local"})
	l.Set("tank", "comment", command.Entry{Value: "backup"})
	return l
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, sampleListing(), false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"NAME", "PROPERTY", "VALUE", "SOURCE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"tank", "size", "1024", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"tank", "autoexpand", "true", "local"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"tank", "comment", "backup", "-"}, strings.Fields(lines[3]))
}

func TestPrintJSONKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, sampleListing(), true))

	out := buf.String()
	assert.Less(t, strings.Index(out, `"size"`), strings.Index(out, `"autoexpand"`))
	assert.Less(t, strings.Index(out, `"autoexpand"`), strings.Index(out, `"comment"`))
}
