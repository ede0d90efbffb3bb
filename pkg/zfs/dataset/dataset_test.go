package dataset

import (
	"context"
	"strings"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/common"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stratastor/zstate/pkg/zfs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*Manager, *testutil.FakeRunner) {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "zfs-test")
	require.NoError(t, err)
	runner := testutil.NewFakeRunner()
	builder := command.NewBuilder(testutil.Catalog(t), command.Binaries{})
	return NewManager(runner, builder, l), runner
}

func TestExists(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs list -t filesystem tank/data", command.Output{Stdout: "tank/data\t96K"})
	runner.On("zfs list tank/gone", command.Output{Retcode: 1, Stderr: "cannot open 'tank/gone': dataset does not exist"})

	ctx := context.Background()
	exists, err := m.Exists(ctx, "tank/data", common.TypeFilesystem)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = m.Exists(ctx, "tank/gone", common.TypeInvalid)
	require.NoError(t, err)
	assert.False(t, exists)

	_, _ = m.Exists(ctx, "tank/any", common.TypeFilesystem|common.TypeVolume)
	assert.Equal(t, "zfs list -t filesystem,volume tank/any", runner.Lines()[2])
}

func TestCreate(t *testing.T) {
	m, runner := newManager(t)
	ctx := context.Background()

	res := m.Create(ctx, CreateConfig{
		Name:         "tank/home/alice",
		CreateParent: true,
		Properties:   map[string]any{"compression": true, "quota": "10G", "mountpoint": "/export/alice"},
	})
	require.True(t, res.Succeeded, res.Error)
	assert.Equal(t, "created", res.Label)

	res = m.Create(ctx, CreateConfig{Name: "tank/vol", VolumeSize: "10G", Sparse: true})
	require.True(t, res.Succeeded, res.Error)

	res = m.Create(ctx, CreateConfig{Name: "tank/plain", Sparse: true})
	require.True(t, res.Succeeded, res.Error)

	assert.Equal(t, []string{
		"zfs create -p -o compression=on -o mountpoint=/export/alice -o quota=10737418240 tank/home/alice",
		"zfs create -s -V 10737418240 tank/vol",
		"zfs create tank/plain",
	}, runner.Lines())
}

func TestCreateRejectsBadInput(t *testing.T) {
	m, runner := newManager(t)
	ctx := context.Background()

	res := m.Create(ctx, CreateConfig{Name: "tank/data@snap"})
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindInvalidArgument, res.Kind)

	res = m.Create(ctx, CreateConfig{Name: "tank/data/"})
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Error, "trailing slash")

	res = m.Create(ctx, CreateConfig{Name: "tank/vol", VolumeSize: "lots"})
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindInvalidArgument, res.Kind)

	res = m.Create(ctx, CreateConfig{Name: "tank/home", Properties: map[string]any{"mountpoint": "home"}})
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Error, "mountpoint must be absolute")

	assert.Empty(t, runner.Calls())
}

func TestCreateExisting(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs create", command.Output{Retcode: 1, Stderr: "cannot create 'tank/data': dataset already exists\n"})

	res := m.Create(context.Background(), CreateConfig{Name: "tank/data"})
	assert.False(t, res.Succeeded)
	assert.Equal(t, "cannot create 'tank/data': dataset already exists", res.Error)
}

func TestList(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs list", command.Output{Stdout: strings.Join([]string{
		"tank\t1.5G\t10.2G\t96K\t/tank",
		"tank/data\t1K\t10.2G\t96K\tnone",
	}, "\n")})

	ctx := context.Background()
	l, err := m.List(ctx, ListOptions{Name: "tank", Recursive: true, Depth: 1, Sort: "used", Parsable: true})
	require.NoError(t, err)
	assert.Equal(t, "zfs list -H -r -d 1 -o name,used,avail,refer,mountpoint -s used tank", runner.Lines()[0])
	assert.Equal(t, []string{"tank", "tank/data"}, l.Names())

	used, ok := l.Get("tank", "used")
	require.True(t, ok)
	assert.Equal(t, int64(1610612736), used.Value)
	assert.Equal(t, "/tank", l.Values("tank")["mountpoint"])

	l, err = m.List(ctx, ListOptions{Name: "tank", Properties: []string{"name", "used"}, Sort: "refer", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, "zfs list -H -o name,used tank", runner.Lines()[1])
	used, _ = l.Get("tank", "used")
	assert.Equal(t, "1.50G", used.Value)
}

func TestGet(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs get", command.Output{Stdout: strings.Join([]string{
		"tank/data\tused\t1.5G\t-",
		"tank/data\tcompression\ton\tlocal",
		"tank/data\tquota\tnone\tdefault",
		"tank/data\tmountpoint\t/tank/data\tinherited from tank",
	}, "\n")})

	ctx := context.Background()
	l, err := m.Get(ctx, []string{"tank/data"}, GetOptions{
		Properties: []string{"used", "compression", "quota", "mountpoint"},
		Depth:      1,
		Type:       "filesystem",
		Source:     "local,default",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"zfs get -H -d 1 -o name,property,value,source -s local,default -t filesystem used,compression,quota,mountpoint tank/data",
		runner.Lines()[0])

	values := l.Values("tank/data")
	assert.Equal(t, int64(1610612736), values["used"])
	assert.Equal(t, true, values["compression"])
	assert.Nil(t, values["quota"])

	mp, _ := l.Get("tank/data", "mountpoint")
	assert.Equal(t, "inherited from tank", mp.Source)
	used, _ := l.Get("tank/data", "used")
	assert.Empty(t, used.Source)

	_, err = m.Get(ctx, []string{"tank"}, GetOptions{Recursive: true, Raw: true})
	require.NoError(t, err)
	assert.Equal(t, "zfs get -H -r -o name,property,value,source all tank", runner.Lines()[1])
}

func TestGetFailure(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs get", command.Output{Retcode: 1, Stderr: "cannot open 'tank/nope': dataset does not exist"})

	_, err := m.Properties(context.Background(), "tank/nope")
	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestProperty(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs get", command.Output{Stdout: "tank\tquota\t10G\tlocal"})

	e, err := m.Property(context.Background(), "tank", "quota")
	require.NoError(t, err)
	assert.Equal(t, int64(10737418240), e.Value)
	assert.Equal(t, "local", e.Source)

	_, err = m.Property(context.Background(), "tank", "used")
	assert.True(t, errors.Is(err, errors.PropertyUnknown))
}

func TestSimpleMutations(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		run   func(*Manager) command.Result
		label string
		want  string
	}{
		{
			name:  "destroy",
			run:   func(m *Manager) command.Result { return m.Destroy(ctx, "tank/data", DestroyOptions{Force: true, Recursive: true, RecursiveAll: true}) },
			label: "destroyed",
			want:  "zfs destroy -f -R -r tank/data",
		},
		{
			name:  "rename",
			run:   func(m *Manager) command.Result { return m.Rename(ctx, "tank/a", "tank/b/a", RenameOptions{CreateParent: true, Force: true, Recursive: true}) },
			label: "renamed",
			want:  "zfs rename -p -f tank/a tank/b/a",
		},
		{
			name:  "rename snapshot",
			run:   func(m *Manager) command.Result { return m.Rename(ctx, "tank@a", "tank@b", RenameOptions{CreateParent: true, Recursive: true}) },
			label: "renamed",
			want:  "zfs rename -r tank@a tank@b",
		},
		{
			name: "set",
			run: func(m *Manager) command.Result {
				return m.Set(ctx, map[string]any{"quota": "1G", "compression": false, "com.example:note": "hello world"}, "tank/a", "tank/b")
			},
			label: "set",
			want:  `zfs set com.example:note="hello world" compression=off quota=1073741824 tank/a tank/b`,
		},
		{
			name:  "inherit",
			run:   func(m *Manager) command.Result { return m.Inherit(ctx, "compression", "tank/a", true, true) },
			label: "inherited",
			want:  "zfs inherit -r -S compression tank/a",
		},
		{
			name: "snapshot",
			run: func(m *Manager) command.Result {
				return m.Snapshot(ctx, []string{"tank/a@now", "tank/b@now"}, true, map[string]any{"com.example:tag": "daily"})
			},
			label: "snapshotted",
			want:  "zfs snapshot -r -o com.example:tag=daily tank/a@now tank/b@now",
		},
		{
			name:  "bookmark",
			run:   func(m *Manager) command.Result { return m.Bookmark(ctx, "tank/a@now", "tank/a#now") },
			label: "bookmarked",
			want:  "zfs bookmark tank/a@now tank/a#now",
		},
		{
			name: "clone",
			run: func(m *Manager) command.Result {
				return m.Clone(ctx, "tank/a@now", "tank/clones/a", true, map[string]any{"readonly": true})
			},
			label: "cloned",
			want:  "zfs clone -p -o readonly=on tank/a@now tank/clones/a",
		},
		{
			name:  "promote",
			run:   func(m *Manager) command.Result { return m.Promote(ctx, "tank/clones/a") },
			label: "promoted",
			want:  "zfs promote tank/clones/a",
		},
		{
			name:  "rollback",
			run:   func(m *Manager) command.Result { return m.Rollback(ctx, "tank/a@now", RollbackOptions{Recursive: true, Force: true}) },
			label: "rolledback",
			want:  "zfs rollback -r -f tank/a@now",
		},
		{
			name:  "rollback force alone",
			run:   func(m *Manager) command.Result { return m.Rollback(ctx, "tank/a@now", RollbackOptions{Force: true}) },
			label: "rolledback",
			want:  "zfs rollback tank/a@now",
		},
		{
			name:  "mount",
			run:   func(m *Manager) command.Result { return m.Mount(ctx, "tank/a", MountOptions{Overlay: true, Options: "ro"}) },
			label: "mounted",
			want:  "zfs mount -O -o ro tank/a",
		},
		{
			name:  "mount all",
			run:   func(m *Manager) command.Result { return m.Mount(ctx, "", MountOptions{}) },
			label: "mounted",
			want:  "zfs mount -a",
		},
		{
			name:  "unmount",
			run:   func(m *Manager) command.Result { return m.Unmount(ctx, "tank/a", true) },
			label: "unmounted",
			want:  "zfs unmount -f tank/a",
		},
		{
			name:  "unmount all",
			run:   func(m *Manager) command.Result { return m.Unmount(ctx, "", false) },
			label: "unmounted",
			want:  "zfs unmount -a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, runner := newManager(t)
			res := tt.run(m)
			require.True(t, res.Succeeded, res.Error)
			assert.Equal(t, tt.label, res.Label)
			assert.Equal(t, []string{tt.want}, runner.Lines())
		})
	}
}

func TestSetNothing(t *testing.T) {
	m, runner := newManager(t)
	res := m.Set(context.Background(), nil, "tank")
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindInvalidArgument, res.Kind)

	res = m.Set(context.Background(), map[string]any{"mountpoint": "relative/path"}, "tank")
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindInvalidArgument, res.Kind)
	assert.Empty(t, runner.Calls())

	res = m.Set(context.Background(), map[string]any{"mountpoint": "legacy"}, "tank")
	assert.True(t, res.Succeeded, res.Error)
}

func TestMutationFailures(t *testing.T) {
	m, runner := newManager(t)
	runner.On("zfs destroy", command.Output{
		Retcode: 1,
		Stderr:  "cannot destroy 'tank/a': filesystem has children\nuse '-r' to destroy the following datasets:\ntank/a/b\n",
	})
	runner.OnError("zfs promote", errors.New(errors.CommandNotFound, "/usr/sbin/zfs"))

	ctx := context.Background()
	res := m.Destroy(ctx, "tank/a", DestroyOptions{})
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindBusy, res.Kind)
	assert.Contains(t, res.Error, "use 'recursive=True'")

	res = m.Promote(ctx, "tank/a")
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindToolUnavailable, res.Kind)

	res = m.Snapshot(ctx, []string{"tank/a"}, false, nil)
	assert.False(t, res.Succeeded)
	assert.Equal(t, errors.KindInvalidArgument, res.Kind)
}

func TestDatasetOperations(t *testing.T) {
	testutil.RequireIntegration(t)
	env := testutil.NewTestEnv(t, 3)

	executor := command.NewCommandExecutor(true, logger.Config{LogLevel: "debug"})
	builder := command.NewBuilder(testutil.Catalog(t), executor.Binaries())
	pools := pool.NewManager(executor, builder, nil)
	datasets := NewManager(executor, builder, nil)
	ctx := context.Background()

	poolName := testutil.GeneratePoolName()
	res := pools.Create(ctx, pool.CreateConfig{
		Name:  poolName,
		VDevs: []pool.VDevSpec{{Type: "raidz", Devices: env.GetLoopDevices()}},
	})
	require.True(t, res.Succeeded, res.Error)
	t.Cleanup(func() { pools.Destroy(ctx, poolName, true) })

	fs := poolName + "/fs1"
	res = datasets.Create(ctx, CreateConfig{
		Name:       fs,
		Properties: map[string]any{"compression": true, "quota": "10M"},
	})
	require.True(t, res.Succeeded, res.Error)

	props, err := datasets.Properties(ctx, fs)
	require.NoError(t, err)
	assert.Equal(t, int64(10485760), props["quota"])

	res = datasets.Snapshot(ctx, []string{fs + "@snap1"}, false, nil)
	require.True(t, res.Succeeded, res.Error)

	res = datasets.Clone(ctx, fs+"@snap1", poolName+"/clone1", false, nil)
	require.True(t, res.Succeeded, res.Error)

	res = datasets.Promote(ctx, poolName+"/clone1")
	require.True(t, res.Succeeded, res.Error)

	res = datasets.Destroy(ctx, fs, DestroyOptions{RecursiveAll: true})
	require.True(t, res.Succeeded, res.Error)

	exists, err := datasets.Exists(ctx, fs, common.TypeFilesystem)
	require.NoError(t, err)
	assert.False(t, exists)
}
