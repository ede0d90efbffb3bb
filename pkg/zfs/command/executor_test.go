/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package command

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSudoPrefix(t *testing.T) {
	e := NewCommandExecutor(true, logger.Config{LogLevel: "debug"})
	b := NewBuilder(nil, e.Binaries())

	create := b.Build(Spec{Scope: property.ScopePool, Subcommand: "create", Targets: []string{"tank", "/dev/sda"}})
	argv, err := e.buildArgv(create)
	require.NoError(t, err)
	assert.Equal(t, []string{"sudo", BinZpool, "create", "tank", "/dev/sda"}, argv)

	list := b.Build(Spec{Scope: property.ScopeDataset, Subcommand: "list"})
	argv, err = e.buildArgv(list)
	require.NoError(t, err)
	assert.Equal(t, []string{BinZFS, "list"}, argv)

	plainExec := NewCommandExecutor(false, logger.Config{LogLevel: "debug"})
	argv, err = plainExec.buildArgv(create)
	require.NoError(t, err)
	assert.Equal(t, BinZpool, argv[0])
}

func TestMissingBinary(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	e := NewCommandExecutor(false, logger.Config{LogLevel: "debug"},
		WithBinaries(Binaries{ZFS: "/nonexistent/zfs", Zpool: "/nonexistent/zpool"}),
		WithTimeout(time.Second),
		WithMetrics(m))

	_, err = e.Describe(context.Background(), property.ScopePool)
	require.Error(t, err)
	assert.Equal(t, errors.KindToolUnavailable, errors.KindOf(err))

	// The probe is memoized.
	assert.Equal(t, e.Available("/nonexistent/zpool"), e.Available("/nonexistent/zpool"))

	c, err := property.Load(context.Background(), e, nil)
	assert.Error(t, err)
	assert.True(t, c.Empty())

	// one series each for "zpool get" and "zfs get"
	assert.Equal(t, 2, testutil.CollectAndCount(m.commands))
	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.commands.WithLabelValues("zpool get", "unavailable")))
}
