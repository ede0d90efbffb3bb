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
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

// Output is what a finished process left behind.
type Output struct {
	Retcode int
	Stdout  string
	Stderr  string
}

// Runner executes built commands. A non-zero exit is reported through
// Output.Retcode; the error return is reserved for processes that could not
// run at all (missing binary, timeout, cancellation).
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// CommandExecutor runs zfs/zpool commands as child processes.
type CommandExecutor struct {
	useSudo bool          // Whether to use sudo for privileged commands
	timeout time.Duration // Default command timeout
	log     logger.Logger
	metrics *Metrics
	bins    Binaries

	probeMu sync.Mutex
	probed  map[string]error // binary -> lookup result
}

// ExecutorOption configures a CommandExecutor.
type ExecutorOption func(*CommandExecutor)

func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *CommandExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *CommandExecutor) { e.metrics = m }
}

func WithBinaries(b Binaries) ExecutorOption {
	return func(e *CommandExecutor) {
		if b.ZFS != "" {
			e.bins.ZFS = b.ZFS
		}
		if b.Zpool != "" {
			e.bins.Zpool = b.Zpool
		}
	}
}

func NewCommandExecutor(useSudo bool, lcfg logger.Config, opts ...ExecutorOption) *CommandExecutor {
	l, err := logger.NewTag(lcfg, "zfs-cmd")
	if err != nil {
		l, _ = logger.NewTag(logger.Config{LogLevel: "info"}, "zfs-cmd")
	}

	e := &CommandExecutor{
		useSudo: useSudo,
		timeout: DefaultTimeout,
		log:     l,
		bins:    DefaultBinaries(),
		probed:  make(map[string]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binaries returns the binary paths this executor describes with.
func (e *CommandExecutor) Binaries() Binaries {
	return e.bins
}

// Available probes for binary once and remembers the answer.
func (e *CommandExecutor) Available(binary string) error {
	e.probeMu.Lock()
	defer e.probeMu.Unlock()

	if err, ok := e.probed[binary]; ok {
		return err
	}
	var err error
	if _, lookErr := exec.LookPath(binary); lookErr != nil {
		err = errors.New(errors.CommandNotFound, binary).WithMetadata("err", lookErr.Error())
	}
	e.probed[binary] = err
	return err
}

func (e *CommandExecutor) Run(ctx context.Context, cmd Command) (Output, error) {
	argv, err := e.buildArgv(cmd)
	if err != nil {
		return Output{}, err
	}
	if err := e.Available(cmd.Binary); err != nil {
		e.metrics.observe(cmd, "unavailable", 0)
		return Output{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	execCmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	e.log.Debug("executing command", "cmd", cmd.Shell())
	start := time.Now()
	runErr := execCmd.Run()
	elapsed := time.Since(start)

	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		e.metrics.observe(cmd, "timeout", elapsed)
		return out, errors.New(errors.CommandTimeout, "command execution timed out").
			WithMetadata("command", cmd.String()).
			WithMetadata("timeout", e.timeout.String())
	case ctx.Err() != nil:
		e.metrics.observe(cmd, "cancelled", elapsed)
		return out, errors.Wrap(ctx.Err(), errors.CommandExecution).
			WithMetadata("command", cmd.String())
	case runErr != nil:
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			out.Retcode = exitErr.ExitCode()
			e.metrics.observe(cmd, "failed", elapsed)
			e.log.Warn("command failed",
				"cmd", cmd.String(),
				"retcode", out.Retcode,
				"stderr", strings.TrimSpace(out.Stderr))
			return out, nil
		}
		e.metrics.observe(cmd, "error", elapsed)
		return out, errors.Wrap(runErr, errors.CommandExecution).
			WithMetadata("command", cmd.String())
	}

	e.metrics.observe(cmd, "ok", elapsed)
	return out, nil
}

// Describe runs `<bin> get` without arguments; the property listing is
// printed as part of the usage text on stderr.
func (e *CommandExecutor) Describe(ctx context.Context, scope property.Scope) (string, error) {
	bin := e.bins.ZFS
	if scope == property.ScopePool {
		bin = e.bins.Zpool
	}
	cmd := Command{Scope: scope, Binary: bin, Subcommand: "get"}

	out, err := e.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Stderr) != "" {
		return out.Stderr, nil
	}
	return out.Stdout, nil
}

func (e *CommandExecutor) buildArgv(cmd Command) ([]string, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	argv := cmd.Argv()
	if e.useSudo && SudoRequiredCommands[cmd.Key()] {
		argv = append([]string{"sudo"}, argv...)
	}
	return argv, nil
}

// validateCommand only allows the two tool binaries. Arguments are passed
// without a shell so quoting characters are legal; NUL bytes are not.
func validateCommand(cmd Command) error {
	base := filepath.Base(cmd.Binary)
	if base != "zfs" && base != "zpool" {
		return errors.New(errors.CommandNotFound,
			"only zfs and zpool commands are allowed").
			WithMetadata("binary", cmd.Binary)
	}
	if cmd.Subcommand == "" || strings.ContainsAny(cmd.Subcommand, " \t") {
		return errors.New(errors.CommandInvalidInput, "invalid subcommand").
			WithMetadata("subcommand", cmd.Subcommand)
	}
	for _, arg := range cmd.Args() {
		if strings.ContainsRune(arg, 0) {
			return errors.New(errors.CommandInvalidInput,
				"argument contains invalid characters")
		}
	}
	return nil
}
