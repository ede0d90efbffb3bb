// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/stratastor/zstate/pkg/zfs/command"
)

type response struct {
	prefix string
	out    command.Output
	err    error
	times  int // 0 means unlimited
}

// FakeRunner records commands and answers them from canned responses
// matched by prefix of Command.Line(), e.g. "zpool list myzpool". Later
// registrations win; a command nothing matches succeeds with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses []*response
	calls     []command.Command
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On answers every command starting with prefix.
func (f *FakeRunner) On(prefix string, out command.Output) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, &response{prefix: prefix, out: out})
	return f
}

// Once answers the next command starting with prefix, then falls back to
// earlier registrations.
func (f *FakeRunner) Once(prefix string, out command.Output) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, &response{prefix: prefix, out: out, times: 1})
	return f
}

// OnError makes commands starting with prefix fail to run at all.
func (f *FakeRunner) OnError(prefix string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, &response{prefix: prefix, err: err})
	return f
}

func (f *FakeRunner) Run(_ context.Context, cmd command.Command) (command.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)
	line := cmd.Line()
	for i := len(f.responses) - 1; i >= 0; i-- {
		r := f.responses[i]
		if r.times < 0 || !strings.HasPrefix(line, r.prefix) {
			continue
		}
		if r.times > 0 {
			r.times--
			if r.times == 0 {
				r.times = -1
			}
		}
		return r.out, r.err
	}
	return command.Output{}, nil
}

// Calls returns every command run so far.
func (f *FakeRunner) Calls() []command.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]command.Command(nil), f.calls...)
}

// Lines returns Line() of every command run so far.
func (f *FakeRunner) Lines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.Line())
	}
	return lines
}

// Mutations returns the commands that change state.
func (f *FakeRunner) Mutations() []command.Command {
	var out []command.Command
	for _, c := range f.Calls() {
		if c.Mutating() {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps responses.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
