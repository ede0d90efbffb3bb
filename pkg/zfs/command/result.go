// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"

	"github.com/stratastor/zstate/pkg/errors"
)

// Result is the outcome of a module operation. Expected tool failures are
// reported here rather than as Go errors.
type Result struct {
	// Label names the outcome flag, e.g. "created" or "destroyed".
	Label     string      `json:"label,omitempty"`
	Succeeded bool        `json:"succeeded"`
	Output    any         `json:"output,omitempty"`
	Error     string      `json:"error,omitempty"`
	Kind      errors.Kind `json:"kind,omitempty"`
}

// Failed builds a failed result from a message, for failures detected
// before any command ran.
func Failed(label, msg string, kind errors.Kind) Result {
	return Result{Label: label, Error: msg, Kind: kind}
}

// FromError turns an execution error (tool missing, timeout) into a
// failed result.
func FromError(label string, err error) Result {
	msg := err.Error()
	var ze *errors.ZError
	if errors.As(err, &ze) && ze.Details != "" {
		msg = ze.Details
	}
	return Result{Label: label, Error: msg, Kind: errors.KindOf(err)}
}

var flagHints = []struct {
	prefix, flag, option string
}{
	{"use '-f'", "-f", "force=True"},
	{"use '-r'", "-r", "recursive=True"},
}

// ParseResult derives a Result from a finished process. On failure the
// error is every stderr line up to the usage block, with "use '-f'" style
// hints rewritten to the matching option name.
func ParseResult(out Output, label string) Result {
	res := Result{Label: label, Succeeded: out.Retcode == 0}
	if res.Succeeded {
		return res
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimRight(out.Stderr, "\n"), "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "usage:") {
			break
		}
		for _, h := range flagHints {
			if strings.HasPrefix(lower, h.prefix) {
				line = strings.ReplaceAll(line, h.flag, h.option)
			}
		}
		lines = append(lines, line)
	}

	res.Error = strings.Join(lines, "\n")
	res.Kind = errors.ClassifyStderr(res.Error)
	return res
}
