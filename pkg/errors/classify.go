// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import "strings"

// stderrKinds is checked in order; the first matching fragment wins.
var stderrKinds = []struct {
	fragment string
	kind     Kind
}{
	{"command not found", KindToolUnavailable},
	{"executable file not found", KindToolUnavailable},
	{"permission denied", KindPermissionOrState},
	{"read-only property", KindPermissionOrState},
	{"readonly property", KindPermissionOrState},
	{"cannot be set", KindPermissionOrState},
	{"cannot be changed", KindPermissionOrState},
	{"operation not supported", KindPermissionOrState},
	{"pool is unavailable", KindPermissionOrState},
	{"no such pool", KindNotFound},
	{"does not exist", KindNotFound},
	{"no such device", KindNotFound},
	{"no pools available", KindNotFound},
	{"could not find any pools", KindNotFound},
	{"is busy", KindBusy},
	{"device busy", KindBusy},
	{"in use", KindBusy},
	{"has children", KindBusy},
	{"has dependent clones", KindBusy},
	{"trailing slash", KindInvalidArgument},
	{"invalid", KindInvalidArgument},
	{"missing", KindInvalidArgument},
	{"bad property", KindInvalidArgument},
	{"too many arguments", KindInvalidArgument},
	{"unrecognized", KindInvalidArgument},
}

// ClassifyStderr maps tool output onto a failure Kind.
func ClassifyStderr(stderr string) Kind {
	s := strings.ToLower(stderr)
	for _, k := range stderrKinds {
		if strings.Contains(s, k.fragment) {
			return k.kind
		}
	}
	return KindUnknown
}
