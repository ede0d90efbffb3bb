// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// New creates a ZError for the given code. Unknown codes still produce a
// usable error so callers never have to nil-check.
func New(code ErrorCode, details string) *ZError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &ZError{
			Code:       code,
			Domain:     DomainZFS,
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	return &ZError{
		Code:       code,
		Domain:     def.domain,
		Kind:       kindDefaults[code],
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Wrap converts err into a ZError with code. An existing ZError keeps its
// metadata and kind; its message is folded into Details.
func Wrap(err error, code ErrorCode) *ZError {
	if err == nil {
		return nil
	}
	var ze *ZError
	if stderrors.As(err, &ze) {
		wrapped := New(code, ze.Details)
		if ze.Kind != KindUnknown {
			wrapped.Kind = ze.Kind
		}
		for k, v := range ze.Metadata {
			wrapped.WithMetadata(k, v)
		}
		wrapped.WithMetadata("cause", ze.Message)
		return wrapped
	}
	return New(code, err.Error())
}

// NewCommandError records a failed invocation with its stderr.
func NewCommandError(cmd string, exitCode int, stderr string) *ZError {
	err := New(CommandExecution, strings.TrimSpace(stderr))
	err.Kind = ClassifyStderr(stderr)
	return err.
		WithMetadata("command", cmd).
		WithMetadata("exit_code", strconv.Itoa(exitCode))
}

func (e *ZError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s-%d] %s: %s", e.Domain, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
}

// WithMetadata adds a key/value pair and returns the receiver for chaining.
func (e *ZError) WithMetadata(key, value string) *ZError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithKind overrides the failure class.
func (e *ZError) WithKind(kind Kind) *ZError {
	e.Kind = kind
	return e
}

// Is reports whether err is a ZError carrying code.
func Is(err error, code ErrorCode) bool {
	var ze *ZError
	if stderrors.As(err, &ze) {
		return ze.Code == code
	}
	return false
}

// KindOf returns the failure class of err, or KindUnknown.
func KindOf(err error) Kind {
	var ze *ZError
	if stderrors.As(err, &ze) {
		return ze.Kind
	}
	return KindUnknown
}

// As is re-exported so callers don't need both errors packages.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
