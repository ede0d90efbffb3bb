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

package errors

import "net/http"

const (
	DomainConfig   Domain = "CONFIG"
	DomainServer   Domain = "SERVER"
	DomainCommand  Domain = "CMD"
	DomainProperty Domain = "PROPERTY"
	DomainZFS      Domain = "ZFS"
	DomainState    Domain = "STATE"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

// Kind is the coarse failure class shared by every domain. Callers branch on
// Kind, never on message text.
type Kind string

const (
	KindUnknown           Kind = ""
	KindNotFound          Kind = "NotFound"
	KindBusy              Kind = "Busy"
	KindInvalidArgument   Kind = "InvalidArgument"
	KindPermissionOrState Kind = "PermissionOrState"
	KindToolUnavailable   Kind = "ToolUnavailable"
)

type ZError struct {
	Code       ErrorCode `json:"code"`
	Domain     Domain    `json:"domain"`
	Kind       Kind      `json:"kind,omitempty"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`

	// Metadata carries command specific context (argv, exit code, stderr)
	// for logs and API responses.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1300-1399: Command execution
// 1900-1999: Property catalog and codecs
// 2000-2099: ZFS operations
// 2100-2199: Reconciliation
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound         = 1000 + iota // Config file not found
	ConfigInvalid                        // Invalid config format
	ConfigLoadFailed                     // Failed to load config
	ConfigWriteFailed                    // Failed to write config
	ConfigValidationFailed               // Config validation failed
	ConfigMarshalFailed                  // Config serialization failed
)

const (
	// Server Errors (1100-1199)
	ServerStart             = 1100 + iota // Failed to start server
	ServerShutdown                        // Error during shutdown
	ServerRequestValidation               // Request validation failed
	ServerInternalError
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Binary missing
	CommandExecution                  // Execution failed
	CommandTimeout                    // Timed out
	CommandPermission                 // Permission denied
	CommandInvalidInput               // Invalid argv
	CommandOutputParse                // Output parse error
	CommandPipe                       // Pipe setup failed
)

const (
	// Property Errors (1900-1999)
	PropertyCatalogLoad   = 1900 + iota // Help listing could not be read
	PropertyCatalogParse                // Help listing had no header
	PropertyUnknown                     // Name not in catalog
	PropertyNotEditable                 // Read-only property
	PropertyInvalidValue                // Value cannot be encoded
	PropertyInvalidScope                // Unknown scope
)

const (
	// ZFS Operations (2000-2099)
	ZFSCommandFailed    = 2000 + iota // ZFS command execution failed
	ZFSPoolNotFound                   // Pool not found
	ZFSDatasetNotFound                // Dataset not found
	ZFSInvalidName                    // Name failed validation
	ZFSDeviceBusy                     // Device or dataset busy
	ZFSPermissionDenied               // Permission denied
	ZFSListingParse                   // Tabular output malformed
)

const (
	// Reconciliation (2100-2199)
	StateInvalidDocument = 2100 + iota // Declarative document invalid
	StateInvalidLayout                 // Layout cannot be turned into vdevs
	StateApplyFailed                   // Convergence failed
	StateScheduleFailed                // Scheduler setup failed
	StateReadFailed                    // Document could not be read
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	ConfigNotFound:         {"Configuration file not found", DomainConfig, http.StatusNotFound},
	ConfigInvalid:          {"Invalid configuration format", DomainConfig, http.StatusBadRequest},
	ConfigLoadFailed:       {"Failed to load configuration", DomainConfig, http.StatusInternalServerError},
	ConfigWriteFailed:      {"Failed to write configuration", DomainConfig, http.StatusInternalServerError},
	ConfigValidationFailed: {"Configuration validation failed", DomainConfig, http.StatusBadRequest},
	ConfigMarshalFailed:    {"Failed to serialize configuration", DomainConfig, http.StatusInternalServerError},

	ServerStart:             {"Failed to start server", DomainServer, http.StatusInternalServerError},
	ServerShutdown:          {"Error during server shutdown", DomainServer, http.StatusInternalServerError},
	ServerRequestValidation: {"Request validation failed", DomainServer, http.StatusBadRequest},
	ServerInternalError:     {"Internal server error", DomainServer, http.StatusInternalServerError},

	CommandNotFound:     {"Command not found", DomainCommand, http.StatusNotFound},
	CommandExecution:    {"Command execution failed", DomainCommand, http.StatusInternalServerError},
	CommandTimeout:      {"Command execution timed out", DomainCommand, http.StatusGatewayTimeout},
	CommandPermission:   {"Permission denied executing command", DomainCommand, http.StatusForbidden},
	CommandInvalidInput: {"Invalid command input", DomainCommand, http.StatusBadRequest},
	CommandOutputParse:  {"Failed to parse command output", DomainCommand, http.StatusInternalServerError},
	CommandPipe:         {"Failed to set up command pipes", DomainCommand, http.StatusInternalServerError},

	PropertyCatalogLoad:  {"Failed to load property catalog", DomainProperty, http.StatusServiceUnavailable},
	PropertyCatalogParse: {"Failed to parse property listing", DomainProperty, http.StatusInternalServerError},
	PropertyUnknown:      {"Unknown property", DomainProperty, http.StatusNotFound},
	PropertyNotEditable:  {"Property is not editable", DomainProperty, http.StatusConflict},
	PropertyInvalidValue: {"Invalid property value", DomainProperty, http.StatusBadRequest},
	PropertyInvalidScope: {"Invalid property scope", DomainProperty, http.StatusBadRequest},

	ZFSCommandFailed:    {"ZFS command failed", DomainZFS, http.StatusInternalServerError},
	ZFSPoolNotFound:     {"Pool not found", DomainZFS, http.StatusNotFound},
	ZFSDatasetNotFound:  {"Dataset not found", DomainZFS, http.StatusNotFound},
	ZFSInvalidName:      {"Invalid ZFS name", DomainZFS, http.StatusBadRequest},
	ZFSDeviceBusy:       {"Device or dataset busy", DomainZFS, http.StatusConflict},
	ZFSPermissionDenied: {"Permission denied", DomainZFS, http.StatusForbidden},
	ZFSListingParse:     {"Malformed property listing", DomainZFS, http.StatusInternalServerError},

	StateInvalidDocument: {"Invalid state document", DomainState, http.StatusBadRequest},
	StateInvalidLayout:   {"Invalid pool layout", DomainState, http.StatusBadRequest},
	StateApplyFailed:     {"Failed to converge state", DomainState, http.StatusUnprocessableEntity},
	StateScheduleFailed:  {"Failed to schedule reconciliation", DomainState, http.StatusInternalServerError},
	StateReadFailed:      {"Failed to read state document", DomainState, http.StatusBadRequest},
}

// kindDefaults maps codes whose kind is fixed regardless of stderr.
var kindDefaults = map[ErrorCode]Kind{
	CommandNotFound:      KindToolUnavailable,
	PropertyCatalogLoad:  KindToolUnavailable,
	CommandInvalidInput:  KindInvalidArgument,
	ZFSInvalidName:       KindInvalidArgument,
	PropertyInvalidValue: KindInvalidArgument,
	PropertyInvalidScope: KindInvalidArgument,
	PropertyUnknown:      KindNotFound,
	ZFSPoolNotFound:      KindNotFound,
	ZFSDatasetNotFound:   KindNotFound,
	ZFSDeviceBusy:        KindBusy,
	PropertyNotEditable:  KindPermissionOrState,
	ZFSPermissionDenied:  KindPermissionOrState,
	CommandPermission:    KindPermissionOrState,
	StateInvalidDocument: KindInvalidArgument,
	StateInvalidLayout:   KindInvalidArgument,
}
