// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.0.1-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	// config
	ConfigFileName = "zstate.yml"
	StateFileName  = "state.yml"
	PIDFileName    = "zstate.pid"
	LogFileName    = "zstate.log"
	ConfigEnv      = "ZSTATE_CONFIG"
	EnvPrefix      = "ZSTATE"

	// routes
	APIVersion  = "v1"
	APIBase     = "/api/" + APIVersion + "/zstate"
	APICatalog  = APIBase + "/catalog"
	APIPools    = APIBase + "/pools"
	APIDatasets = APIBase + "/datasets"
	APIApply    = APIBase + "/apply"
	APIReports  = APIBase + "/reports"

	// RequestIDHeader carries the id the server assigns to every request.
	RequestIDHeader = "X-Request-ID"
)
