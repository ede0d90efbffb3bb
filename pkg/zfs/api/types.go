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

package api

import (
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/pool"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"github.com/stratastor/zstate/pkg/zfs/state"
)

// Handler provides HTTP endpoints over the property subsystem:
//   - Property catalog per scope
//   - Pool and dataset property listings
//   - Applying a declarative state document
//   - Reports of the last scheduled run
type Handler struct {
	pools    *pool.Manager
	datasets *dataset.Manager
	engine   *state.Engine
	// reports is nil when no scheduler runs in this process.
	reports ReportSource
	log     logger.Logger
}

// ReportSource exposes the outcome of the most recent scheduled run.
type ReportSource interface {
	Last() ([]*state.Report, time.Time, error)
}

// Response types

type catalogResponse struct {
	Scope      property.Scope                 `json:"scope"`
	Properties map[string]property.Descriptor `json:"properties"`
}

type listingResponse struct {
	Result *command.Listing `json:"result"`
}

type applyResponse struct {
	Converged bool            `json:"converged"`
	DryRun    bool            `json:"dry_run"`
	Reports   []*state.Report `json:"reports"`
}

type reportsResponse struct {
	Reports []*state.Report `json:"reports"`
	LastRun *time.Time      `json:"last_run,omitempty"`
	Error   string          `json:"error,omitempty"`
}
