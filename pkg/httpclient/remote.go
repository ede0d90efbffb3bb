// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/constants"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/state"
)

// ApplyResult mirrors the body of POST /apply.
type ApplyResult struct {
	Converged bool            `json:"converged"`
	DryRun    bool            `json:"dry_run"`
	Reports   []*state.Report `json:"reports"`
}

// Remote talks to a running zstate server.
type Remote struct {
	client *Client
}

func NewRemote(cfg ClientConfig) *Remote {
	return &Remote{client: NewClient(cfg)}
}

// RemoteFromConfig targets the server named in the remote section. A
// non-empty baseURL overrides it.
func RemoteFromConfig(cfg *config.Config, baseURL string) *Remote {
	cc := NewClientConfig()
	cc.BaseURL = cfg.Remote.BaseURL
	if baseURL != "" {
		cc.BaseURL = baseURL
	}
	cc.BearerToken = cfg.Remote.Token
	if cfg.Remote.Timeout > 0 {
		cc.Timeout = cfg.Remote.Timeout
	}
	return NewRemote(cc)
}

// Apply posts doc, YAML or JSON, and returns the server's reports. A
// document that did not converge is not an error; the result says so.
func (r *Remote) Apply(ctx context.Context, doc []byte, dryRun bool) (*ApplyResult, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/yaml").
		SetQueryParam("dry_run", strconv.FormatBool(dryRun)).
		SetBody(doc).
		Post(constants.APIApply)
	if err != nil {
		return nil, unreachable(err, r.client.BaseURL)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusUnprocessableEntity:
		var out ApplyResult
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, errors.Wrap(err, errors.CommandOutputParse).
				WithMetadata("body", string(resp.Body()))
		}
		return &out, nil
	default:
		return nil, responseError(resp.StatusCode(), resp.Body())
	}
}

// ReportsResult mirrors the body of GET /reports.
type ReportsResult struct {
	Reports []*state.Report `json:"reports"`
	LastRun *time.Time      `json:"last_run,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Reports fetches the outcome of the server's last scheduled run.
func (r *Remote) Reports(ctx context.Context) (*ReportsResult, error) {
	var out ReportsResult
	if err := r.get(ctx, constants.APIReports, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the body of GET /health. A degraded server answers with
// 503 and is reported as an error carrying that body.
func (r *Remote) Health(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := r.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) get(ctx context.Context, path string, out any) error {
	resp, err := r.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return unreachable(err, r.client.BaseURL)
	}
	if !resp.IsSuccess() {
		return responseError(resp.StatusCode(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrap(err, errors.CommandOutputParse).WithMetadata("body", string(resp.Body()))
	}
	return nil
}

func unreachable(err error, url string) error {
	return errors.Wrap(err, errors.ServerInternalError).
		WithKind(errors.KindToolUnavailable).
		WithMetadata("url", url)
}

// responseError turns a non-success body back into a ZError when the
// server sent one.
func responseError(status int, body []byte) error {
	var ze errors.ZError
	if err := json.Unmarshal(body, &ze); err == nil && ze.Code != 0 {
		ze.HTTPStatus = status
		return &ze
	}
	return errors.New(errors.ServerInternalError, fmt.Sprintf("unexpected status %d", status)).
		WithMetadata("body", string(body))
}
