// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stratastor/zstate/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Document is a declarative state file:
//
//	pools:
//	  - name: tank
//	    properties: {autoexpand: true}
//	    layout:
//	      - mirror: [sda, sdb]
//	datasets:
//	  - name: tank/home
//	    properties: {quota: 10G}
type Document struct {
	Pools    []PoolState    `yaml:"pools,omitempty" json:"pools,omitempty" validate:"dive"`
	Datasets []DatasetState `yaml:"datasets,omitempty" json:"datasets,omitempty" validate:"dive"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator names fields by their yaml key in error messages.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ParseDocument decodes and validates a document. JSON is accepted too.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.StateInvalidDocument)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDocument reads and parses the document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.StateReadFailed).WithMetadata("path", path)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		var ze *errors.ZError
		if errors.As(err, &ze) {
			return nil, ze.WithMetadata("path", path)
		}
		return nil, err
	}
	return doc, nil
}

func (d *Document) Validate() error {
	if err := Validator().Struct(d); err != nil {
		return errors.Wrap(err, errors.StateInvalidDocument)
	}
	for _, p := range d.Pools {
		if p.Ensure == EnsurePresent && p.Layout != nil {
			if _, err := ParseLayout(p.Layout, p.Config.DeviceDir); err != nil {
				var ze *errors.ZError
				if errors.As(err, &ze) {
					return ze.WithMetadata("pool", p.Name)
				}
				return err
			}
		}
	}
	return nil
}

// Apply converges every entry under one run id. Present pools go first,
// then datasets in document order, then absent pools. A missing tool
// stops the run since nothing after it can succeed.
func (e *Engine) Apply(ctx context.Context, doc *Document) []*Report {
	runID := uuid.NewString()
	ctx = WithRunID(ctx, runID)
	e.log.Info("applying state", "run_id", runID, "pools", len(doc.Pools), "datasets", len(doc.Datasets),
		"dry_run", e.dryRun)

	var reports []*Report
	stop := func(r *Report) bool {
		reports = append(reports, r)
		if !r.Result {
			e.log.Warn("state not converged", "name", r.Name, "state", r.State, "comment", r.Comment)
		}
		return r.Kind == errors.KindToolUnavailable || ctx.Err() != nil
	}

	for _, p := range doc.Pools {
		if p.Ensure == EnsureAbsent {
			continue
		}
		if stop(e.Pool(ctx, p)) {
			return reports
		}
	}
	for _, d := range doc.Datasets {
		if stop(e.Dataset(ctx, d)) {
			return reports
		}
	}
	for _, p := range doc.Pools {
		if p.Ensure != EnsureAbsent {
			continue
		}
		if stop(e.Pool(ctx, p)) {
			return reports
		}
	}
	return reports
}

// Converged reports whether every report succeeded.
func Converged(reports []*Report) bool {
	for _, r := range reports {
		if !r.Result {
			return false
		}
	}
	return true
}
