// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/managers"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/state"
	"gopkg.in/yaml.v3"
)

func NewApplyCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply -f state.yml",
		Short: "Converge pools and datasets to a state document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := state.LoadDocument(file)
			if err != nil {
				return err
			}
			set, err := managers.Build(cmd.Context(), config.GetConfig(), nil)
			if err != nil {
				return err
			}

			reports := set.Engine.DryRun(dryRun).Apply(cmd.Context(), doc)
			if err := PrintReports(os.Stdout, reports); err != nil {
				return err
			}
			return NotConverged(reports)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "State document (YAML or JSON)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without changing it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// PrintReports writes reports as a YAML list.
func PrintReports(w io.Writer, reports []*state.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}

// NotConverged returns an error naming the first failed report, or nil.
func NotConverged(reports []*state.Report) error {
	failed := 0
	var first *state.Report
	for _, r := range reports {
		if r.Result {
			continue
		}
		if first == nil {
			first = r
		}
		failed++
	}
	if first == nil {
		return nil
	}
	err := errors.New(errors.StateApplyFailed, first.Comment).
		WithMetadata("name", first.Name).
		WithMetadata("state", first.State).
		WithMetadata("failed", strconv.Itoa(failed))
	if first.Kind != errors.KindUnknown {
		err.WithKind(first.Kind)
	}
	return err
}
