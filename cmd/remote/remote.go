// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/cmd/apply"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/httpclient"
)

func NewRemoteCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive a running zstate server",
	}
	cmd.PersistentFlags().StringVar(&url, "url", "", "Server URL (defaults to remote.baseURL)")

	cmd.AddCommand(newApplyCmd(&url))
	return cmd
}

func newApplyCmd(url *string) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply -f state.yml",
		Short: "Post a state document to the server and print its reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, errors.StateReadFailed).WithMetadata("path", file)
			}

			remote := httpclient.RemoteFromConfig(config.GetConfig(), *url)
			res, err := remote.Apply(cmd.Context(), doc, dryRun)
			if err != nil {
				return err
			}
			if err := apply.PrintReports(os.Stdout, res.Reports); err != nil {
				return err
			}
			return apply.NotConverged(res.Reports)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "State document (YAML or JSON)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without changing it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
