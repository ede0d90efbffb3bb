// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package get

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/managers"
	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/pool"
)

type options struct {
	raw       bool
	humanize  bool
	recursive bool
	depth     int
	source    string
	asJSON    bool
}

func NewGetCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "get pool|dataset <name> [property...]",
		Short: "Show decoded properties of a pool or dataset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := managers.Build(cmd.Context(), config.GetConfig(), nil)
			if err != nil {
				return err
			}

			var listing *command.Listing
			switch args[0] {
			case "pool", "zpool":
				listing, err = set.Pools.Get(cmd.Context(), args[1], args[2:], pool.GetOptions{
					Raw:      opts.raw,
					Humanize: opts.humanize,
				})
			case "dataset", "zfs":
				listing, err = set.Datasets.Get(cmd.Context(), []string{args[1]}, dataset.GetOptions{
					Properties: args[2:],
					Recursive:  opts.recursive,
					Depth:      opts.depth,
					Source:     opts.source,
					Raw:        opts.raw,
					Humanize:   opts.humanize,
				})
			default:
				return errors.New(errors.PropertyInvalidScope, args[0])
			}
			if err != nil {
				return err
			}
			return Print(os.Stdout, listing, opts.asJSON)
		},
	}

	cmd.Flags().BoolVarP(&opts.raw, "raw", "p", false, "Keep values as the tool prints them")
	cmd.Flags().BoolVarP(&opts.humanize, "humanize", "H", false, "Print sizes with units")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Include descendants")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "Limit recursion depth")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Filter by source (local,default,inherited,...)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

// Print writes listing as NAME PROPERTY VALUE SOURCE rows, or as JSON.
func Print(w io.Writer, listing *command.Listing, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROPERTY\tVALUE\tSOURCE")
	for _, name := range listing.Names() {
		for _, prop := range listing.Properties(name) {
			e, _ := listing.Get(name, prop)
			source := e.Source
			if source == "" {
				source = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", name, prop, e.Value, source)
		}
	}
	return tw.Flush()
}
