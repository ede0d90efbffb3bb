// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/internal/managers"
	"github.com/stratastor/zstate/pkg/zfs/property"
)

func NewCatalogCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:       "catalog [pool|dataset]",
		Short:     "List the properties the installed tools describe",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"pool", "dataset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := property.ScopeAuto
			if len(args) == 1 {
				s, err := property.ParseScope(args[0])
				if err != nil {
					return err
				}
				scope = s
			}

			set, err := managers.Build(cmd.Context(), config.GetConfig(), nil)
			if err != nil {
				return err
			}
			if set.Catalog.Empty() {
				return fmt.Errorf("no properties discovered; are zfs and zpool installed?")
			}
			return Print(os.Stdout, set.Catalog, scope, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print descriptors as JSON")
	return cmd
}

// Print renders the descriptors of scope sorted by name.
func Print(w io.Writer, c *property.Catalog, scope property.Scope, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Properties(scope))
	}

	props := c.Properties(scope)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROPERTY\tSCOPE\tEDIT\tINHERIT\tTYPE\tVALUES")
	for _, name := range c.Names(scope) {
		d := props[name]
		inherit := "-"
		if d.Inheritable != nil {
			inherit = yesNo(*d.Inheritable)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			name, d.Scope, yesNo(d.Editable), inherit, d.Type, d.Values)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
