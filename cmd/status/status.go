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

package status

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/cmd/apply"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/pkg/httpclient"
)

func NewStatusCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of the server's last scheduled run",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := httpclient.RemoteFromConfig(config.GetConfig(), url).Reports(cmd.Context())
			if err != nil {
				return err
			}
			return Print(os.Stdout, res)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Server URL (defaults to remote.baseURL)")
	return cmd
}

func Print(w io.Writer, res *httpclient.ReportsResult) error {
	if res.LastRun == nil {
		fmt.Fprintln(w, "No run recorded yet")
		return nil
	}
	fmt.Fprintf(w, "Last run: %s\n", res.LastRun.Format(time.RFC3339))
	if res.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
		return nil
	}
	return apply.PrintReports(w, res.Reports)
}
