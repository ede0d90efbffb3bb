package health

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/config"
	"github.com/stratastor/zstate/pkg/httpclient"
)

func NewHealthCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check zstate server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ret, err := httpclient.RemoteFromConfig(config.GetConfig(), url).Health(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ret)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Server URL (defaults to remote.baseURL)")
	return cmd
}
