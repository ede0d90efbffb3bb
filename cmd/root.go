package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/cmd/apply"
	"github.com/stratastor/zstate/cmd/catalog"
	"github.com/stratastor/zstate/cmd/config"
	"github.com/stratastor/zstate/cmd/get"
	"github.com/stratastor/zstate/cmd/health"
	"github.com/stratastor/zstate/cmd/logs"
	"github.com/stratastor/zstate/cmd/remote"
	"github.com/stratastor/zstate/cmd/serve"
	"github.com/stratastor/zstate/cmd/status"
	"github.com/stratastor/zstate/cmd/version"
	cfg "github.com/stratastor/zstate/config"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "zstate",
		Short:         "zstate: declarative ZFS pool and dataset properties",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.LoadConfig(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	rootCmd.AddCommand(catalog.NewCatalogCmd())
	rootCmd.AddCommand(get.NewGetCmd())
	rootCmd.AddCommand(apply.NewApplyCmd())
	rootCmd.AddCommand(remote.NewRemoteCmd())
	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(health.NewHealthCmd())
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(logs.NewLogsCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}
