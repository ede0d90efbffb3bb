package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stratastor/zstate/config"
	"gopkg.in/yaml.v2"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage zstate configuration",
	}

	cmd.AddCommand(NewLoadConfigCmd())
	cmd.AddCommand(NewPrintConfigCmd())
	return cmd
}

func NewLoadConfigCmd() *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the configuration file given by --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = config.GetConfig()
			if cmd.Flags().Changed("save") {
				if err := config.SaveConfig(save); err != nil {
					return err
				}
			}
			fmt.Printf("Configuration loaded from: %s\n", config.GetLoadedConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Write the effective configuration to this path (default location when empty)")
	return cmd
}

func NewPrintConfigCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the currently loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if cfg == nil {
				return fmt.Errorf("no configuration loaded")
			}

			shown := *cfg
			if shown.Remote.Token != "" && !reveal {
				shown.Remote.Token = "[REDACTED]"
			}
			ymlData, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %v", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n%s", config.GetLoadedConfigPath(), ymlData)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secrets instead of redacting them")
	return cmd
}
