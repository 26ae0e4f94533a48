package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/config"
)

var configDefaults bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default()
		source := "defaults"

		if !configDefaults {
			path, err := resolveConfig()
			if err != nil {
				fatal("Failed to locate config", err)
			}
			if path != "" {
				cfg, err = config.Load(path)
				if err != nil {
					fatal("Invalid config", err)
				}
				source = path
			}
		}

		data, err := cfg.Marshal()
		if err != nil {
			fatal("Failed to render config", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, data)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configDefaults, "defaults", false, "Print the built-in defaults, ignoring any config file")
}
