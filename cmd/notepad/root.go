package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
)

var (
	verbose    bool
	configPath string
	noWatch    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notepad",
	Short: "A reactive in-memory notepad with transient notifications",
	Long: `Notepad keeps notes in an observable in-memory store with simulated
network latency. Screens observe coordinators, failures surface as toasts.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest notepad.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file on change")
}

// resolveConfig returns the config file to use, or "" for built-in defaults.
func resolveConfig() (string, error) {
	if configPath != "" {
		return configPath, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	path, err := notepad.FindConfig(wd)
	if errors.Is(err, notepad.ErrConfigNotFound) {
		return "", nil
	}
	return path, err
}

// openApp wires the application with the CLI's logger and config.
func openApp(ctx context.Context, extra ...notepad.Option) (*notepad.App, error) {
	path, err := resolveConfig()
	if err != nil {
		return nil, err
	}

	opts := []notepad.Option{
		notepad.WithLogger(slog.Default()),
		notepad.WithConfigWatch(!noWatch),
	}
	if path != "" {
		slog.Debug("using config file", "path", path)
		opts = append(opts, notepad.WithConfigFile(path))
	}
	return notepad.New(ctx, append(opts, extra...)...)
}
