package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
)

var (
	inspectSeed int
	inspectJSON bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the component tree as a Mermaid diagram",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		app, err := openApp(ctx, notepad.WithLatency(0, 0))
		if err != nil {
			fatal("Error initializing notepad", err)
		}
		defer app.Close(ctx)

		for i := 1; i <= inspectSeed; i++ {
			if _, err := app.Notes.AddNote(ctx, fmt.Sprintf("note %d", i), ""); err != nil {
				fatal("Error seeding notes", err)
			}
		}

		tree := app.Topology()
		out := cmd.OutOrStdout()

		if inspectJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(tree); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		config := introspection.DefaultDiagramConfig()
		config.SecondaryID = "notepad"
		config.SecondaryLabel = "Notepad Topology"
		fmt.Fprintln(out, introspection.TreeDiagram(tree, config))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectSeed, "seed", 0, "Add this many notes before inspecting")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output the tree as JSON")
}
