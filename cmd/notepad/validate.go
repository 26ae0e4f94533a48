package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/auth"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <username> <password>",
	Short: "Check login credentials against the validation rules",
	Long: `Runs the login validation rules and prints the result as JSON.
Exits with status 1 when the credentials are invalid.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result := auth.Validate(args[0], args[1])

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fatal("Error encoding JSON", err)
		}

		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
