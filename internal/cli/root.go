// Package cli implements facectl, an offline front end to the similarity
// engine. It reads embeddings and galleries from YAML or JSON files.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Build metadata, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
)

// NewRootCommand assembles facectl with every subcommand attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "facectl",
		Short: "Compare, verify and identify face embeddings offline",
		Long: `facectl scores face embeddings with the same engine the API uses.

Embedding files hold a single list of numbers, either bare or under an
"embedding" key. Gallery files map each label to a list of embeddings.
YAML and JSON are both accepted.

Examples:
  facectl compare probe.yaml reference.yaml
  facectl verify probe.json reference.json --threshold 0.8
  facectl identify probe.yaml --gallery gallery.yaml --top 3`,
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("json", false, "Print results as JSON")

	root.AddCommand(
		newCompareCommand(),
		newVerifyCommand(),
		newIdentifyCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "facectl %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  Commit: %s\n", CommitSHA)
		},
	}
}

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// printJSON writes v indented when --json is set and reports whether it did.
func printJSON(cmd *cobra.Command, v interface{}) (bool, error) {
	if !mustGetBool(cmd, "json") {
		return false, nil
	}
	return true, writeJSON(cmd.OutOrStdout(), v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
