// Package cli implements the paictl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"pai-assistant-go/internal/config"
	"pai-assistant-go/pkg/log"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "paictl",
	Short: "Operator tool for pai-assistant-go",
	Long:  "Ask the assistant, ingest pages and mint admin tokens without going through the HTTP server.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.Init("debug", "console", "")
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or ./configs/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./configs/config.yaml"
	}
	return config.Load(path)
}

func printJSON(cmd *cobra.Command, v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
