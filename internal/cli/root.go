package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/FlagWatch/FlagWatch/internal/cli.version=1.2.3"
	version = "1.2.0"
	logo    = "\n" +
		" _____  _               __        __        _          _\n" +
		"|  ___|| |  __ _   __ _ \\ \\      / /  __ _ | |_   ___ | |__\n" +
		"| |_   | | / _` | / _` | \\ \\ /\\ / /  / _` || __| / __|| '_ \\\n" +
		"|  _|  | || (_| || (_| |  \\ V  V /  | (_| || |_ | (__ | | | |\n" +
		"|_|    |_| \\__,_| \\__, |   \\_/\\_/    \\__,_| \\__| \\___||_| |_|\n" +
		"                  |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "flagwatch",
	Short: "FlagWatch - US flag half-staff tracker",
	Long: color.CyanString(logo) + "\nTracks whether the United States flag flies at half-staff, archives the\n" +
		"proclamation behind every change, and serves the answer over HTTP.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}
