package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/ui"
)

// exitCancelled is the conventional status for a SIGINT-terminated run
const exitCancelled = 130

var (
	// Version information
	version   = "3.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coolromdl",
	Short: "Browse the CoolROM catalog and download ROMs",
	Long: `coolromdl lists the consoles of the CoolROM catalog, lets you pick items
by letter or by substring search, downloads them with progress reporting and
optionally unpacks zip, tar, gzip and 7z archives into the output directory.

Anything not given as a flag is asked for interactively.`,
	Example: `  # Fully interactive
  coolromdl

  # Console 12, letter m, items 3 and 5, into ./roms
  coolromdl -c 12 -l m -r 3,5 -o ./roms

  # Search every letter of console 12, extract, fix ownership and remove archives
  coolromdl -c 12 -s mario -C -u games -p 755`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDownload,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return
	case errors.IsCancelled(err):
		ui.PrintWarning("Cancelled")
		os.Exit(exitCancelled)
	default:
		ui.PrintError("[-] Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./.coolromdl.yaml or $HOME/.config/coolromdl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")

	rootCmd.SetVersionTemplate(`coolromdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
