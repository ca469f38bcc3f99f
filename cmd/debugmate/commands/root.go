// Package commands provides the CLI commands for debugmate.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/debugmate-ai/debugmate/internal/config"
	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel string
	workDir  string
)

var rootCmd = &cobra.Command{
	Use:   "debugmate",
	Short: "Debugmate - root-cause analysis for logs and tracebacks",
	Long: `Debugmate sends logs, tracebacks, and notebooks to a remote
root-cause-analysis backend and renders the structured verdict: the root
cause, the offending file and line, a suggested patch, and a test.

Run 'debugmate analyze app.log' for a one-shot analysis, or
'debugmate serve' to start the HTTP bridge for editor integrations.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", "", "Working directory")

	rootCmd.SetVersionTemplate(fmt.Sprintf("debugmate %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pingCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup resolves the working directory, loads configuration, and initializes
// logging. The --log-level flag wins over the configured level.
func setup() (string, *types.Config, error) {
	dir := workDir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", nil, err
		}
	}

	// Local .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load(dir)
	if err != nil {
		return "", nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(logging.Config{
		Level:  logging.ParseLevel(level),
		Pretty: true,
	})

	return dir, cfg, nil
}
