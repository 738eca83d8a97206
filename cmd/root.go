package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stephenmfriend/agent-commander/config"
	"github.com/stephenmfriend/agent-commander/logging"
	"github.com/stephenmfriend/agent-commander/metrics"
)

var (
	logLevel    string
	logFormat   string
	logFile     string
	metricsFile string
	configPath  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agent-commander",
	Short: "Run coding agent CLIs directly, in screen or in docker",
	Long: `agent-commander launches coding agent CLIs (claude, codex, opencode,
agent, gemini, qwen) with a uniform set of options. Agents can run in the
foreground, inside a detached screen session or inside a docker container,
and their NDJSON output is parsed into messages, session ids and usage.

Examples:
  # Run claude in the current repository and wait for it
  agent-commander start --tool claude --working-directory . --prompt "fix the tests"

  # Start codex in a detached screen session, then stop it
  agent-commander start --tool codex --working-directory . --prompt "review" \
    --isolation screen --screen-name review --detached
  agent-commander stop --isolation screen --screen-name review

  # Print the command without running it
  agent-commander start --tool claude --working-directory . --prompt hi --dry-run`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() int {
	err := rootCmd.Execute()
	teardown()
	return exitCode(os.Stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default warn)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default text)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .agent-commander.yaml or .toml in the working directory)")
}

// setup initializes logging from flags, falling back to the repo config.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	format := logFormat
	if format == "" {
		format = cfg.LogFormat
	}
	switch format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}

	return logging.Init(logging.Options{
		Level: level,
		JSON:  format == "json",
		File:  logFile,
	})
}

func teardown() {
	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			logging.Logger().Warn("failed to write metrics", "path", metricsFile, "error", err)
		}
	}
	if err := logging.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: closing log file:", err)
	}
}

// loadConfig reads --config when given, otherwise the repo config in dir
// (the current directory when dir is empty).
func loadConfig(dir string) (config.RepoConfig, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.RepoConfig{}, err
		}
		dir = wd
	}
	return config.Load(dir)
}
