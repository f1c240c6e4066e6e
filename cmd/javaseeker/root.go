package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"javaseeker/internal/config"
	"javaseeker/internal/paths"
	"javaseeker/internal/slogutil"
	"javaseeker/internal/version"
)

var (
	baseFlag    string
	verboseFlag int
	quietFlag   bool
	formatFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "javaseeker",
	Short: "javaseeker - Java project lifecycle and code-reference analysis",
	Long: `javaseeker keeps a set of Java projects synchronized and built, and answers
"what references this code element, and what does it reference" queries by
building a source model of a ready project and walking it.

Projects are listed in a descriptor file (javaseeker-projects.yml by default).
Application settings, logs, run history and build-log archives live in the
base directory (.javaseeker by default).`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("javaseeker version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&baseFlag, "base", "", "Application base directory (default: ./.javaseeker)")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Silence all logging")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Output format: human or json (default: human on a terminal, json otherwise)")
}

// env is what every command starts from: the resolved base directory and
// the loaded settings.
type env struct {
	base string
	cfg  *config.Config
}

func loadEnv() (*env, error) {
	base, err := paths.ResolveBase(baseFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(base)
	if err != nil {
		return nil, err
	}
	return &env{base: base, cfg: cfg}, nil
}

// cliLevel returns the level selected by -v/--quiet, or nil when neither
// was given so the configured level applies.
func cliLevel() *slog.Level {
	if verboseFlag == 0 && !quietFlag {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verboseFlag, quietFlag)
	return &level
}

// consoleLogger is used by the short-lived commands: stderr only, warn
// unless raised by flags.
func (e *env) consoleLogger() *slog.Logger {
	level := slogutil.LevelFromVerbosity(verboseFlag, quietFlag)
	return slog.New(slogutil.NewHandler(os.Stderr, e.cfg.Logging.Format, level))
}
