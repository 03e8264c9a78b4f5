package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-codevideo/internal/cli"
	"github.com/alnah/go-codevideo/internal/config"
	"github.com/alnah/go-codevideo/internal/ffmpeg"
	"github.com/alnah/go-codevideo/internal/interrupt"
	"github.com/alnah/go-codevideo/internal/lang"
	"github.com/alnah/go-codevideo/internal/video"
	"github.com/alnah/go-codevideo/internal/watch"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitRender     = 5
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()
	rootCmd := newRootCmd(env)

	err := rootCmd.ExecuteContext(ctx)
	_ = env.Logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(exitCode(err))
	}
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand renders eg.py to hello.mp4.
func newRootCmd(env *cli.Env) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "codevideo",
		Short: "Render videos of source code being typed",
		Long: `Render videos of source code being typed, with syntax highlighting,
a theme and an animated cursor.

Run without arguments to render eg.py (python) to hello.mp4 at 30 fps
with the dracula theme, a cursor and 0.8 seconds per line.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			env.Logger = logger
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cli.ConfigureRoot(rootCmd, env)

	rootCmd.AddCommand(cli.RenderCmd(env))
	rootCmd.AddCommand(cli.ThemesCmd(env))
	rootCmd.AddCommand(cli.LanguagesCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// newLogger builds the diagnostics logger: warnings only by default, debug
// with --verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, ffmpeg.ErrUnsupportedPlatform) ||
		errors.Is(err, ffmpeg.ErrChecksumMismatch) || errors.Is(err, ffmpeg.ErrDownloadFailed) ||
		errors.Is(err, watch.ErrWatch) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrInputUnreadable) ||
		errors.Is(err, cli.ErrOutputExists) || errors.Is(err, cli.ErrUnknownConfigKey) ||
		errors.Is(err, config.ErrInvalidPreset) || errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, video.ErrInvalidFPS) || errors.Is(err, video.ErrInvalidLineDuration) ||
		errors.Is(err, video.ErrUnknownTheme) || errors.Is(err, video.ErrUnsupportedContainer) ||
		errors.Is(err, video.ErrNoOutput) || errors.Is(err, video.ErrTooManyFrames) {
		return ExitValidation
	}

	// Render errors (ExitRender = 5).
	if errors.Is(err, ffmpeg.ErrEncodeFailed) || errors.Is(err, ffmpeg.ErrTimeout) {
		return ExitRender
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Positional arg on the root command
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
