package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alnah/go-codevideo/internal/config"
	"github.com/alnah/go-codevideo/internal/format"
	"github.com/alnah/go-codevideo/internal/interrupt"
	"github.com/alnah/go-codevideo/internal/lang"
	"github.com/alnah/go-codevideo/internal/video"
)

// Render flag names.
const (
	flagOutput       = "output"
	flagLanguage     = "language"
	flagFPS          = "fps"
	flagTheme        = "theme"
	flagCursor       = "cursor"
	flagLineDuration = "line-duration"
	flagPreset       = "preset"
	flagNoClobber    = "no-clobber"
	flagWatch        = "watch"
)

// renderOptions holds parsed render flags.
type renderOptions struct {
	input        string
	output       string
	language     string
	fps          int
	theme        string
	cursor       bool
	lineDuration float64
	preset       string
	noClobber    bool
	watch        bool

	// userConfig layers the saved settings and CODEVIDEO_* variables under
	// the flags. The root command leaves it off and renders the literal
	// defaults.
	userConfig bool

	// changed reports whether a flag was given on the command line.
	// Only given flags override presets and user config.
	changed func(name string) bool
}

func (o renderOptions) set(name string) bool {
	return o.changed != nil && o.changed(name)
}

const renderLong = `Render a video of source code being typed.

The input file is read whole and passed to the renderer unchanged. Each line
is typed over --line-duration seconds, then the finished code is held on
screen for one second.

Settings are taken from, in order: flags, --preset, the user config
(codevideo config), then built-in defaults.

The output container follows the extension: mp4, mov, mkv, webm or gif.`

// RenderCmd creates the render command.
// The env parameter provides injectable dependencies for testing.
func RenderCmd(env *Env) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a code typing video",
		Long:  renderLong,
		Example: `  codevideo render                       # eg.py -> hello.mp4
  codevideo render main.go -l go -o main.webm
  codevideo render eg.py -t monokai --fps 60 --line-duration 0.5
  codevideo render --preset demo.yaml --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}
			opts.userConfig = true
			opts.changed = cmd.Flags().Changed
			return runRender(cmd.Context(), env, opts)
		},
	}
	bindRenderFlags(cmd, &opts)
	return cmd
}

// ConfigureRoot makes root render with the default input when run without a
// subcommand, and gives it the render flags.
func ConfigureRoot(root *cobra.Command, env *Env) {
	var opts renderOptions

	root.Args = cobra.NoArgs
	root.RunE = func(cmd *cobra.Command, args []string) error {
		opts.changed = cmd.Flags().Changed
		return runRender(cmd.Context(), env, opts)
	}
	bindRenderFlags(root, &opts)
}

func bindRenderFlags(cmd *cobra.Command, o *renderOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.output, flagOutput, "o", video.DefaultOutput, "Output video; the extension picks the container")
	f.StringVarP(&o.language, flagLanguage, "l", video.DefaultLanguage, "Source language (see 'codevideo languages')")
	f.IntVar(&o.fps, flagFPS, video.DefaultFPS, "Frames per second")
	f.StringVarP(&o.theme, flagTheme, "t", video.DefaultTheme, "Highlighting theme (see 'codevideo themes')")
	f.BoolVar(&o.cursor, flagCursor, video.DefaultShowCursor, "Draw a block cursor at the typing position")
	f.Float64Var(&o.lineDuration, flagLineDuration, video.DefaultLineDuration, "Seconds spent typing each line")
	f.StringVar(&o.preset, flagPreset, "", "YAML file with render settings")
	f.BoolVar(&o.noClobber, flagNoClobber, false, "Fail instead of overwriting an existing output")
	f.BoolVarP(&o.watch, flagWatch, "w", false, "Re-render whenever the input file changes")

	// A watch loop rewrites the same output on every change.
	cmd.MarkFlagsMutuallyExclusive(flagWatch, flagNoClobber)
}

// runRender reads the input, builds the render config and hands it to the
// renderer once (or once per change with --watch).
func runRender(ctx context.Context, env *Env, o renderOptions) error {
	var preset config.Preset
	if o.preset != "" {
		p, err := config.LoadPreset(o.preset)
		if err != nil {
			return err
		}
		preset = p
	}
	input := inputPath(o, preset)

	// The source is read before anything else is resolved, so a missing
	// file never reaches the renderer or the ffmpeg download.
	code, err := readSource(env, input)
	if err != nil {
		return err
	}

	var userCfg config.Config
	if o.userConfig {
		userCfg, err = env.ConfigLoader.Load()
		if err != nil {
			fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
		}
	}

	cfg := buildConfig(code, o, preset, userCfg)

	if o.noClobber {
		if _, err := os.Stat(cfg.Output); err == nil {
			return fmt.Errorf("%s: %w", cfg.Output, ErrOutputExists)
		}
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	handler, ctx := env.InterruptFactory(ctx)
	defer handler.Stop()

	if !o.watch {
		if err := renderOnce(ctx, env, ffmpegPath, cfg); err != nil {
			if ctx.Err() != nil {
				return interrupted(env, handler, cfg.Output)
			}
			return err
		}
		return nil
	}

	return watchAndRender(ctx, env, handler, ffmpegPath, input, cfg, func(code string) video.Config {
		return buildConfig(code, o, preset, userCfg)
	})
}

// watchAndRender renders first, then again after each change to input.
// Render failures are reported and the watch goes on.
func watchAndRender(ctx context.Context, env *Env, handler InterruptHandler, ffmpegPath, input string, first video.Config, build func(code string) video.Config) error {
	if err := renderOnce(ctx, env, ffmpegPath, first); err != nil {
		if ctx.Err() != nil {
			return interrupted(env, handler, first.Output)
		}
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
	}

	fmt.Fprintf(env.Stderr, "Watching %s for changes (Ctrl+C to stop)...\n", input)

	current := first.Output
	err := env.Watcher.Run(ctx, input, func(ctx context.Context) error {
		code, err := readSource(env, input)
		if err != nil {
			fmt.Fprintf(env.Stderr, "Error: %v\n", err)
			return nil
		}
		cfg := build(code)
		current = cfg.Output

		if err := renderOnce(ctx, env, ffmpegPath, cfg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		}
		return nil
	})

	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return interrupted(env, handler, current)
	case err != nil:
		return err
	}

	// Ctrl+C between renders: nothing partial to keep or discard.
	if ctx.Err() != nil {
		if handler.Interrupted() {
			fmt.Fprintf(env.Stderr, "Stopped watching, last video kept: %s\n", current)
		} else {
			fmt.Fprintln(env.Stderr, "Stopped watching.")
		}
		return fmt.Errorf("watch stopped: %w", context.Canceled)
	}
	fmt.Fprintln(env.Stderr, "Stopped watching.")
	return nil
}

// renderOnce makes a single render call and prints a summary on success.
func renderOnce(ctx context.Context, env *Env, ffmpegPath string, cfg video.Config) error {
	env.logger().Debug("render config",
		zap.Int("code_bytes", len(cfg.Code)),
		zap.String("language", cfg.Language),
		zap.String("output", cfg.Output),
		zap.Int("fps", cfg.FPS),
		zap.String("theme", cfg.Theme),
		zap.Bool("show_cursor", cfg.ShowCursor),
		zap.Float64("line_duration", cfg.LineDuration),
	)

	progress := newProgressReporter(env.Stderr)
	r := env.RendererFactory.NewRenderer(ffmpegPath, env.logger(), progress.report)

	fmt.Fprintf(env.Stderr, "Rendering %s (%s, %s, %d fps)...\n", cfg.Output, displayLanguage(cfg.Language), cfg.Theme, cfg.FPS)
	start := time.Now()
	if err := r.Render(ctx, cfg); err != nil {
		return err
	}
	env.logger().Debug("render finished", zap.Duration("elapsed", time.Since(start)))

	if size, err := fileSize(cfg.Output); err == nil {
		fmt.Fprintf(env.Stderr, "Done: %s (%s, %s)\n", cfg.Output, format.Duration(progress.duration(cfg.FPS)), format.Size(size))
	} else {
		fmt.Fprintf(env.Stderr, "Done: %s\n", cfg.Output)
	}
	return nil
}

// interrupted applies the user's keep-or-discard decision to a stopped
// render and returns an error that maps to the interrupt exit code.
func interrupted(env *Env, handler InterruptHandler, output string) error {
	switch handler.WaitForDecision() {
	case interrupt.Discard:
		if err := os.Remove(output); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(env.Stderr, "Warning: failed to remove partial video: %v\n", err)
		}
		fmt.Fprintln(env.Stderr, "Aborted, partial video discarded.")
	default:
		if size, err := fileSize(output); err == nil {
			fmt.Fprintf(env.Stderr, "Interrupted, partial video kept: %s (%s)\n", output, format.Size(size))
		} else {
			fmt.Fprintln(env.Stderr, "Interrupted.")
		}
	}
	return fmt.Errorf("render interrupted: %w", context.Canceled)
}

// displayLanguage names the lexer that will be used, or echoes name when
// the renderer is going to reject it.
func displayLanguage(name string) string {
	if canonical, err := lang.Canonical(name); err == nil {
		return canonical
	}
	return name
}

// inputPath picks the source file: the argument, then the preset, then the
// default.
func inputPath(o renderOptions, p config.Preset) string {
	switch {
	case o.input != "":
		return o.input
	case p.Input != "":
		return p.Input
	}
	return video.DefaultInput
}

// readSource returns the file's exact contents.
func readSource(env *Env, path string) (string, error) {
	data, err := env.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return "", fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}
	return string(data), nil
}

// buildConfig layers defaults, user config, preset and given flags, in
// increasing priority. Values are passed through unchecked; the renderer
// owns validation.
func buildConfig(code string, o renderOptions, p config.Preset, user config.Config) video.Config {
	cfg := video.Defaults(code)

	if user.Theme != "" {
		cfg.Theme = user.Theme
	}

	if p.Language != "" {
		cfg.Language = p.Language
	}
	if p.Output != "" {
		cfg.Output = p.Output
	}
	if p.FPS != nil {
		cfg.FPS = *p.FPS
	}
	if p.Theme != "" {
		cfg.Theme = p.Theme
	}
	if p.ShowCursor != nil {
		cfg.ShowCursor = *p.ShowCursor
	}
	if p.LineDuration != nil {
		cfg.LineDuration = *p.LineDuration
	}

	if o.set(flagLanguage) {
		cfg.Language = o.language
	}
	if o.set(flagOutput) {
		cfg.Output = o.output
	}
	if o.set(flagFPS) {
		cfg.FPS = o.fps
	}
	if o.set(flagTheme) {
		cfg.Theme = o.theme
	}
	if o.set(flagCursor) {
		cfg.ShowCursor = o.cursor
	}
	if o.set(flagLineDuration) {
		cfg.LineDuration = o.lineDuration
	}

	if cfg.Output != "" {
		cfg.Output = config.ResolveOutputPath(cfg.Output, user.OutputDir)
	}
	return cfg
}
