package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alnah/go-codevideo/internal/video"
)

// ThemesCmd creates the themes command.
func ThemesCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List highlighting themes",
		Long: `List the highlighting themes accepted by --theme.

Each theme is shown with a swatch of its background and text colours.`,
		Example: `  codevideo themes
  codevideo render -t monokai`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemes(env, cmd.OutOrStdout())
		},
	}
}

func runThemes(env *Env, w io.Writer) error {
	current := video.DefaultTheme
	if cfg, err := env.ConfigLoader.Load(); err == nil && cfg.Theme != "" {
		current = cfg.Theme
	}

	r := lipgloss.NewRenderer(w)
	name := r.NewStyle().Width(24)
	mark := r.NewStyle().Bold(true)

	for _, theme := range video.Themes() {
		bg, fg, err := video.ThemeColors(theme)
		if err != nil {
			return err
		}
		swatch := r.NewStyle().
			Background(lipgloss.Color(bg)).
			Foreground(lipgloss.Color(fg)).
			Padding(0, 1).
			Render("def f():")

		line := swatch + " " + name.Render(theme)
		if theme == current {
			line += mark.Render("*")
		}
		if theme == video.DefaultTheme {
			line += " (default)"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
