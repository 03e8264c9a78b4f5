package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alnah/go-codevideo/internal/config"
	"github.com/alnah/go-codevideo/internal/video"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-codevideo/config.
Settings can also be provided via environment variables.

Supported settings:
  output-dir    Directory for relative output paths (env: CODEVIDEO_OUTPUT_DIR)
  theme         Theme used when --theme is not given (env: CODEVIDEO_THEME)`,
		Example: `  codevideo config set output-dir ~/Videos/code
  codevideo config set theme monokai
  codevideo config get theme
  codevideo config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

output-dir is created if it doesn't exist. theme must be a known theme.`,
		Example: `  codevideo config set output-dir ~/Videos/code
  codevideo config set theme github`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Print a configuration value, or nothing if it is not set.`,
		Example: `  codevideo config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, cmd.OutOrStdout(), args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Long:    `List configuration values from the file and from environment variables.`,
		Example: `  codevideo config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env, cmd.OutOrStdout())
		},
	}
}

func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w %q (valid keys: %v)", ErrUnknownConfigKey, key, config.Keys)
	}

	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.EnsureOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = expanded
	case config.KeyTheme:
		style, err := video.Style(value)
		if err != nil {
			return err
		}
		value = style.Name
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

func runConfigGet(env *Env, w io.Writer, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w %q (valid keys: %v)", ErrUnknownConfigKey, key, config.Keys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvVar(key))
	}

	if value != "" {
		fmt.Fprintln(w, value)
	}
	return nil
}

func runConfigList(env *Env, w io.Writer) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for _, key := range config.Keys {
		if _, ok := data[key]; ok {
			continue
		}
		if v := env.Getenv(config.EnvVar(key)); v != "" {
			data[key] = v + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(w, "No configuration set.")
		fmt.Fprintln(w, "\nAvailable settings:")
		for _, key := range config.Keys {
			fmt.Fprintf(w, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "%s=%s\n", key, data[key])
	}
	return nil
}

func isValidConfigKey(key string) bool {
	return slices.Contains(config.Keys, key)
}
