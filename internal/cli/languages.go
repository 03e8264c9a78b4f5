package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-codevideo/internal/lang"
)

// LanguagesCmd creates the languages command.
func LanguagesCmd(env *Env) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List source languages",
		Long: `List the source language names accepted by --language.

Aliases and file extensions also work (py, golang, .rs).`,
		Example: `  codevideo languages
  codevideo languages --filter script`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages(cmd.OutOrStdout(), filter)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only list names containing this text")
	return cmd
}

func runLanguages(w io.Writer, filter string) error {
	filter = strings.ToLower(strings.TrimSpace(filter))
	for _, name := range lang.Names() {
		if filter == "" || strings.Contains(name, filter) {
			fmt.Fprintln(w, name)
		}
	}
	return nil
}
