package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var schemeUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.scheme")

func NewSchemeCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "scheme",
		Short: "Show the tagging scheme of the working directory",
		Long: `Show how tags are written in filenames in this directory. The scheme
is read from config.yaml (or imgtag.yaml) next to the images:

  tag separator: "_"
  tag types:
    person: ["[", "]"]
    place:
      brackets: ["(", ")"]
      order: 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			title := cases.Title(language.English)

			var pretty strings.Builder
			if s.SchemeErr != nil {
				pretty.WriteString(theme.DefaultTheme.Highlight.Render("Scheme could not be loaded, using defaults: " + s.SchemeErr.Error()))
				pretty.WriteString("\n\n")
			}
			pretty.WriteString(fmt.Sprintf("Separator: %q\n\n", s.Tagger.Separator()))

			summary := s.Tagger.Summary()
			for _, tp := range summary {
				pretty.WriteString(fmt.Sprintf("  %-12s %-20s order %d\n", title.String(tp.Name), tp.Pattern, tp.Order))
			}

			schemeUlog.Info("Tagging scheme").
				Field("separator", s.Tagger.Separator()).
				Field("types", len(summary)).
				Pretty(strings.TrimRight(pretty.String(), "\n")).
				PrettyOnly().
				Emit()
			return nil
		},
	}
}
