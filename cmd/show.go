package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var showUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.show")

func NewShowCmd(svc **service.Service) *cobra.Command {
	var showJSON bool

	cmd := &cobra.Command{
		Use:   "show <image>",
		Short: "Show the stored tags of one image",
		Long: `Show the stored tags of one image. The image may be given by
filename, path or a hash prefix of at least five characters.

Examples:
  imgtag show sunset_[john].png
  imgtag show 3f2a9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			img, err := s.ResolveImage(args[0])
			if err != nil {
				return err
			}
			tags := s.Tags(img)

			if showJSON {
				return outputJSON(imageEntry{
					Path:   img.Path,
					Hash:   img.Hash,
					Tags:   tags,
					Target: targetName(s, img, tags, nil),
				})
			}

			var pretty strings.Builder
			pretty.WriteString(theme.DefaultTheme.Header.Render(img.Name()))
			pretty.WriteString("\n")
			pretty.WriteString(theme.DefaultTheme.Muted.Render(img.Hash))
			pretty.WriteString("\n\n")
			if len(tags) == 0 {
				pretty.WriteString("  no tags\n")
			}
			for _, tag := range tags {
				pretty.WriteString(fmt.Sprintf("  %-10s %s\n", tag.Type, tag.Value))
			}
			pretty.WriteString(fmt.Sprintf("\nFilename after apply: %s", targetName(s, img, tags, nil)))

			showUlog.Info("Image tags").
				Field("path", img.Path).
				Field("hash", img.Hash).
				Field("tag_count", len(tags)).
				Pretty(pretty.String()).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")

	return cmd
}
