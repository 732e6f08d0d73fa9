package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var importUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.import")

func NewImportCmd(svc **service.Service) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Read tags from the current filenames into the tag store",
		Long: `Parse every image filename with the directory's tagging scheme and
store the resulting tags. By default the parsed tags are merged into
the existing ones; --overwrite replaces each image's tags instead.

Examples:
  imgtag import               # Merge filename tags into tags.json
  imgtag import --overwrite   # Replace stored tags with filename tags`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			n := s.ImportFromFilenames(overwrite)

			mode := "Merged"
			if overwrite {
				mode = "Replaced"
			}
			if err := s.Save(); err != nil {
				return fmt.Errorf("save tags: %w", err)
			}
			pretty := fmt.Sprintf("%s tags from %d filenames\nSaved %s", mode, n, s.Store.Path())

			importUlog.Success("Imported tags from filenames").
				Field("images", n).
				Field("overwrite", overwrite).
				Pretty(pretty).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace stored tags instead of merging")

	return cmd
}
