package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var applyUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.apply")

func NewApplyCmd(svc **service.Service) *cobra.Command {
	var (
		dryRun  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Rename every image so its filename matches its stored tags",
		Long: `Rename every image in the working directory from its stored tags.
Images without tags are renamed to untagged-<hash>. The tag store is
saved and every rename is recorded in tag-changes.json.

Renames are not transactional: if one fails, the files renamed before
it keep their new names and the command reports the failure.

Examples:
  imgtag apply --dry-run   # Preview the renames
  imgtag apply             # Rename files`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			report, err := s.Apply(dryRun, true)
			if report == nil {
				return err
			}

			var pretty strings.Builder
			if dryRun || verbose {
				for _, c := range report.SortedChanges() {
					pretty.WriteString(fmt.Sprintf("  %s %s %s\n",
						filepath.Base(c.Old),
						theme.DefaultTheme.Muted.Render("→"),
						filepath.Base(c.New)))
				}
			}

			if dryRun {
				pretty.WriteString(fmt.Sprintf("\n%d of %d files would be renamed", len(report.Changes), report.TotalImages))
				applyUlog.Info("Apply preview").
					Field("total", report.TotalImages).
					Field("changes", len(report.Changes)).
					Pretty(pretty.String()).
					PrettyOnly().
					Emit()
				if err != nil {
					return fmt.Errorf("preview apply: %w", err)
				}
				return nil
			}

			pretty.WriteString(fmt.Sprintf("Renamed %d files, %d unchanged", report.RenamedFiles, report.UnchangedFiles))
			if report.RenamedFiles > 0 {
				pretty.WriteString(fmt.Sprintf("\nRecorded changes in %s", s.Store.LedgerPath()))
			}

			if err != nil {
				applyUlog.Info("Apply stopped").
					Field("renamed", report.RenamedFiles).
					Field("failed", report.FailedFiles).
					Pretty(pretty.String()).
					PrettyOnly().
					Emit()
				return fmt.Errorf("apply tags: %w", err)
			}

			applyUlog.Success("Applied tags to filenames").
				Field("renamed", report.RenamedFiles).
				Field("unchanged", report.UnchangedFiles).
				Field("duration", report.Duration().String()).
				Pretty(pretty.String()).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the renames without touching any file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every rename")

	return cmd
}
