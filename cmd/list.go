package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var listUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.list")

// imageEntry is the JSON shape of one listed image.
type imageEntry struct {
	Path   string       `json:"path"`
	Hash   string       `json:"hash"`
	Tags   []models.Tag `json:"tags"`
	Target string       `json:"target"`
}

func NewListCmd(svc **service.Service) *cobra.Command {
	var (
		listJSON     bool
		listUntagged bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List images in the working directory with their tags",
		Aliases: []string{"ls"},
		Long: `List every matching image with its stored tags and the filename
apply would give it.

Examples:
  imgtag list                 # List images in the current directory
  imgtag -C ~/photos list     # List images in another directory
  imgtag list --untagged      # Only images without tags
  imgtag list --json          # Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			var entries []imageEntry
			planned := make(map[string]bool)
			for _, img := range s.Images.Images() {
				tags := s.Tags(img)
				target := targetName(s, img, tags, planned)
				if listUntagged && len(tags) > 0 {
					continue
				}
				entries = append(entries, imageEntry{
					Path:   img.Path,
					Hash:   img.Hash,
					Tags:   tags,
					Target: target,
				})
			}

			if len(entries) == 0 {
				pretty := "No images found"
				if listJSON {
					pretty = "[]"
				}
				listUlog.Info("No images found").
					Field("dir", s.Config.Dir).
					Pretty(pretty).
					PrettyOnly().
					Emit()
				return nil
			}

			if listJSON {
				return outputJSON(entries)
			}
			printImagesTable(entries, s)

			if orphans := s.Orphans(); len(orphans) > 0 {
				listUlog.Info("Stored tags without a matching image").
					Field("count", len(orphans)).
					Pretty(theme.DefaultTheme.Muted.Render(fmt.Sprintf("\n%d tagged image(s) in %s are not in this directory", len(orphans), filepath.Base(s.Store.Path())))).
					PrettyOnly().
					Emit()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&listUntagged, "untagged", false, "Only list images without tags")

	return cmd
}

func printImagesTable(entries []imageEntry, s *service.Service) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "HASH\tFILE\tTAGS")
	fmt.Fprintln(w, "-----\t-----------------------------\t------------------------------")

	for _, e := range entries {
		hash := e.Hash
		if len(hash) > 5 {
			hash = hash[:5]
		}
		name := filepath.Base(e.Path)
		if e.Target == "" {
			name = fmt.Sprintf("%s %s", name, lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red).Render("→ invalid name"))
		} else if name != e.Target {
			name = fmt.Sprintf("%s %s", name, theme.DefaultTheme.Muted.Render("→ "+e.Target))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", hash, name, formatTags(s, e.Tags))
	}

	w.Flush()
}

// formatTags renders tags the way they appear in filenames.
func formatTags(s *service.Service, tags []models.Tag) string {
	if len(tags) == 0 {
		return theme.DefaultTheme.Muted.Render("-")
	}
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, s.Tagger.FormatTag(tag))
	}
	return strings.Join(parts, " ")
}

// targetName is the filename apply would give img, or "" when its tags
// cannot form a filename. Names picked so far are recorded in planned.
func targetName(s *service.Service, img *models.Image, tags []models.Tag, planned map[string]bool) string {
	stem := s.Tagger.RenderFilename(tags, s.Config.SortTags)
	target, err := s.Images.TargetPath(img, stem, planned)
	if err != nil {
		return ""
	}
	if planned != nil && target != img.Path {
		planned[img.Path] = false
		planned[target] = true
	}
	return filepath.Base(target)
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
