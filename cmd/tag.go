package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var tagUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.tag")

func NewTagCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Add, remove and list tags",
		Long: `Edit stored tags. Tags are written the way they appear in filenames,
so a tag wrapped in a declared type's brackets gets that type.

Examples:
  imgtag tag add sunset.png beach [john]
  imgtag tag rm sunset.png [john]
  imgtag tag ls`,
	}

	cmd.AddCommand(newTagAddCmd(svc))
	cmd.AddCommand(newTagRemoveCmd(svc))
	cmd.AddCommand(newTagListCmd(svc))

	return cmd
}

func newTagAddCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "add <image> <tag>...",
		Short: "Add tags to an image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			img, err := s.ResolveImage(args[0])
			if err != nil {
				return err
			}

			tags := s.ParseTags(args[1:])
			s.AddTags(img, tags)
			if err := s.Save(); err != nil {
				return fmt.Errorf("save tags: %w", err)
			}

			tagUlog.Success("Tags added").
				Field("path", img.Path).
				Field("count", len(tags)).
				Pretty(fmt.Sprintf("%s: %s", img.Name(), formatTags(s, s.Tags(img)))).
				PrettyOnly().
				Emit()
			return nil
		},
	}
}

func newTagRemoveCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <image> <tag>...",
		Aliases: []string{"remove"},
		Short:   "Remove tags from an image",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			img, err := s.ResolveImage(args[0])
			if err != nil {
				return err
			}

			tags := s.ParseTags(args[1:])
			s.RemoveTags(img, tags)
			if err := s.Save(); err != nil {
				return fmt.Errorf("save tags: %w", err)
			}

			tagUlog.Success("Tags removed").
				Field("path", img.Path).
				Field("count", len(tags)).
				Pretty(fmt.Sprintf("%s: %s", img.Name(), formatTags(s, s.Tags(img)))).
				PrettyOnly().
				Emit()
			return nil
		},
	}
}

func newTagListCmd(svc **service.Service) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List every tag in use with its image count",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			if s.Index == nil {
				return fmt.Errorf("tag listing needs the search index; set data_dir")
			}

			if _, err := s.Reindex(); err != nil {
				return err
			}

			dir := s.Config.Dir
			if all {
				dir = ""
			}
			counts, err := s.Index.AllTags(dir)
			if err != nil {
				return err
			}

			if len(counts) == 0 {
				tagUlog.Info("No tags found").
					Pretty("No tags found").
					PrettyOnly().
					Emit()
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tTYPE\tIMAGES")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%s\t%d\n", s.Tagger.FormatTag(c.Tag), c.Tag.Type, c.Images)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include tags from every indexed directory")

	return cmd
}
