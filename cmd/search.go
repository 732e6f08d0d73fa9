package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-imgtag/pkg/search"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var searchUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.search")

func NewSearchCmd(svc **service.Service) *cobra.Command {
	var (
		searchAll   bool
		searchType  string
		searchExact bool
		searchLimit int
		searchJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search <tag>",
		Short: "Find images by tag",
		Long: `Search the tag index for images carrying a matching tag. The index
is refreshed from the working directory before searching.

Examples:
  imgtag search sunset              # Tags containing "sunset"
  imgtag search john -t person      # Only person tags
  imgtag search beach --exact --all # Exact match in every indexed directory`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			if _, err := s.Reindex(); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			results, err := s.Search(search.Query{
				Value: query,
				Exact: searchExact,
				Type:  searchType,
				Limit: searchLimit,
			}, searchAll)
			if err != nil {
				return err
			}

			if searchJSON {
				if results == nil {
					results = []*search.Result{}
				}
				return outputJSON(results)
			}

			if len(results) == 0 {
				searchUlog.Info("No results found").
					Field("query", query).
					Pretty("No results found").
					PrettyOnly().
					Emit()
				return nil
			}

			searchUlog.Info("Search results").
				Field("query", query).
				Field("result_count", len(results)).
				Pretty(fmt.Sprintf("Found %d images:\n", len(results))).
				PrettyOnly().
				Emit()

			for i, r := range results {
				matched := make([]string, 0, len(r.Matched))
				for _, tag := range r.Matched {
					matched = append(matched, s.Tagger.FormatTag(tag))
				}
				searchUlog.Info("Search result").
					Field("index", i+1).
					Field("path", r.Path).
					Field("hash", r.Hash).
					Pretty(fmt.Sprintf("%d. %s\n   %s", i+1, r.Path, strings.Join(matched, " "))).
					PrettyOnly().
					Emit()
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&searchAll, "all", "a", false, "Search every indexed directory")
	cmd.Flags().StringVarP(&searchType, "type", "t", "", "Only match tags of this type")
	cmd.Flags().BoolVar(&searchExact, "exact", false, "Match the whole tag value")
	cmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")

	return cmd
}

func NewIndexCmd(svc **service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index for the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			n, err := s.Reindex()
			if err != nil {
				return err
			}

			searchUlog.Success("Indexed images").
				Field("dir", s.Config.Dir).
				Field("images", n).
				Pretty(fmt.Sprintf("Indexed %d images from %s", n, s.Config.Dir)).
				PrettyOnly().
				Emit()
			return nil
		},
	}
}
