package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
)

var thumbUlog = grovelogging.NewUnifiedLogger("grove-imgtag.cmd.thumb")

func NewThumbCmd(svc **service.Service) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "thumb <image>",
		Short: "Render a PNG preview of an image",
		Long: `Render a PNG thumbnail that fits within thumb_size pixels (500 by
default), respecting EXIF orientation.

Examples:
  imgtag thumb sunset.png -o preview.png
  imgtag thumb 3f2a9 > preview.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			img, err := s.ResolveImage(args[0])
			if err != nil {
				return err
			}

			data, err := s.Thumbnail(img)
			if err != nil {
				return err
			}

			if output == "" {
				if isatty.IsTerminal(os.Stdout.Fd()) {
					return fmt.Errorf("refusing to write image data to a terminal; use -o")
				}
				_, err := os.Stdout.Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write thumbnail: %w", err)
			}

			thumbUlog.Success("Thumbnail written").
				Field("source", img.Path).
				Field("output", output).
				Field("bytes", len(data)).
				Pretty(fmt.Sprintf("Wrote %s", output)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the thumbnail to this file")

	return cmd
}
