package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mattsolo1/grove-imgtag/internal/tui/browser"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
	"github.com/spf13/cobra"
)

// NewBrowseCmd creates the `imgtag browse` command.
func NewBrowseCmd(svc **service.Service) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"tui"},
		Short:   "Step through images and edit their tags interactively",
		Long: `Launch an interactive Terminal User Interface that shows one image at
a time with its tags. Tags can be added, removed, imported from the
filename, saved and applied to filenames.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for TTY
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("TUI mode requires an interactive terminal")
			}

			s := *svc
			if start != "" {
				if _, err := s.Images.Seek(start); err != nil {
					return err
				}
			}

			model := browser.New(s)
			p := tea.NewProgram(model, tea.WithAltScreen())

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start at this image (filename or hash)")

	return cmd
}
