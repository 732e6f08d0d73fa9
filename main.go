package main

import (
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/mattsolo1/grove-imgtag/cmd"
	"github.com/mattsolo1/grove-imgtag/cmd/config"
	"github.com/mattsolo1/grove-imgtag/pkg/service"
	"github.com/spf13/cobra"
)

var svc *service.Service

func main() {
	rootCmd := cli.NewStandardCommand(
		"imgtag",
		"Tag images and keep their filenames in sync with their tags",
	)
	config.AddGlobalFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		config.InitConfig()
		switch c.Name() {
		case "version", "help", "completion":
			return nil
		}

		var err error
		svc, err = config.InitService()
		return err
	}
	rootCmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		if svc != nil {
			return svc.Close()
		}
		return nil
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewListCmd(&svc))
	rootCmd.AddCommand(cmd.NewShowCmd(&svc))
	rootCmd.AddCommand(cmd.NewImportCmd(&svc))
	rootCmd.AddCommand(cmd.NewTagCmd(&svc))
	rootCmd.AddCommand(cmd.NewApplyCmd(&svc))
	rootCmd.AddCommand(cmd.NewSearchCmd(&svc))
	rootCmd.AddCommand(cmd.NewIndexCmd(&svc))
	rootCmd.AddCommand(cmd.NewSchemeCmd(&svc))
	rootCmd.AddCommand(cmd.NewThumbCmd(&svc))
	rootCmd.AddCommand(cmd.NewBrowseCmd(&svc))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
