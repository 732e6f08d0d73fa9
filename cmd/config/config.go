package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-imgtag/pkg/service"
	"github.com/mattsolo1/grove-imgtag/pkg/store"
)

var (
	cfgFile  string
	Dir      string
	Pattern  string
	LogLevel string
)

// InitConfig loads the user config file, an optional .env in the working
// directory and IMGTAG_* environment variables.
func InitConfig() {
	if err := godotenv.Load(filepath.Join(Dir, ".env")); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "imgtag")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("IMGTAG")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "imgtag"))
	viper.SetDefault("pattern", "")
	viper.SetDefault("sort_tags", true)
	viper.SetDefault("thumb_size", 500)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("sidecar", store.SidecarName)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Warning: could not read config %s: %v\n", cfgFile, err)
		}
	}
}

// NewLogger builds the stderr logger used by the library packages.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := viper.GetString("log_level")
	if LogLevel != "" {
		level = LogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// InitService opens the working directory.
func InitService() (*service.Service, error) {
	pattern := viper.GetString("pattern")
	if Pattern != "" {
		pattern = Pattern
	}

	cfg := &service.Config{
		Dir:       Dir,
		Pattern:   pattern,
		DataDir:   viper.GetString("data_dir"),
		SortTags:  viper.GetBool("sort_tags"),
		ThumbSize: viper.GetInt("thumb_size"),
		Sidecar:   viper.GetString("sidecar"),
	}

	logger := NewLogger()
	svc, err := service.New(cfg, logrus.NewEntry(logger))
	if err != nil {
		return nil, err
	}

	return svc, nil
}

// AddGlobalFlags registers the flags shared by every command.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file (default is $HOME/.config/imgtag/config.yaml)")
	cmd.PersistentFlags().StringVarP(&Dir, "dir", "C", ".", "image directory to work in")
	cmd.PersistentFlags().StringVar(&Pattern, "pattern", "", "only include files whose name matches this regular expression")
	cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}
