package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagBindings maps persistent flags onto viper keys.
var flagBindings = map[string]string{
	"api":                 "api",
	"api-key":             "api_key",
	"api-secret":          "api_secret",
	"api-version":         "api_version",
	"output":              "output",
	"verbose":             "verbose",
	"no-color":            "no_color",
	"skip-ssl-validation": "skip_ssl_validation",
}

// NewRootCommand assembles the hexo command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "hexo",
		Short: "Hexoskin API CLI",
		Long: `A command-line interface for the Hexoskin REST API.

Resources are discovered from the API's schema, so every resource the
server exposes can be listed, fetched, created, updated and deleted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := initConfig(cfgFile)
			if err != nil {
				return err
			}

			color.NoColor = color.NoColor || viper.GetBool("no_color")

			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.hexo/config.yml)")
	flags.StringP("api", "a", "", "API endpoint URL")
	flags.String("api-key", "", "API key")
	flags.String("api-secret", "", "API secret")
	flags.String("api-version", "", "API version sent as X-HexoAPIVersion")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Bool("no-color", false, "disable colored output")
	flags.Bool("skip-ssl-validation", false, "skip SSL certificate validation (requires HEXO_DEV_MODE=true)")

	for flag, key := range flagBindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewResourcesCommand())
	rootCmd.AddCommand(NewCacheCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewPatchCommand())

	return rootCmd
}

// initConfig loads .env from the working directory, then the config file,
// then HEXO_* environment variables.
func initConfig(cfgFile string) error {
	_ = godotenv.Load() // a missing .env is fine

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}

		viper.AddConfigPath(dir)
		viper.SetConfigType("yml")
		viper.SetConfigName(strings.TrimSuffix(constants.ConfigFileName, filepath.Ext(constants.ConfigFileName)))
	}

	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		return nil
	}

	if viper.GetBool("verbose") {
		_, _ = fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	return nil
}
