package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	API               string `json:"api,omitempty"         yaml:"api,omitempty"`
	APIKey            string `json:"api_key,omitempty"     yaml:"api_key,omitempty"`
	APISecret         string `json:"api_secret,omitempty"  yaml:"api_secret,omitempty"`
	APIVersion        string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Username          string `json:"username,omitempty"    yaml:"username,omitempty"`
	Password          string `json:"password,omitempty"    yaml:"password,omitempty"`
	Output            string `json:"output"                yaml:"output"`
	NoColor           bool   `json:"no_color"              yaml:"no_color"`
	SkipSSLValidation bool   `json:"skip_ssl_validation"   yaml:"skip_ssl_validation"`

	Cache CacheConfig `json:"cache" yaml:"cache"`
}

// CacheConfig selects where discovered schemas are kept between runs.
type CacheConfig struct {
	Type       string `json:"type,omitempty"        yaml:"type,omitempty"`
	Dir        string `json:"dir,omitempty"         yaml:"dir,omitempty"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	NATSURL    string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
	NATSBucket string `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`
}

// configKeys lists the settable keys. Each is also its viper key.
var configKeys = []string{
	"api",
	"api_key",
	"api_secret",
	"api_version",
	"username",
	"password",
	"output",
	"no_color",
	"skip_ssl_validation",
	"cache.type",
	"cache.dir",
	"cache.sqlite_path",
	"cache.nats_url",
	"cache.nats_bucket",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in ~/.hexo/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := maskConfig(loadConfig())
			out := cmd.OutOrStdout()

			switch viper.GetString("output") {
			case constants.FormatJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.FormatYAML:
				return yaml.NewEncoder(out).Encode(config)
			default:
				table := tablewriter.NewWriter(out)
				table.Header("Property", "Value")

				for _, row := range configRows(config) {
					_ = table.Append(row)
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + joinKeys(),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if !isConfigKey(key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			if key == "output" && !isOutputFormat(value) {
				return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
			}

			config := loadConfig()

			err := setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			printSuccess(cmd, "Set %s", key)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if !isConfigKey(key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			config := loadConfig()

			err := setConfigValue(config, key, "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			printSuccess(cmd, "Unset %s", key)

			return nil
		},
	}
}

// loadConfig reads the effective configuration from viper, so flags and
// HEXO_* environment variables override the file.
func loadConfig() *Config {
	return &Config{
		API:               viper.GetString("api"),
		APIKey:            viper.GetString("api_key"),
		APISecret:         viper.GetString("api_secret"),
		APIVersion:        viper.GetString("api_version"),
		Username:          viper.GetString("username"),
		Password:          viper.GetString("password"),
		Output:            viper.GetString("output"),
		NoColor:           viper.GetBool("no_color"),
		SkipSSLValidation: viper.GetBool("skip_ssl_validation"),
		Cache: CacheConfig{
			Type:       viper.GetString("cache.type"),
			Dir:        viper.GetString("cache.dir"),
			SQLitePath: viper.GetString("cache.sqlite_path"),
			NATSURL:    viper.GetString("cache.nats_url"),
			NATSBucket: viper.GetString("cache.nats_bucket"),
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	boolValue := func() bool {
		parsed, _ := strconv.ParseBool(value)

		return parsed
	}

	switch key {
	case "api":
		config.API = value
	case "api_key":
		config.APIKey = value
	case "api_secret":
		config.APISecret = value
	case "api_version":
		config.APIVersion = value
	case "username":
		config.Username = value
	case "password":
		config.Password = value
	case "output":
		config.Output = value
	case "no_color":
		config.NoColor = boolValue()
	case "skip_ssl_validation":
		config.SkipSSLValidation = boolValue()
	case "cache.type":
		config.Cache.Type = value
	case "cache.dir":
		config.Cache.Dir = value
	case "cache.sqlite_path":
		config.Cache.SQLitePath = value
	case "cache.nats_url":
		config.Cache.NATSURL = value
	case "cache.nats_bucket":
		config.Cache.NATSBucket = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	viper.Set(key, value)

	return nil
}

// configFilePath returns the file in use, or ~/.hexo/config.yml.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, constants.ConfigFileName), nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func maskConfig(config *Config) *Config {
	masked := *config
	masked.APISecret = maskSecret(config.APISecret)
	masked.Password = maskSecret(config.Password)

	return &masked
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= constants.StringTruncationLimit {
		return constants.MaskedSecret
	}

	return secret[:constants.StringTruncationLimit] + constants.MaskedSecret
}

func configRows(config *Config) [][]string {
	orNA := func(value string) string {
		if value == "" {
			return constants.NotAvailable
		}

		return value
	}

	return [][]string{
		{"API", orNA(config.API)},
		{"API Key", orNA(config.APIKey)},
		{"API Secret", orNA(config.APISecret)},
		{"API Version", orNA(config.APIVersion)},
		{"Username", orNA(config.Username)},
		{"Password", orNA(config.Password)},
		{"Output", orNA(config.Output)},
		{"No Color", strconv.FormatBool(config.NoColor)},
		{"Skip SSL Validation", strconv.FormatBool(config.SkipSSLValidation)},
		{"Cache Type", orNA(config.Cache.Type)},
		{"Cache Dir", orNA(config.Cache.Dir)},
		{"Cache SQLite Path", orNA(config.Cache.SQLitePath)},
		{"Cache NATS URL", orNA(config.Cache.NATSURL)},
		{"Cache NATS Bucket", orNA(config.Cache.NATSBucket)},
	}
}

func isConfigKey(key string) bool {
	return slices.Contains(configKeys, key)
}

func joinKeys() string {
	return strings.Join(configKeys, ", ")
}
