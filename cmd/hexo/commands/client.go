package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/internal/logging"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/fivetwenty-io/hexo-client/pkg/hexoclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// createClient builds a client from the effective configuration. The caller
// closes it.
func createClient(ctx context.Context, cmd *cobra.Command) (hexo.Client, error) {
	config := loadConfig()

	if config.APIKey == "" {
		return nil, constants.ErrNoAPIKey
	}

	if config.APISecret == "" {
		return nil, constants.ErrNoAPISecret
	}

	cache, err := cacheConfig(config.Cache)
	if err != nil {
		return nil, err
	}

	verbose := viper.GetBool("verbose")

	client, err := hexoclient.New(ctx, &hexo.Config{
		BaseURL:       config.API,
		APIKey:        config.APIKey,
		APISecret:     config.APISecret,
		Username:      config.Username,
		Password:      config.Password,
		APIVersion:    config.APIVersion,
		SkipTLSVerify: config.SkipSSLValidation,
		Debug:         verbose,
		Logger: logging.New(logging.Options{
			Out:     cmd.ErrOrStderr(),
			Verbose: verbose,
			NoColor: config.NoColor,
		}),
		Cache: cache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// cacheConfig maps the CLI cache settings onto a schema cache
// configuration. The default is a file cache in ~/.hexo/cache.
func cacheConfig(settings CacheConfig) (*hexo.SchemaCacheConfig, error) {
	config := &hexo.SchemaCacheConfig{
		Type:       hexo.CacheType(settings.Type),
		Dir:        settings.Dir,
		SQLitePath: settings.SQLitePath,
	}

	switch config.Type {
	case "", hexo.CacheTypeFile:
		config.Type = hexo.CacheTypeFile

		if config.Dir == "" {
			dir, err := configDir()
			if err != nil {
				return nil, err
			}

			config.Dir = filepath.Join(dir, constants.CacheDirName)
		}

	case hexo.CacheTypeSQLite:
		if config.SQLitePath == "" {
			dir, err := configDir()
			if err != nil {
				return nil, err
			}

			cacheDir := filepath.Join(dir, constants.CacheDirName)

			err = os.MkdirAll(cacheDir, constants.ConfigDirPerm)
			if err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}

			config.SQLitePath = filepath.Join(cacheDir, "schemas.db")
		}

	case hexo.CacheTypeNATS:
		config.NATS = &hexo.NATSKVConfig{
			URL:    settings.NATSURL,
			Bucket: settings.NATSBucket,
		}
	}

	return config, nil
}
