package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/pkg/hexoclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
//
//nolint:funlen
func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the API",
		Long: `Store API credentials after checking them against the resource index.

The endpoint, key and secret come from --api, --api-key and --api-secret, the
HEXO_* environment or the configuration file, and are prompted for when missing.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			config := loadConfig()

			apiEndpoint := firstNonEmpty(config.API, constants.DefaultBaseURL)
			apiKey := config.APIKey
			apiSecret := config.APISecret
			username = firstNonEmpty(username, config.Username)

			var err error

			if apiKey == "" {
				apiKey, err = prompt(cmd, reader, "API key: ")
				if err != nil {
					return err
				}
			}

			if apiSecret == "" {
				apiSecret, err = promptSecret(cmd, reader, "API secret: ")
				if err != nil {
					return err
				}
			}

			if username == "" {
				username, err = prompt(cmd, reader, "Username (leave empty to sign requests only): ")
				if err != nil {
					return err
				}
			}

			if username == "" && password != "" {
				return constants.ErrUsernameRequired
			}

			if username != "" && password == "" {
				password, err = promptSecret(cmd, reader, "Password: ")
				if err != nil {
					return err
				}
			}

			endpoint, err := hexoclient.NormalizeBaseURL(apiEndpoint)
			if err != nil {
				return fmt.Errorf("invalid API endpoint: %w", err)
			}

			config.API = endpoint
			config.APIKey = apiKey
			config.APISecret = apiSecret
			config.Username = username
			config.Password = password

			for key, value := range map[string]string{
				"api":        endpoint,
				"api_key":    apiKey,
				"api_secret": apiSecret,
				"username":   username,
				"password":   password,
			} {
				viper.Set(key, value)
			}

			ctx := cmd.Context()

			client, err := createClient(ctx, cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			// Rediscover so the cached schema matches these credentials.
			err = client.ClearResourceCache(ctx)
			if err != nil {
				printWarning(cmd, "could not clear schema cache: %v", err)
			}

			names, err := client.Resources(ctx)
			if err != nil {
				return fmt.Errorf("failed to connect to API: %w", err)
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			printSuccess(cmd, "Successfully logged in to %s", endpoint)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d resources available, run 'hexo resources' to list them\n", len(names))

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username for HTTP Basic authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for HTTP Basic authentication")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out from the API",
		Long:  "Remove stored credentials from the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.APIKey = ""
			config.APISecret = ""
			config.Username = ""
			config.Password = ""

			for _, key := range []string{"api_key", "api_secret", "username", "password"} {
				viper.Set(key, "")
			}

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			printSuccess(cmd, "Successfully logged out")

			return nil
		},
	}
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), label)

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo on a terminal and falls back to a plain
// line read otherwise.
func promptSecret(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	file, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) { //nolint:gosec
		return prompt(cmd, reader, label)
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), label)

	secret, err := term.ReadPassword(int(file.Fd())) //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	return string(secret), nil
}

func confirm(cmd *cobra.Command, question string) bool {
	answer, err := prompt(cmd, bufio.NewReader(cmd.InOrStdin()), question+" [y/N]: ")
	if err != nil {
		return false
	}

	answer = strings.ToLower(answer)

	return answer == "y" || answer == "yes"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
