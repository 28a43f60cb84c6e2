package hexoclient

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/fivetwenty-io/hexo-client/internal/client"
	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
)

// New creates a client from config. The schema is discovered lazily on the
// first resource access unless config.DiscoverOnInit is set.
func New(ctx context.Context, config *hexo.Config) (hexo.Client, error) {
	if config == nil {
		return nil, hexo.ErrConfigRequired
	}

	normalized := *config

	if normalized.BaseURL == "" {
		normalized.BaseURL = constants.DefaultBaseURL
	}

	baseURL, err := NormalizeBaseURL(normalized.BaseURL)
	if err != nil {
		return nil, err
	}

	normalized.BaseURL = baseURL

	if normalized.SkipTLSVerify && !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set %s=true)", hexo.ErrSkipTLSOnlyInDev, constants.DevModeEnv)
	}

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithCredentials creates a client for baseURL signed with the given
// key pair.
func NewWithCredentials(ctx context.Context, baseURL, apiKey, apiSecret string) (hexo.Client, error) {
	return New(ctx, &hexo.Config{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
}

// NewWithUserAuth creates a client that also sends HTTP Basic credentials
// given as "user:password".
func NewWithUserAuth(ctx context.Context, baseURL, apiKey, apiSecret, userAuth string) (hexo.Client, error) {
	return New(ctx, &hexo.Config{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		UserAuth:  userAuth,
	})
}

// NormalizeBaseURL reduces raw to scheme and host. A missing scheme is
// taken to be https; any path, query or fragment is dropped.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", hexo.ErrBaseURLRequired
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", hexo.ErrNoHostInURL, raw)
	}

	return parsed.Scheme + "://" + parsed.Host, nil
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv(constants.DevModeEnv)

	return devMode == constants.BooleanTrue || devMode == "1"
}
