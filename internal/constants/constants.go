package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration and cache directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and cache files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// MaxRedirects bounds how many redirects a single request may follow.
	MaxRedirects = 5
)

// Retry limits. Retries are opt-in; a zero RetryMax disables them.
const (
	// DefaultRetryWaitMin is the minimum wait between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// API conventions.
const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "https://api.hexoskin.com"

	// RootIndexPath is the top-level resource index.
	RootIndexPath = "/api/v1/"

	// ResourceURIField is the field every object carries with its own URI.
	ResourceURIField = "resource_uri"

	// SchemaCachePrefix prefixes every persisted schema cache key.
	SchemaCachePrefix = "api_stash"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "hexo-client/1.0"
)

// Request headers.
const (
	HeaderAccept       = "Accept"
	HeaderContentType  = "Content-Type"
	HeaderUserAgent    = "User-Agent"
	HeaderAPIVersion   = "X-HexoAPIVersion"
	HeaderTimestamp    = "X-HEXOTIMESTAMP"
	HeaderAPIKey       = "X-HEXOAPIKEY"
	HeaderAPISignature = "X-HEXOAPISIGNATURE"

	MediaTypeJSON = "application/json"
)

// Environment variables.
const (
	// DevModeEnv enables development-only behaviour such as skipping TLS verification.
	DevModeEnv = "HEXO_DEV_MODE"
)

// CLI constants.
const (
	// ConfigDirName is the directory under the user's home holding CLI state.
	ConfigDirName = ".hexo"

	// ConfigFileName is the CLI configuration file name.
	ConfigFileName = "config.yml"

	// CacheDirName is the schema cache directory under ConfigDirName.
	CacheDirName = "cache"

	// EnvPrefix is the viper environment prefix.
	EnvPrefix = "HEXO"

	// MinimumArgumentCount is used by commands taking KEY VALUE pairs.
	MinimumArgumentCount = 2

	// StringTruncationLimit is the number of characters kept when masking secrets.
	StringTruncationLimit = 4

	// MaxCellWidth truncates long values in table output.
	MaxCellWidth = 60
)

// UI and display constants.
const (
	// CheckMarkSymbol marks allowed methods in tables.
	CheckMarkSymbol = "✓"

	// NotAvailable is shown for missing values.
	NotAvailable = "N/A"

	// MaskedSecret replaces secrets in output.
	MaskedSecret = "***"
)

// Format constants.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// Boolean string constants.
const (
	BooleanTrue = "true"
)
