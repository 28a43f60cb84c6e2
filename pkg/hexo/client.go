package hexo

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired   = errors.New("config is required")
	ErrBaseURLRequired  = errors.New("base URL is required")
	ErrNoHostInURL      = errors.New("no host specified in URL")
	ErrSkipTLSOnlyInDev = errors.New("skipTLS is only allowed in development environments")
)

// API is the request surface accessors, lists and instances depend on.
// Paths may be host-relative ("/api/v1/user/") or absolute URLs as returned
// in pagination cursors.
type API interface {
	Get(ctx context.Context, path string, params url.Values) (*Response, error)
	Post(ctx context.Context, path string, data interface{}) (*Response, error)
	Put(ctx context.Context, path string, data interface{}) (*Response, error)
	Patch(ctx context.Context, path string, data interface{}) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)

	// ConvertInstances replaces Instance values of known resource types with
	// their resource URI. Other values pass through unchanged.
	ConvertInstances(values map[string]interface{}) map[string]interface{}

	// KnownAccessor returns the accessor for an already discovered resource
	// without triggering discovery.
	KnownAccessor(name string) (*Accessor, bool)
}

// Client is a discovered API: an API plus resource lookup.
type Client interface {
	API

	// Resource returns the accessor for name, discovering the schema first
	// if it has not been loaded yet.
	Resource(ctx context.Context, name string) (*Accessor, error)

	// Resources returns the sorted names of every discovered resource.
	Resources(ctx context.Context) ([]string, error)

	// Descriptor returns the discovered descriptor for name.
	Descriptor(ctx context.Context, name string) (*Descriptor, error)

	// ClearResourceCache deletes the persisted schema and forgets every
	// descriptor and accessor so the next access rediscovers.
	ClearResourceCache(ctx context.Context) error

	// Close releases the schema store when the client built it from Cache.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a hexo.Client.
//
// # Authentication
//
// Every request is signed with APIKey and APISecret. When Username and
// Password (or UserAuth in "user:password" form) are also set, HTTP Basic
// credentials are sent alongside the signature headers.
//
// # Schema cache
//
// Discovered descriptors are persisted through SchemaStore. When SchemaStore
// is nil a store is built from Cache; when both are nil the descriptors are
// written to a file in the working directory.
//
// # Timeouts, retries, and TLS
//
// Per-request cancellation is controlled via the context passed to client
// methods. Retries are disabled unless RetryMax is positive. SkipTLSVerify is
// only honored when the environment variable HEXO_DEV_MODE is set to "true"
// or "1".
type Config struct {
	// BaseURL: API host, e.g. "https://api.hexoskin.com". Only scheme and
	// host are kept; "https://" is assumed when no scheme is present.
	BaseURL string

	// APIKey: public key sent in the X-HEXOAPIKEY header.
	APIKey string
	// APISecret: shared secret used to compute request signatures.
	APISecret string
	// Username and Password: optional HTTP Basic credentials.
	Username string
	Password string
	// UserAuth: optional "user:password" shorthand for Username/Password.
	UserAuth string

	// APIVersion: sent as X-HexoAPIVersion when set; part of the cache key.
	APIVersion string

	// HTTPTimeout: overall timeout per HTTP attempt. Zero uses the default.
	HTTPTimeout time.Duration
	// RetryMax: retries for transient failures (>=500, 429, connection
	// errors). Zero disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration

	// SkipTLSVerify: skip certificate verification (development only).
	SkipTLSVerify bool
	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Interceptors: optional hooks run around every request.
	Interceptors *InterceptorChain

	// SchemaStore: explicit schema cache backend. Takes precedence over Cache.
	SchemaStore SchemaStore
	// Cache: schema cache backend configuration used when SchemaStore is nil.
	Cache *SchemaCacheConfig

	// DiscoverOnInit: when true the schema is discovered while the client
	// is constructed instead of on first resource access.
	DiscoverOnInit bool
}
