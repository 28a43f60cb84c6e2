package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fivetwenty-io/hexo-client/internal/auth"
	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/internal/http"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
)

// Static errors for err113 compliance.
var (
	ErrBaseURLRequired   = errors.New("base URL is required")
	ErrInvalidRootIndex  = errors.New("root index is not a JSON object")
	ErrInvalidIndexEntry = errors.New("root index entry is missing schema or list_endpoint")
)

// Client implements the hexo.Client interface.
type Client struct {
	httpClient *http.Client
	store      hexo.SchemaStore
	ownsStore  bool
	cacheKey   string
	baseURL    string
	logger     hexo.Logger

	mutex       sync.Mutex
	loaded      bool
	descriptors map[string]*hexo.Descriptor
	accessors   map[string]*hexo.Accessor
}

// createSigner builds the request signer from config.
func createSigner(config *hexo.Config) (*auth.Signer, error) {
	username, password := config.Username, config.Password

	if config.UserAuth != "" {
		var err error

		username, password, err = auth.ParseUserAuth(config.UserAuth)
		if err != nil {
			return nil, fmt.Errorf("parsing user auth: %w", err)
		}
	}

	var opts []auth.Option
	if username != "" && password != "" {
		opts = append(opts, auth.WithBasicAuth(username, password))
	}

	return auth.NewSigner(config.APIKey, config.APISecret, opts...), nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *hexo.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.APIVersion != "" {
		httpOpts = append(httpOpts, http.WithAPIVersion(config.APIVersion))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.SkipTLSVerify {
		httpOpts = append(httpOpts, http.WithSkipTLSVerify(true))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createStore returns the configured schema store and whether the client
// owns it.
func createStore(ctx context.Context, config *hexo.Config) (hexo.SchemaStore, bool, error) {
	if config.SchemaStore != nil {
		return config.SchemaStore, false, nil
	}

	cacheConfig := config.Cache
	if cacheConfig == nil {
		cacheConfig = hexo.DefaultSchemaCacheConfig()
	}

	store, err := hexo.NewSchemaStoreFromConfig(ctx, cacheConfig)
	if err != nil {
		return nil, false, fmt.Errorf("creating schema store: %w", err)
	}

	return store, true, nil
}

// New creates a client for an already normalized config.BaseURL.
func New(ctx context.Context, config *hexo.Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	signer, err := createSigner(config)
	if err != nil {
		return nil, err
	}

	store, ownsStore, err := createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:  http.NewClient(config.BaseURL, signer, createHTTPClientOptions(config)...),
		store:       store,
		ownsStore:   ownsStore,
		cacheKey:    hexo.SchemaCacheKey(config.BaseURL, config.APIVersion),
		baseURL:     config.BaseURL,
		logger:      config.Logger,
		descriptors: make(map[string]*hexo.Descriptor),
		accessors:   make(map[string]*hexo.Accessor),
	}

	if config.DiscoverOnInit {
		err = client.ensureDiscovered(ctx)
		if err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("discovering resources: %w", err)
		}
	}

	return client, nil
}

// BaseURL returns the normalized API host.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CacheKey returns the schema cache key for this host and API version.
func (c *Client) CacheKey() string {
	return c.cacheKey
}

// Resource implements hexo.Client.Resource.
func (c *Client) Resource(ctx context.Context, name string) (*hexo.Accessor, error) {
	err := c.ensureDiscovered(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering resources: %w", err)
	}

	accessor, ok := c.KnownAccessor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", hexo.ErrUnknownResource, name)
	}

	return accessor, nil
}

// Resources implements hexo.Client.Resources.
func (c *Client) Resources(ctx context.Context) ([]string, error) {
	err := c.ensureDiscovered(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering resources: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	names := make([]string, 0, len(c.descriptors))
	for name := range c.descriptors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// Descriptor implements hexo.Client.Descriptor.
func (c *Client) Descriptor(ctx context.Context, name string) (*hexo.Descriptor, error) {
	err := c.ensureDiscovered(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering resources: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	descriptor, ok := c.descriptors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", hexo.ErrUnknownResource, name)
	}

	return descriptor, nil
}

// KnownAccessor implements hexo.API.KnownAccessor.
func (c *Client) KnownAccessor(name string) (*hexo.Accessor, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if accessor, ok := c.accessors[name]; ok {
		return accessor, true
	}

	descriptor, ok := c.descriptors[name]
	if !ok {
		return nil, false
	}

	accessor := hexo.NewAccessor(descriptor, c)
	c.accessors[name] = accessor

	return accessor, true
}

// ConvertInstances implements hexo.API.ConvertInstances.
func (c *Client) ConvertInstances(values map[string]interface{}) map[string]interface{} {
	return hexo.ConvertInstances(values, c.isKnown)
}

func (c *Client) isKnown(name string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, ok := c.descriptors[name]

	return ok
}

// ClearResourceCache implements hexo.Client.ClearResourceCache.
func (c *Client) ClearResourceCache(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.loaded = false
	c.descriptors = make(map[string]*hexo.Descriptor)
	c.accessors = make(map[string]*hexo.Accessor)

	err := c.store.Delete(ctx, c.cacheKey)
	if err != nil {
		return fmt.Errorf("clearing schema cache: %w", err)
	}

	return nil
}

// Close implements hexo.Client.Close.
func (c *Client) Close() error {
	if !c.ownsStore {
		return nil
	}

	if closer, ok := c.store.(io.Closer); ok {
		err := closer.Close()
		if err != nil {
			return fmt.Errorf("closing schema store: %w", err)
		}
	}

	return nil
}

// Get implements hexo.API.Get.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*hexo.Response, error) {
	return c.httpClient.Get(ctx, path, params)
}

// Post implements hexo.API.Post.
func (c *Client) Post(ctx context.Context, path string, data interface{}) (*hexo.Response, error) {
	return c.httpClient.Post(ctx, path, data)
}

// Put implements hexo.API.Put.
func (c *Client) Put(ctx context.Context, path string, data interface{}) (*hexo.Response, error) {
	return c.httpClient.Put(ctx, path, data)
}

// Patch implements hexo.API.Patch.
func (c *Client) Patch(ctx context.Context, path string, data interface{}) (*hexo.Response, error) {
	return c.httpClient.Patch(ctx, path, data)
}

// Delete implements hexo.API.Delete.
func (c *Client) Delete(ctx context.Context, path string) (*hexo.Response, error) {
	return c.httpClient.Delete(ctx, path)
}

// ensureDiscovered loads descriptors from the store, falling back to the
// API. Concurrent callers wait for a single discovery.
func (c *Client) ensureDiscovered(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.loaded {
		return nil
	}

	descriptors, hit, err := c.store.Load(ctx, c.cacheKey)
	if err != nil {
		c.warn("Failed to load schema cache", map[string]interface{}{
			"cache_key": c.cacheKey,
			"error":     err.Error(),
		})
	}

	if err == nil && hit {
		c.debug("Schema cache hit", map[string]interface{}{
			"cache_key": c.cacheKey,
			"resources": len(descriptors),
		})

		c.descriptors = descriptors
		c.loaded = true

		return nil
	}

	c.debug("Schema cache miss", map[string]interface{}{"cache_key": c.cacheKey})

	descriptors, err = c.fetchResourceList(ctx)
	if err != nil {
		return err
	}

	err = c.store.Save(ctx, c.cacheKey, descriptors)
	if err != nil {
		c.warn("Failed to write schema cache", map[string]interface{}{
			"cache_key": c.cacheKey,
			"error":     err.Error(),
		})
	}

	c.descriptors = descriptors
	c.loaded = true

	return nil
}

// fetchResourceList reads the root index and every resource schema.
func (c *Client) fetchResourceList(ctx context.Context) (map[string]*hexo.Descriptor, error) {
	start := time.Now()

	resp, err := c.httpClient.Get(ctx, constants.RootIndexPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching root index: %w", err)
	}

	index, ok := resp.Object()
	if !ok {
		return nil, ErrInvalidRootIndex
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}

	slices.Sort(names)

	descriptors := make(map[string]*hexo.Descriptor, len(names))

	for _, name := range names {
		entry, _ := index[name].(map[string]interface{})
		schemaURL, _ := entry["schema"].(string)
		listEndpoint, _ := entry["list_endpoint"].(string)

		if schemaURL == "" || listEndpoint == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidIndexEntry, name)
		}

		schemaResp, err := c.httpClient.Get(ctx, schemaURL, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching schema for %s: %w", name, err)
		}

		doc, ok := schemaResp.Object()
		if !ok {
			return nil, fmt.Errorf("%w for %s", hexo.ErrInvalidSchema, name)
		}

		descriptor, err := hexo.NewDescriptor(name, listEndpoint, schemaURL, doc)
		if err != nil {
			return nil, err
		}

		descriptors[name] = descriptor
	}

	c.debug("Discovered resources", map[string]interface{}{
		"resources": len(descriptors),
		"duration":  time.Since(start).String(),
	})

	return descriptors, nil
}

func (c *Client) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Client) warn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}
