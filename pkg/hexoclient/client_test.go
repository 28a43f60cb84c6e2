package hexoclient_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/hexo-client/internal/apitest"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/fivetwenty-io/hexo-client/pkg/hexoclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "bare host", input: "api.hexoskin.com", want: "https://api.hexoskin.com"},
		{name: "path dropped", input: "https://api.hexoskin.com/api/v1/?x=1", want: "https://api.hexoskin.com"},
		{name: "http preserved", input: "http://localhost:8000/", want: "http://localhost:8000"},
		{name: "host with port", input: "sandbox.example.com:8443", want: "https://sandbox.example.com:8443"},
		{name: "empty", input: "  ", wantErr: hexo.ErrBaseURLRequired},
		{name: "no host", input: "https:///api/v1/", wantErr: hexo.ErrNoHostInURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := hexoclient.NormalizeBaseURL(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := hexoclient.New(context.Background(), nil)
		require.ErrorIs(t, err, hexo.ErrConfigRequired)
	})

	t.Run("does not modify the caller's config", func(t *testing.T) {
		t.Parallel()

		config := &hexo.Config{
			BaseURL:     "api.example.com/api/v1/",
			SchemaStore: hexo.NewMemoryStore(),
		}

		client, err := hexoclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "api.example.com/api/v1/", config.BaseURL)
	})

	t.Run("discovers and reads through the fake API", func(t *testing.T) {
		t.Parallel()

		server := apitest.NewServer()
		defer server.Close()

		server.AddResource("user")
		server.AddObject("user", map[string]interface{}{"username": "athlete"})

		client, err := hexoclient.New(context.Background(), &hexo.Config{
			BaseURL:     server.URL + "/ignored/path",
			APIKey:      "key",
			APISecret:   "secret",
			SchemaStore: hexo.NewMemoryStore(),
		})
		require.NoError(t, err)

		users, err := client.Resource(context.Background(), "user")
		require.NoError(t, err)

		user, err := users.Get(context.Background(), "/api/v1/user/1/")
		require.NoError(t, err)
		assert.Equal(t, "athlete", user.StringField("username"))
		assert.Equal(t, 1, server.Calls(http.MethodGet, "/api/v1/user/1/"))
	})
}

func TestNew_SkipTLSVerify(t *testing.T) {
	t.Run("refused outside development mode", func(t *testing.T) {
		t.Setenv("HEXO_DEV_MODE", "")

		_, err := hexoclient.New(context.Background(), &hexo.Config{
			BaseURL:       "https://api.example.com",
			SkipTLSVerify: true,
			SchemaStore:   hexo.NewMemoryStore(),
		})
		require.ErrorIs(t, err, hexo.ErrSkipTLSOnlyInDev)
	})

	t.Run("allowed in development mode", func(t *testing.T) {
		t.Setenv("HEXO_DEV_MODE", "1")

		client, err := hexoclient.New(context.Background(), &hexo.Config{
			BaseURL:       "https://api.example.com",
			SkipTLSVerify: true,
			SchemaStore:   hexo.NewMemoryStore(),
		})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestWidgetCreateDelete(t *testing.T) {
	t.Parallel()

	server := apitest.NewServer()
	t.Cleanup(server.Close)

	widget := server.AddResource("widget")
	widget.ListMethods = []string{"get", "post"}
	widget.DetailMethods = []string{"get", "put", "delete"}
	widget.CreateReturnsBody = true

	ctx := context.Background()

	client, err := hexoclient.New(ctx, &hexo.Config{
		BaseURL:     server.URL,
		APIKey:      "key",
		APISecret:   "secret",
		SchemaStore: hexo.NewMemoryStore(),
	})
	require.NoError(t, err)

	widgets, err := client.Resource(ctx, "widget")
	require.NoError(t, err)

	inst, err := widgets.Create(ctx, map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", inst.StringField("name"))
	assert.Equal(t, "/api/v1/widget/1/", inst.ResourceURI())

	_, err = widgets.Patch(ctx, []map[string]interface{}{{"name": "y"}})
	require.ErrorIs(t, err, hexo.ErrMethodNotAllowed)
	assert.Equal(t, 0, server.Calls(http.MethodPatch, "/api/v1/widget/"))

	require.NoError(t, inst.Delete(ctx))

	for name, value := range inst.Fields() {
		assert.Nil(t, value, "field %s", name)
	}

	assert.Empty(t, server.Objects("widget"))
	assert.Equal(t, 1, server.Calls(http.MethodDelete, "/api/v1/widget/1/"))
}
