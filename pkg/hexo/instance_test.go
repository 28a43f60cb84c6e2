package hexo_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFixture(api *stubAPI) *hexo.Instance {
	records := api.register("record", allMethods, allMethods)

	return hexo.NewInstance(map[string]interface{}{
		"id":           1.0,
		"resource_uri": "/api/v1/record/1/",
		"name":         "morning",
		"user":         "/api/v1/user/3/",
	}, records)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestInstance_Dereference(t *testing.T) {
	t.Parallel()
	t.Run("embedded object of a known type becomes an instance", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		api.register("user", allMethods, allMethods)
		api.register("profile", allMethods, allMethods)
		records := api.register("record", allMethods, allMethods)

		record := hexo.NewInstance(map[string]interface{}{
			"resource_uri": "/api/v1/record/1/",
			"user": map[string]interface{}{
				"resource_uri": "/api/v1/user/3/",
				"username":     "athlete",
				"profile": map[string]interface{}{
					"resource_uri": "/api/v1/profile/3/",
				},
			},
		}, records)

		user, ok := record.Nested("user")
		require.True(t, ok)
		assert.Equal(t, "/api/v1/user/3/", user.ResourceURI())
		assert.Equal(t, "user", user.Accessor().Name())

		_, ok = user.Nested("profile")
		assert.False(t, ok)

		profile, err := user.Field("profile")
		require.NoError(t, err)
		assert.IsType(t, map[string]interface{}{}, profile)
	})

	t.Run("unknown types and plain objects stay maps", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		records := api.register("record", allMethods, allMethods)

		record := hexo.NewInstance(map[string]interface{}{
			"owner": map[string]interface{}{"resource_uri": "/api/v1/owner/1/"},
			"user":  map[string]interface{}{"username": "no uri"},
		}, records)

		_, ok := record.Nested("owner")
		assert.False(t, ok)
		_, ok = record.Nested("user")
		assert.False(t, ok)
	})
}

func TestInstance_Fields(t *testing.T) {
	t.Parallel()

	api := newStubAPI()
	record := recordFixture(api)

	value, err := record.Field("name")
	require.NoError(t, err)
	assert.Equal(t, "morning", value)
	assert.Equal(t, "morning", record.StringField("name"))
	assert.Empty(t, record.StringField("id"))

	_, err = record.Field("missing")
	require.ErrorIs(t, err, hexo.ErrAttributeNotFound)

	fields := record.Fields()
	fields["name"] = "changed"
	assert.Equal(t, "morning", record.StringField("name"))
}

func TestInstance_Set(t *testing.T) {
	t.Parallel()

	api := newStubAPI()
	users := api.register("user", allMethods, allMethods)
	record := recordFixture(api)

	other := hexo.NewInstance(map[string]interface{}{"resource_uri": "/api/v1/user/8/"}, users)

	record.Set("user", other)
	value, _ := record.Lookup("user")
	assert.Equal(t, "/api/v1/user/8/", value)

	record.Set("note", "local only")
	_, isField := record.Lookup("note")
	assert.False(t, isField)

	attr, ok := record.Attr("note")
	require.True(t, ok)
	assert.Equal(t, "local only", attr)
	assert.NotContains(t, record.Fields(), "note")
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestInstance_Update(t *testing.T) {
	t.Parallel()
	t.Run("empty response keeps old fields merged with the update", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		record := recordFixture(api)
		api.respond("PUT", "/api/v1/record/1/", 204, "")

		err := record.Update(context.Background(), map[string]interface{}{"name": "evening", "rating": 5})
		require.NoError(t, err)

		assert.Equal(t, "evening", record.StringField("name"))
		assert.Equal(t, "/api/v1/user/3/", record.StringField("user"))

		rating, err := record.Field("rating")
		require.NoError(t, err)
		assert.Equal(t, 5, rating)

		calls := api.recorded()
		require.Len(t, calls, 1)
		sent, _ := calls[0].Data.(map[string]interface{})
		assert.Equal(t, "evening", sent["name"])
		assert.NotContains(t, sent, "rating")
	})

	t.Run("object response replaces the fields", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		record := recordFixture(api)
		api.respond("PUT", "/api/v1/record/1/", 200, `{"resource_uri": "/api/v1/record/1/", "name": "server"}`)

		err := record.Update(context.Background(), map[string]interface{}{"name": "evening"})
		require.NoError(t, err)

		assert.Equal(t, "server", record.StringField("name"))
		_, ok := record.Lookup("user")
		assert.False(t, ok)
	})

	t.Run("large integer ids survive the round trip", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		records := api.register("record", allMethods, allMethods)
		api.respond("GET", "/api/v1/record/1/", 200,
			`{"id": 9007199254740993, "resource_uri": "/api/v1/record/1/", "name": "morning"}`)
		api.respond("PUT", "/api/v1/record/1/", 204, "")

		record, err := records.GetByID(context.Background(), 1)
		require.NoError(t, err)
		require.NoError(t, record.Update(context.Background(), nil))

		calls := api.recorded()
		require.Len(t, calls, 2)

		sent, err := json.Marshal(calls[1].Data)
		require.NoError(t, err)
		assert.Contains(t, string(sent), `"id":9007199254740993`)
	})

	t.Run("requires a resource URI", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		records := api.register("record", allMethods, allMethods)
		record := hexo.NewInstance(map[string]interface{}{"name": "x"}, records)

		err := record.Update(context.Background(), nil)
		require.ErrorIs(t, err, hexo.ErrMissingURI)
		assert.Empty(t, api.recorded())
	})

	t.Run("disallowed put sends nothing", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		records := api.register("record", allMethods, []string{"get"})
		record := hexo.NewInstance(map[string]interface{}{"resource_uri": "/api/v1/record/1/"}, records)

		err := record.Update(context.Background(), map[string]interface{}{"name": "x"})
		require.ErrorIs(t, err, hexo.ErrMethodNotAllowed)
		assert.Empty(t, api.recorded())
	})
}

func TestInstance_Delete(t *testing.T) {
	t.Parallel()
	t.Run("every field becomes nil", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		record := recordFixture(api)
		api.respond("DELETE", "/api/v1/record/1/", 204, "")

		require.NoError(t, record.Delete(context.Background()))

		for name, value := range record.Fields() {
			assert.Nil(t, value, name)
		}

		assert.Len(t, record.Fields(), 4)
	})

	t.Run("server failure leaves fields intact", func(t *testing.T) {
		t.Parallel()

		api := newStubAPI()
		record := recordFixture(api)
		api.respond("DELETE", "/api/v1/record/1/", 500, "")

		err := record.Delete(context.Background())
		require.ErrorIs(t, err, hexo.ErrInternalServerError)
		assert.Equal(t, "morning", record.StringField("name"))
	})
}

func TestInstance_Decode(t *testing.T) {
	t.Parallel()

	api := newStubAPI()
	api.register("user", allMethods, allMethods)
	records := api.register("record", allMethods, allMethods)

	record := hexo.NewInstance(map[string]interface{}{
		"id":           12.0,
		"resource_uri": "/api/v1/record/12/",
		"start":        "1500000000",
		"user": map[string]interface{}{
			"resource_uri": "/api/v1/user/3/",
			"username":     "athlete",
		},
	}, records)

	var flat struct {
		ID    int    `json:"id"`
		Start int64  `json:"start"`
		User  string `json:"user"`
	}

	require.NoError(t, record.Decode(&flat))
	assert.Equal(t, 12, flat.ID)
	assert.Equal(t, int64(1500000000), flat.Start)
	assert.Equal(t, "/api/v1/user/3/", flat.User)

	var nested struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}

	require.NoError(t, record.Decode(&nested))
	assert.Equal(t, "athlete", nested.User.Username)
}

func TestInstance_MarshalJSON(t *testing.T) {
	t.Parallel()

	api := newStubAPI()
	record := recordFixture(api)
	record.Set("note", "local")

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"resource_uri":"/api/v1/record/1/","name":"morning","user":"/api/v1/user/3/"}`, string(data))
}
