package hexo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageBody renders a list page holding ids with the given cursors.
func pageBody(ids []int, next, previous string, total int) string {
	objects := make([]string, 0, len(ids))
	for _, id := range ids {
		objects = append(objects, fmt.Sprintf(`{"id": %d, "resource_uri": "/api/v1/record/%d/"}`, id, id))
	}

	cursor := func(value string) string {
		if value == "" {
			return "null"
		}

		return `"` + value + `"`
	}

	return fmt.Sprintf(`{"meta": {"next": %s, "previous": %s, "total_count": %d}, "objects": [%s]}`,
		cursor(next), cursor(previous), total, strings.Join(objects, ","))
}

const (
	page2 = "/api/v1/record/?limit=2&offset=2"
	page3 = "/api/v1/record/?limit=2&offset=4"
)

// threePages serves ids 1..5 over three pages.
func threePages(t *testing.T) (*stubAPI, *hexo.List) {
	t.Helper()

	api := newStubAPI()
	records := api.register("record", allMethods, allMethods)

	api.respond("GET", "/api/v1/record/", 200, pageBody([]int{1, 2}, page2, "", 5))
	api.respond("GET", page2, 200, pageBody([]int{3, 4}, page3, "/api/v1/record/?limit=2&offset=0", 5))
	api.respond("GET", page3, 200, pageBody([]int{5}, "", page2, 5))

	list, err := records.List(context.Background(), nil)
	require.NoError(t, err)

	return api, list
}

func ids(t *testing.T, instances []*hexo.Instance) []int64 {
	t.Helper()

	out := make([]int64, 0, len(instances))
	for _, inst := range instances {
		value, err := inst.Field("id")
		require.NoError(t, err)

		id, err := value.(json.Number).Int64() //nolint:forcetypeassert
		require.NoError(t, err)

		out = append(out, id)
	}

	return out
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestList_Advance(t *testing.T) {
	t.Parallel()
	t.Run("appends pages until the end", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)

		assert.Equal(t, 2, list.Len())
		assert.True(t, list.HasNext())
		assert.False(t, list.HasPrev())

		require.NoError(t, list.Advance(context.Background()))
		assert.Equal(t, 4, list.Len())

		require.NoError(t, list.Advance(context.Background()))
		assert.Equal(t, 5, list.Len())
		assert.False(t, list.HasNext())

		err := list.Advance(context.Background())
		require.ErrorIs(t, err, hexo.ErrEndOfSequence)

		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, list.Objects()))
		assert.Len(t, api.recorded(), 3)
	})

	t.Run("fetch failure leaves the list unchanged", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)
		api.respond("GET", page2, 500, "")

		err := list.Advance(context.Background())
		require.ErrorIs(t, err, hexo.ErrInternalServerError)
		assert.Equal(t, 2, list.Len())
		assert.True(t, list.HasNext())
	})
}

func TestList_Retreat(t *testing.T) {
	t.Parallel()

	api := newStubAPI()
	records := api.register("record", allMethods, allMethods)

	api.respond("GET", "/api/v1/record/", 200, `{"meta": {"next": null, "prev": "/api/v1/record/?offset=0"}, "objects": [{"id": 3}]}`)
	api.respond("GET", "/api/v1/record/?offset=0", 200, pageBody([]int{1, 2}, "/api/v1/record/", "", 3))

	list, err := records.List(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, list.HasPrev())

	require.NoError(t, list.Retreat(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, ids(t, list.Objects()))
	assert.False(t, list.HasPrev())
	assert.False(t, list.HasNext())

	require.ErrorIs(t, list.Retreat(context.Background()), hexo.ErrStartOfSequence)
}

func TestList_Accessors(t *testing.T) {
	t.Parallel()

	_, list := threePages(t)

	first, err := list.At(0)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/record/1/", first.ResourceURI())

	_, err = list.At(2)
	require.ErrorIs(t, err, hexo.ErrIndexOutOfRange)

	_, err = list.At(-1)
	require.ErrorIs(t, err, hexo.ErrIndexOutOfRange)

	meta, ok := list.Lookup("meta")
	require.True(t, ok)
	assert.Equal(t, list.Meta(), meta)

	total, ok := list.TotalCount()
	require.True(t, ok)
	assert.Equal(t, 5, total)

	_, ok = list.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, "record", list.Accessor().Name())
	assert.Equal(t, 200, list.Response().StatusCode)
}

func TestList_DeleteAt(t *testing.T) {
	t.Parallel()
	t.Run("removes after the server confirms", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)
		api.respond("DELETE", "/api/v1/record/1/", 204, "")

		require.NoError(t, list.DeleteAt(context.Background(), 0))
		assert.Equal(t, []int64{2}, ids(t, list.Objects()))

		calls := api.recorded()
		require.Len(t, calls, 2)
		assert.Equal(t, "DELETE", calls[1].Method)
		assert.Equal(t, "/api/v1/record/1/", calls[1].Path)
	})

	t.Run("keeps the object when the server refuses", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)
		api.respond("DELETE", "/api/v1/record/2/", 403, "")

		err := list.DeleteAt(context.Background(), 1)
		require.ErrorIs(t, err, hexo.ErrForbidden)
		assert.Equal(t, 2, list.Len())

		kept, err := list.At(1)
		require.NoError(t, err)

		id, err := kept.Field("id")
		require.NoError(t, err)
		assert.Equal(t, json.Number("2"), id)
		assert.Equal(t, "/api/v1/record/2/", kept.ResourceURI())
	})

	t.Run("index out of range sends nothing", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)

		require.ErrorIs(t, list.DeleteAt(context.Background(), 9), hexo.ErrIndexOutOfRange)
		assert.Len(t, api.recorded(), 1)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestList_Iteration(t *testing.T) {
	t.Parallel()
	t.Run("iterator fetches pages on demand", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)
		it := list.Iterator(context.Background())

		var seen []*hexo.Instance

		for it.HasNext() {
			inst, err := it.Next()
			require.NoError(t, err)

			seen = append(seen, inst)
		}

		require.NoError(t, it.Err())
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(t, seen))
		assert.Len(t, api.recorded(), 3)

		_, err := it.Next()
		require.ErrorIs(t, err, hexo.ErrEndOfSequence)
	})

	t.Run("iterators restart from the first held object", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)

		_, err := list.All(context.Background())
		require.NoError(t, err)

		count := 0
		for inst, err := range list.Seq(context.Background()) {
			require.NoError(t, err)
			require.NotNil(t, inst)

			count++
		}

		assert.Equal(t, 5, count)
		assert.Len(t, api.recorded(), 3)
	})

	t.Run("seq yields the fetch error last", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)
		api.respond("GET", page3, 502, "")

		var (
			count   int
			lastErr error
		)

		for inst, err := range list.Seq(context.Background()) {
			if err != nil {
				lastErr = err

				continue
			}

			require.NotNil(t, inst)
			count++
		}

		assert.Equal(t, 4, count)
		require.ErrorIs(t, lastErr, hexo.ErrHTTP)
	})

	t.Run("seq stops when the consumer breaks", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)

		for range list.Seq(context.Background()) {
			break
		}

		assert.Len(t, api.recorded(), 1)
	})

	t.Run("all surfaces fetch errors", func(t *testing.T) {
		t.Parallel()

		api, list := threePages(t)
		api.respond("GET", page2, 401, "")

		_, err := list.All(context.Background())
		require.ErrorIs(t, err, hexo.ErrUnauthorized)
	})
}
