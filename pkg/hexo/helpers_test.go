package hexo_test

import (
	"context"
	"net/url"
	"sync"

	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
)

// call is one request seen by stubAPI.
type call struct {
	Method string
	Path   string
	Params url.Values
	Data   interface{}
}

// stubAPI is an in-memory hexo.API with canned responses keyed by
// "METHOD path". Unmatched requests answer 200 with an empty body.
type stubAPI struct {
	mutex     sync.Mutex
	calls     []call
	responses map[string]*hexo.Response
	accessors map[string]*hexo.Accessor
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		responses: make(map[string]*hexo.Response),
		accessors: make(map[string]*hexo.Accessor),
	}
}

var allMethods = []string{"get", "post", "put", "patch", "delete"}

// register adds a resource whose list endpoint is /api/v1/<name>/.
func (s *stubAPI) register(name string, listMethods, detailMethods []string) *hexo.Accessor {
	descriptor, err := hexo.NewDescriptor(name, "/api/v1/"+name+"/", "/api/v1/"+name+"/schema/", map[string]interface{}{
		"allowed_list_http_methods":   listMethods,
		"allowed_detail_http_methods": detailMethods,
	})
	if err != nil {
		panic(err)
	}

	accessor := hexo.NewAccessor(descriptor, s)

	s.mutex.Lock()
	s.accessors[name] = accessor
	s.mutex.Unlock()

	return accessor
}

func (s *stubAPI) respond(method, path string, status int, body string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.responses[method+" "+path] = hexo.NewResponse(method, path, status, nil, []byte(body))
}

func (s *stubAPI) recorded() []call {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]call(nil), s.calls...)
}

func (s *stubAPI) do(method, path string, params url.Values, data interface{}) (*hexo.Response, error) {
	s.mutex.Lock()
	s.calls = append(s.calls, call{Method: method, Path: path, Params: params, Data: data})
	resp, ok := s.responses[method+" "+path]
	s.mutex.Unlock()

	if !ok {
		resp = hexo.NewResponse(method, path, 200, nil, nil)
	}

	if resp.StatusCode >= 400 {
		return resp, hexo.NewHTTPError(resp)
	}

	return resp, nil
}

func (s *stubAPI) Get(_ context.Context, path string, params url.Values) (*hexo.Response, error) {
	return s.do("GET", path, params, nil)
}

func (s *stubAPI) Post(_ context.Context, path string, data interface{}) (*hexo.Response, error) {
	return s.do("POST", path, nil, data)
}

func (s *stubAPI) Put(_ context.Context, path string, data interface{}) (*hexo.Response, error) {
	return s.do("PUT", path, nil, data)
}

func (s *stubAPI) Patch(_ context.Context, path string, data interface{}) (*hexo.Response, error) {
	return s.do("PATCH", path, nil, data)
}

func (s *stubAPI) Delete(_ context.Context, path string) (*hexo.Response, error) {
	return s.do("DELETE", path, nil, nil)
}

func (s *stubAPI) ConvertInstances(values map[string]interface{}) map[string]interface{} {
	return hexo.ConvertInstances(values, func(name string) bool {
		_, ok := s.KnownAccessor(name)

		return ok
	})
}

func (s *stubAPI) KnownAccessor(name string) (*hexo.Accessor, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	accessor, ok := s.accessors[name]

	return accessor, ok
}
