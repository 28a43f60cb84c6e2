// Package apitest provides an in-process fake of the schema-driven API for
// tests: a root index, schema documents, paginated lists and detail
// objects, with per-route call counters.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultPageSize is the page size used when a resource sets none.
const DefaultPageSize = 20

// Resource is one fake resource type.
type Resource struct {
	Name          string
	ListMethods   []string
	DetailMethods []string
	Fields        map[string]interface{}
	Filtering     map[string]interface{}
	PageSize      int

	// UpdateReturnsBody makes PUT answer 200 with the stored object instead
	// of 204 with an empty body.
	UpdateReturnsBody bool
	// CreateReturnsBody makes POST answer 201 with the stored object.
	CreateReturnsBody bool

	objects []map[string]interface{}
	nextID  int
}

// ListEndpoint returns the host-relative list URL.
func (r *Resource) ListEndpoint() string {
	return "/api/v1/" + r.Name + "/"
}

// SchemaURL returns the host-relative schema URL.
func (r *Resource) SchemaURL() string {
	return r.ListEndpoint() + "schema/"
}

// DetailURI returns the resource_uri for id.
func (r *Resource) DetailURI(id int) string {
	return r.ListEndpoint() + strconv.Itoa(id) + "/"
}

// Server is a fake API backed by httptest.
type Server struct {
	*httptest.Server

	mutex     sync.Mutex
	resources map[string]*Resource
	calls     map[string]int
	overrides map[string]http.HandlerFunc
}

// NewServer starts a fake API with no resources.
func NewServer() *Server {
	server := &Server{
		resources: make(map[string]*Resource),
		calls:     make(map[string]int),
		overrides: make(map[string]http.HandlerFunc),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(server.countCalls)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/", server.rootIndex)
		r.Get("/{resource}/schema/", server.schema)
		r.Get("/{resource}/", server.list)
		r.Post("/{resource}/", server.create)
		r.Patch("/{resource}/", server.patch)
		r.Get("/{resource}/{id}/", server.detail)
		r.Put("/{resource}/{id}/", server.update)
		r.Delete("/{resource}/{id}/", server.remove)
	})

	server.Server = httptest.NewServer(router)

	return server
}

// AddResource registers a resource allowing every method unless the
// caller restricts ListMethods or DetailMethods afterwards.
func (s *Server) AddResource(name string) *Resource {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	resource := &Resource{
		Name:          name,
		ListMethods:   []string{"get", "post", "patch"},
		DetailMethods: []string{"get", "put", "delete"},
		Fields:        map[string]interface{}{},
		Filtering:     map[string]interface{}{},
		PageSize:      DefaultPageSize,
		nextID:        1,
	}
	s.resources[name] = resource

	return resource
}

// Resource returns a registered resource for adjustment before the first
// request.
func (s *Server) Resource(name string) *Resource {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.resources[name]
}

// AddObject stores obj under resource, assigning id and resource_uri when
// absent, and returns the stored copy.
func (s *Server) AddObject(name string, obj map[string]interface{}) map[string]interface{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.resources[name].store(obj)
}

// Objects returns a copy of the stored objects of resource.
func (s *Server) Objects(name string) []map[string]interface{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return slices.Clone(s.resources[name].objects)
}

// Override replaces the handler for an exact method and path.
func (s *Server) Override(method, path string, handler http.HandlerFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.overrides[method+" "+path] = handler
}

// Calls returns how many requests hit method and path.
func (s *Server) Calls(method, path string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	total := 0
	for _, count := range s.calls {
		total += count
	}

	return total
}

// ResetCalls zeroes every counter.
func (s *Server) ResetCalls() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.calls = make(map[string]int)
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mutex.Lock()
		s.calls[key]++
		override := s.overrides[key]
		s.mutex.Unlock()

		if override != nil {
			override(w, r)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rootIndex(w http.ResponseWriter, _ *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	index := make(map[string]interface{}, len(s.resources))
	for name, resource := range s.resources {
		index[name] = map[string]interface{}{
			"list_endpoint": resource.ListEndpoint(),
			"schema":        resource.SchemaURL(),
		}
	}

	writeJSON(w, http.StatusOK, index)
}

func (s *Server) schema(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"allowed_list_http_methods":   resource.ListMethods,
		"allowed_detail_http_methods": resource.DetailMethods,
		"fields":                      resource.Fields,
		"filtering":                   resource.Filtering,
		"default_limit":               resource.PageSize,
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	limit := intParam(query, "limit", resource.PageSize)
	offset, _ := strconv.Atoi(query.Get("offset"))
	offset = max(offset, 0)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	matched := make([]map[string]interface{}, 0, len(resource.objects))

	for _, obj := range resource.objects {
		if matches(obj, query) {
			matched = append(matched, obj)
		}
	}

	end := min(offset+limit, len(matched))
	start := min(offset, end)

	meta := map[string]interface{}{
		"limit":       limit,
		"offset":      offset,
		"total_count": len(matched),
		"next":        nil,
		"previous":    nil,
	}

	if end < len(matched) {
		meta["next"] = pageURL(resource, query, end, limit)
	}

	if start > 0 {
		meta["previous"] = pageURL(resource, query, max(start-limit, 0), limit)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta":    meta,
		"objects": matched[start:end],
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body map[string]interface{}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	s.mutex.Lock()
	stored := resource.store(body)
	returnsBody := resource.CreateReturnsBody
	s.mutex.Unlock()

	w.Header().Set("Location", stored["resource_uri"].(string)) //nolint:forcetypeassert

	if returnsBody {
		writeJSON(w, http.StatusCreated, stored)

		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body struct {
		Objects []map[string]interface{} `json:"objects"`
	}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	s.mutex.Lock()
	for _, obj := range body.Objects {
		resource.store(obj)
	}
	s.mutex.Unlock()

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	index := resource.indexOf(chi.URLParam(r, "id"))
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})

		return
	}

	writeJSON(w, http.StatusOK, resource.objects[index])
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body map[string]interface{}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})

		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	index := resource.indexOf(chi.URLParam(r, "id"))
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})

		return
	}

	updated := make(map[string]interface{}, len(body))
	for key, value := range body {
		updated[key] = value
	}

	updated["id"] = resource.objects[index]["id"]
	updated["resource_uri"] = resource.objects[index]["resource_uri"]
	resource.objects[index] = updated

	if resource.UpdateReturnsBody {
		writeJSON(w, http.StatusOK, updated)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	resource, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	index := resource.indexOf(chi.URLParam(r, "id"))
	if index < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})

		return
	}

	resource.objects = slices.Delete(resource.objects, index, index+1)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Resource, bool) {
	name := chi.URLParam(r, "resource")

	s.mutex.Lock()
	resource, ok := s.resources[name]
	s.mutex.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource " + name})

		return nil, false
	}

	return resource, true
}

func (r *Resource) store(obj map[string]interface{}) map[string]interface{} {
	stored := make(map[string]interface{}, len(obj)+2)
	for key, value := range obj {
		stored[key] = value
	}

	if _, ok := stored["id"]; !ok {
		stored["id"] = r.nextID
		r.nextID++
	}

	if _, ok := stored["resource_uri"]; !ok {
		stored["resource_uri"] = r.ListEndpoint() + fmt.Sprint(stored["id"]) + "/"
	}

	r.objects = append(r.objects, stored)

	return stored
}

func (r *Resource) indexOf(id string) int {
	return slices.IndexFunc(r.objects, func(obj map[string]interface{}) bool {
		return fmt.Sprint(obj["id"]) == id
	})
}

func matches(obj map[string]interface{}, query url.Values) bool {
	for key, values := range query {
		if key == "limit" || key == "offset" {
			continue
		}

		if !slices.Contains(values, fmt.Sprint(obj[key])) {
			return false
		}
	}

	return true
}

func pageURL(resource *Resource, query url.Values, offset, limit int) string {
	params := url.Values{}
	for key, values := range query {
		params[key] = values
	}

	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	return resource.ListEndpoint() + "?" + params.Encode()
}

func intParam(query url.Values, key string, fallback int) int {
	value, err := strconv.Atoi(query.Get(key))
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
