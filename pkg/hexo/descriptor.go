package hexo

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// AccessType distinguishes list endpoints from detail endpoints.
type AccessType string

const (
	// AccessList covers operations on a resource's list endpoint.
	AccessList AccessType = "list"
	// AccessDetail covers operations on a single object's URI.
	AccessDetail AccessType = "detail"
)

// HTTP methods as they appear in schema documents.
const (
	MethodGet    = "get"
	MethodPost   = "post"
	MethodPut    = "put"
	MethodPatch  = "patch"
	MethodDelete = "delete"
)

// Static errors for err113 compliance.
var (
	ErrInvalidSchema = errors.New("invalid schema document")
)

// Descriptor is the discovered metadata for one resource. It is immutable
// after discovery and shared by every accessor, list and instance of the
// resource.
type Descriptor struct {
	Name                     string                 `json:"name"                        mapstructure:"-"`
	ListEndpoint             string                 `json:"list_endpoint"               mapstructure:"-"`
	Schema                   string                 `json:"schema,omitempty"            mapstructure:"-"`
	AllowedListHTTPMethods   []string               `json:"allowed_list_http_methods"   mapstructure:"allowed_list_http_methods"`
	AllowedDetailHTTPMethods []string               `json:"allowed_detail_http_methods" mapstructure:"allowed_detail_http_methods"`
	Fields                   map[string]interface{} `json:"fields,omitempty"            mapstructure:"fields"`
	Filtering                map[string]interface{} `json:"filtering,omitempty"         mapstructure:"filtering"`
	DefaultLimit             int                    `json:"default_limit,omitempty"     mapstructure:"default_limit"`
	Raw                      map[string]interface{} `json:"raw,omitempty"               mapstructure:"-"`
}

// NewDescriptor builds a descriptor from a schema document.
func NewDescriptor(name, listEndpoint, schemaURL string, doc map[string]interface{}) (*Descriptor, error) {
	desc := &Descriptor{
		Name:         name,
		ListEndpoint: listEndpoint,
		Schema:       schemaURL,
		Raw:          doc,
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           desc,
	})
	if err != nil {
		return nil, fmt.Errorf("creating schema decoder: %w", err)
	}

	err = decoder.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrInvalidSchema, name, err)
	}

	desc.AllowedListHTTPMethods = normalizeMethods(desc.AllowedListHTTPMethods)
	desc.AllowedDetailHTTPMethods = normalizeMethods(desc.AllowedDetailHTTPMethods)

	return desc, nil
}

func normalizeMethods(methods []string) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, strings.ToLower(strings.TrimSpace(m)))
	}

	return out
}

// Allows reports whether method is permitted for the given access type.
func (d *Descriptor) Allows(access AccessType, method string) bool {
	method = strings.ToLower(method)

	switch access {
	case AccessList:
		return slices.Contains(d.AllowedListHTTPMethods, method)
	case AccessDetail:
		return slices.Contains(d.AllowedDetailHTTPMethods, method)
	default:
		return false
	}
}
