package hexo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Accessor is the gateway to one resource type. Every operation is checked
// against the resource descriptor before a request is sent.
type Accessor struct {
	descriptor *Descriptor
	api        API
}

// NewAccessor creates an accessor for descriptor backed by api.
func NewAccessor(descriptor *Descriptor, api API) *Accessor {
	return &Accessor{
		descriptor: descriptor,
		api:        api,
	}
}

// Name returns the resource name.
func (a *Accessor) Name() string {
	return a.descriptor.Name
}

// Descriptor returns the shared resource descriptor.
func (a *Accessor) Descriptor() *Descriptor {
	return a.descriptor
}

// VerifyCall fails with a *MethodNotAllowedError when the descriptor does
// not permit method for access.
func (a *Accessor) VerifyCall(access AccessType, method string) error {
	if a.descriptor.Allows(access, method) {
		return nil
	}

	return &MethodNotAllowedError{
		Method:   strings.ToLower(method),
		Resource: a.descriptor.Name,
		Access:   access,
	}
}

// List fetches the first page of the resource's list endpoint. Filter
// values are sent verbatim as query parameters; Instance values are sent as
// their resource URI.
func (a *Accessor) List(ctx context.Context, filters map[string]interface{}) (*List, error) {
	err := a.VerifyCall(AccessList, MethodGet)
	if err != nil {
		return nil, err
	}

	var params url.Values
	if filters != nil {
		params = encodeFilters(a.api.ConvertInstances(filters))
	}

	resp, err := a.api.Get(ctx, a.descriptor.ListEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", a.descriptor.Name, err)
	}

	return newList(resp, a), nil
}

// Get fetches one object by id or by URI. A reference that does not contain
// the list endpoint is treated as an id.
func (a *Accessor) Get(ctx context.Context, ref string) (*Instance, error) {
	err := a.VerifyCall(AccessDetail, MethodGet)
	if err != nil {
		return nil, err
	}

	uri := a.detailURI(ref)

	resp, err := a.api.Get(ctx, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", a.descriptor.Name, ref, err)
	}

	obj, ok := resp.Object()
	if !ok {
		return nil, fmt.Errorf("getting %s %s: %w", a.descriptor.Name, ref, ErrUnexpectedBody)
	}

	return newInstance(obj, a, 0), nil
}

// GetByID fetches one object by numeric id.
func (a *Accessor) GetByID(ctx context.Context, id int) (*Instance, error) {
	return a.Get(ctx, strconv.Itoa(id))
}

// Create posts data to the list endpoint and wraps the created object.
func (a *Accessor) Create(ctx context.Context, data map[string]interface{}) (*Instance, error) {
	err := a.VerifyCall(AccessList, MethodPost)
	if err != nil {
		return nil, err
	}

	resp, err := a.api.Post(ctx, a.descriptor.ListEndpoint, a.api.ConvertInstances(data))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", a.descriptor.Name, err)
	}

	// An empty body is a valid create response; anything else must be an object.
	obj, ok := resp.Object()
	if !ok && resp.Result != nil {
		return nil, fmt.Errorf("creating %s: %w", a.descriptor.Name, ErrUnexpectedBody)
	}

	return newInstance(obj, a, 0), nil
}

// Patch bulk-patches a batch of objects through the list endpoint.
func (a *Accessor) Patch(ctx context.Context, objects []map[string]interface{}) (*Response, error) {
	err := a.VerifyCall(AccessList, MethodPatch)
	if err != nil {
		return nil, err
	}

	converted := make([]map[string]interface{}, 0, len(objects))
	for _, obj := range objects {
		converted = append(converted, a.api.ConvertInstances(obj))
	}

	resp, err := a.api.Patch(ctx, a.descriptor.ListEndpoint, map[string]interface{}{"objects": converted})
	if err != nil {
		return resp, fmt.Errorf("patching %s: %w", a.descriptor.Name, err)
	}

	return resp, nil
}

func (a *Accessor) detailURI(ref string) string {
	if strings.Contains(ref, a.descriptor.ListEndpoint) {
		return ref
	}

	return a.descriptor.ListEndpoint + ref + "/"
}

// encodeFilters turns filter values into query parameters. Slices expand
// into repeated parameters.
func encodeFilters(filters map[string]interface{}) url.Values {
	params := url.Values{}

	for key, value := range filters {
		if value == nil {
			continue
		}

		rv := reflect.ValueOf(value)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := range rv.Len() {
				params.Add(key, formatFilterValue(rv.Index(i).Interface()))
			}

			continue
		}

		params.Set(key, formatFilterValue(value))
	}

	return params
}

func formatFilterValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case *Instance:
		return v.ResourceURI()
	default:
		return fmt.Sprint(v)
	}
}
