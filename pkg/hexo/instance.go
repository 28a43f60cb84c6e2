package hexo

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// resourceURIField is the field every server object carries with its URI.
const resourceURIField = "resource_uri"

// maxDerefDepth bounds eager dereferencing of embedded objects. Instances
// built from an embedded object never dereference their own embedded
// objects, so cyclic server payloads cannot recurse.
const maxDerefDepth = 1

// Instance is the client-side copy of one server object.
//
// Server fields live in a mapping that is sent back on Update. Values set
// under names that are not server fields are kept as local attributes and
// never sent.
type Instance struct {
	fields   map[string]interface{}
	attrs    map[string]interface{}
	accessor *Accessor
}

// NewInstance wraps obj as an instance of the accessor's resource type.
func NewInstance(obj map[string]interface{}, accessor *Accessor) *Instance {
	return newInstance(obj, accessor, 0)
}

func newInstance(obj map[string]interface{}, accessor *Accessor, depth int) *Instance {
	inst := &Instance{
		fields:   make(map[string]interface{}, len(obj)),
		attrs:    make(map[string]interface{}),
		accessor: accessor,
	}

	for key, value := range obj {
		inst.fields[key] = value

		if depth >= maxDerefDepth {
			continue
		}

		embedded, ok := value.(map[string]interface{})
		if !ok {
			continue
		}

		if _, hasURI := embedded[resourceURIField]; !hasURI {
			continue
		}

		nested, known := accessor.api.KnownAccessor(key)
		if !known {
			continue
		}

		inst.fields[key] = newInstance(embedded, nested, depth+1)
	}

	return inst
}

// Accessor returns the accessor of the instance's resource type.
func (i *Instance) Accessor() *Accessor {
	return i.accessor
}

// ResourceURI returns the object's URI, or "" when it has none.
func (i *Instance) ResourceURI() string {
	uri, _ := i.fields[resourceURIField].(string)

	return uri
}

// Lookup returns a field value and whether the field exists.
func (i *Instance) Lookup(name string) (interface{}, bool) {
	value, ok := i.fields[name]

	return value, ok
}

// Field returns a field value or ErrAttributeNotFound. After Delete every
// field is present with a nil value.
func (i *Instance) Field(name string) (interface{}, error) {
	value, ok := i.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrAttributeNotFound, name, i.accessor.Name())
	}

	return value, nil
}

// StringField returns a string field, or "" when absent or not a string.
func (i *Instance) StringField(name string) string {
	value, _ := i.fields[name].(string)

	return value
}

// Nested returns an embedded object that was dereferenced at read time.
func (i *Instance) Nested(name string) (*Instance, bool) {
	nested, ok := i.fields[name].(*Instance)

	return nested, ok
}

// Set assigns a value. Existing server fields take the value, with Instance
// values of known resource types stored as their resource URI. Any other
// name is kept as a local attribute.
func (i *Instance) Set(name string, value interface{}) {
	if _, isField := i.fields[name]; isField {
		i.fields[name] = i.accessor.api.ConvertInstances(map[string]interface{}{name: value})[name]

		return
	}

	i.attrs[name] = value
}

// Attr returns a local attribute set through Set.
func (i *Instance) Attr(name string) (interface{}, bool) {
	value, ok := i.attrs[name]

	return value, ok
}

// Fields returns a copy of the field mapping.
func (i *Instance) Fields() map[string]interface{} {
	return maps.Clone(i.fields)
}

// Update writes the instance back with PUT. Entries of partial are applied
// through Set first, then the whole field mapping is sent. A non-empty
// response replaces the fields; an empty one leaves the previous fields
// merged with partial.
func (i *Instance) Update(ctx context.Context, partial map[string]interface{}) error {
	err := i.accessor.VerifyCall(AccessDetail, MethodPut)
	if err != nil {
		return err
	}

	uri := i.ResourceURI()
	if uri == "" {
		return fmt.Errorf("updating %s: %w", i.accessor.Name(), ErrMissingURI)
	}

	for name, value := range partial {
		i.Set(name, value)
	}

	resp, err := i.accessor.api.Put(ctx, uri, i.fields)
	if err != nil {
		return fmt.Errorf("updating %s: %w", uri, err)
	}

	if obj, ok := resp.Object(); ok && len(obj) > 0 {
		i.fields = newInstance(obj, i.accessor, 0).fields

		return nil
	}

	merged := maps.Clone(i.fields)
	if partial != nil {
		maps.Copy(merged, i.accessor.api.ConvertInstances(partial))
	}

	i.fields = merged

	return nil
}

// Delete removes the object on the server. Afterwards every field is nil;
// the instance stays usable as a handle.
func (i *Instance) Delete(ctx context.Context) error {
	err := i.accessor.VerifyCall(AccessDetail, MethodDelete)
	if err != nil {
		return err
	}

	uri := i.ResourceURI()
	if uri == "" {
		return fmt.Errorf("deleting %s: %w", i.accessor.Name(), ErrMissingURI)
	}

	_, err = i.accessor.api.Delete(ctx, uri)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", uri, err)
	}

	for name := range i.fields {
		i.fields[name] = nil
	}

	return nil
}

// Decode copies the fields into out, matching on json tags.
func (i *Instance) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       instanceURIHook,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	err = decoder.Decode(i.fields)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", i.accessor.Name(), err)
	}

	return nil
}

// instanceURIHook lets nested instances decode into strings (their URI) or
// into structs (their fields).
func instanceURIHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	nested, ok := data.(*Instance)
	if !ok {
		return data, nil
	}

	if to.Kind() == reflect.String {
		return nested.ResourceURI(), nil
	}

	return nested.fields, nil
}

// MarshalJSON encodes the field mapping.
func (i *Instance) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(i.fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", i.accessor.Name(), err)
	}

	return data, nil
}

// String renders the field mapping for diagnostics.
func (i *Instance) String() string {
	return fmt.Sprintf("%v", i.fields)
}
