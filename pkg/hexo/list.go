package hexo

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// List is a paginated, lazily extended sequence of instances. Objects holds
// every page fetched so far in server order.
type List struct {
	accessor *Accessor
	response *Response
	objects  []*Instance
	next     string
	prev     string
}

// page is one decoded list response.
type page struct {
	objects []*Instance
	next    string
	prev    string
}

func newList(resp *Response, accessor *Accessor) *List {
	first := parsePage(resp, accessor)

	return &List{
		accessor: accessor,
		response: resp,
		objects:  first.objects,
		next:     first.next,
		prev:     first.prev,
	}
}

func parsePage(resp *Response, accessor *Accessor) page {
	var p page

	result, ok := resp.Object()
	if !ok {
		return p
	}

	if meta, ok := result["meta"].(map[string]interface{}); ok {
		p.next, _ = meta["next"].(string)

		p.prev, _ = meta["previous"].(string)
		if p.prev == "" {
			p.prev, _ = meta["prev"].(string)
		}
	}

	if objects, ok := result["objects"].([]interface{}); ok {
		p.objects = make([]*Instance, 0, len(objects))
		for _, raw := range objects {
			obj, _ := raw.(map[string]interface{})
			p.objects = append(p.objects, newInstance(obj, accessor, 0))
		}
	}

	return p
}

// Accessor returns the accessor the list belongs to.
func (l *List) Accessor() *Accessor {
	return l.accessor
}

// Response returns the envelope of the first page.
func (l *List) Response() *Response {
	return l.response
}

// HasNext reports whether a next page cursor is held.
func (l *List) HasNext() bool {
	return l.next != ""
}

// HasPrev reports whether a previous page cursor is held.
func (l *List) HasPrev() bool {
	return l.prev != ""
}

// Advance fetches the next page and appends its objects.
func (l *List) Advance(ctx context.Context) error {
	if l.next == "" {
		return ErrEndOfSequence
	}

	resp, err := l.accessor.api.Get(ctx, l.next, nil)
	if err != nil {
		return fmt.Errorf("fetching next %s page: %w", l.accessor.Name(), err)
	}

	p := parsePage(resp, l.accessor)
	l.objects = append(l.objects, p.objects...)
	l.next = p.next

	return nil
}

// Retreat fetches the previous page and prepends its objects.
func (l *List) Retreat(ctx context.Context) error {
	if l.prev == "" {
		return ErrStartOfSequence
	}

	resp, err := l.accessor.api.Get(ctx, l.prev, nil)
	if err != nil {
		return fmt.Errorf("fetching previous %s page: %w", l.accessor.Name(), err)
	}

	p := parsePage(resp, l.accessor)
	l.objects = append(p.objects, l.objects...)
	l.prev = p.prev

	return nil
}

// Len returns the number of objects fetched so far. The server-side total
// is available from TotalCount.
func (l *List) Len() int {
	return len(l.objects)
}

// At returns the instance at index.
func (l *List) At(index int) (*Instance, error) {
	if index < 0 || index >= len(l.objects) {
		return nil, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, len(l.objects))
	}

	return l.objects[index], nil
}

// Lookup returns a top-level field of the first page's envelope, such as
// "meta".
func (l *List) Lookup(key string) (interface{}, bool) {
	result, ok := l.response.Object()
	if !ok {
		return nil, false
	}

	value, ok := result[key]

	return value, ok
}

// Meta returns the first page's meta section.
func (l *List) Meta() map[string]interface{} {
	value, _ := l.Lookup("meta")
	meta, _ := value.(map[string]interface{})

	return meta
}

// TotalCount returns meta.total_count when the server reports it.
func (l *List) TotalCount() (int, bool) {
	switch total := l.Meta()["total_count"].(type) {
	case json.Number:
		count, err := total.Int64()
		if err != nil {
			return 0, false
		}

		return int(count), true
	case float64:
		return int(total), true
	default:
		return 0, false
	}
}

// Objects returns a copy of the fetched instances.
func (l *List) Objects() []*Instance {
	return slices.Clone(l.objects)
}

// DeleteAt deletes the instance at index on the server and, only once that
// succeeds, removes it from the list.
func (l *List) DeleteAt(ctx context.Context, index int) error {
	inst, err := l.At(index)
	if err != nil {
		return err
	}

	err = inst.Delete(ctx)
	if err != nil {
		return err
	}

	l.objects = slices.Delete(l.objects, index, index+1)

	return nil
}

// All advances until no next page remains and returns every object.
func (l *List) All(ctx context.Context) ([]*Instance, error) {
	for l.next != "" {
		err := l.Advance(ctx)
		if err != nil {
			return nil, err
		}
	}

	return l.Objects(), nil
}

// Iterator returns a forward-only iterator starting at the first fetched
// object. Pages are fetched as iteration crosses the end of what is held.
func (l *List) Iterator(ctx context.Context) *Iterator {
	return &Iterator{ctx: ctx, list: l}
}

// Seq exposes Iterator as a range-over-func sequence. Iteration stops after
// yielding a fetch error.
func (l *List) Seq(ctx context.Context) iter.Seq2[*Instance, error] {
	return func(yield func(*Instance, error) bool) {
		it := l.Iterator(ctx)
		for it.HasNext() {
			inst := it.list.objects[it.index]
			it.index++

			if !yield(inst, nil) {
				return
			}
		}

		if it.Err() != nil {
			yield(nil, it.Err())
		}
	}
}

// Iterator walks a List, fetching further pages on demand.
type Iterator struct {
	ctx   context.Context
	list  *List
	index int
	err   error
}

// HasNext reports whether another object is available, fetching the next
// page if the held objects are exhausted.
func (it *Iterator) HasNext() bool {
	for it.index >= len(it.list.objects) {
		if it.err != nil || it.list.next == "" {
			return false
		}

		err := it.list.Advance(it.ctx)
		if err != nil {
			it.err = err

			return false
		}
	}

	return true
}

// Next returns the next object.
func (it *Iterator) Next() (*Instance, error) {
	if !it.HasNext() {
		if it.err != nil {
			return nil, it.err
		}

		return nil, ErrEndOfSequence
	}

	inst := it.list.objects[it.index]
	it.index++

	return inst, nil
}

// Err returns the first page fetch error encountered.
func (it *Iterator) Err() error {
	return it.err
}
