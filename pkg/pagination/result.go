package pagination

import (
	"encoding/json"
)

// DataKey is the key under which providers wrap their item lists.
const DataKey = "data"

// Result is the merged outcome of one Fetch.
//
// When Bare is true the provider only ever returned non-object items and the
// result is the item list itself; otherwise it is an object holding Metadata
// plus Data under "data".
type Result struct {
	Metadata map[string]any
	Data     []any
	Bare     bool
}

// Value returns the caller-facing shape: []any when Bare, otherwise a map
// with the metadata keys and "data".
func (r *Result) Value() any {
	if r.Bare {
		return r.Data
	}

	out := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		out[k] = v
	}
	data := r.Data
	if data == nil {
		data = []any{}
	}
	out[DataKey] = data
	return out
}

// Len returns the number of collected items.
func (r *Result) Len() int {
	return len(r.Data)
}

// MarshalJSON encodes the Value shape.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// Decode re-encodes the collected items into out, typically a pointer to a
// slice of provider structs.
func (r *Result) Decode(out any) error {
	data := r.Data
	if data == nil {
		data = []any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// shapeKind tags the response shapes a provider may return.
type shapeKind int

const (
	// shapeDataList is an object whose "data" is a list.
	shapeDataList shapeKind = iota
	// shapeDataItem is an object whose "data" is a single value.
	shapeDataItem
	// shapeMetaOnly is an object without "data".
	shapeMetaOnly
	// shapeList is a bare list.
	shapeList
	// shapeScalar is anything else.
	shapeScalar
)

func (k shapeKind) String() string {
	switch k {
	case shapeDataList:
		return "data_list"
	case shapeDataItem:
		return "data_item"
	case shapeMetaOnly:
		return "meta_only"
	case shapeList:
		return "list"
	default:
		return "scalar"
	}
}

// shape is one classified response: the items it contributes and the
// metadata keys to merge.
type shape struct {
	kind  shapeKind
	items []any
	meta  map[string]any
}

// classify inspects a decoded JSON response once so the merge step never
// needs to type-switch.
func classify(raw any) shape {
	switch v := raw.(type) {
	case map[string]any:
		var meta map[string]any
		for k, val := range v {
			if k == DataKey {
				continue
			}
			if meta == nil {
				meta = make(map[string]any, len(v))
			}
			meta[k] = val
		}

		data, ok := v[DataKey]
		if !ok {
			return shape{kind: shapeMetaOnly, meta: meta}
		}
		if list, isList := data.([]any); isList {
			return shape{kind: shapeDataList, items: list, meta: meta}
		}
		return shape{kind: shapeDataItem, items: []any{data}, meta: meta}

	case []any:
		return shape{kind: shapeList, items: v}

	default:
		return shape{kind: shapeScalar, items: []any{raw}}
	}
}

// accumulator is the per-Fetch merge state.
type accumulator struct {
	items []any
	meta  map[string]any
}

func (a *accumulator) add(s shape) {
	a.items = append(a.items, s.items...)
	for k, v := range s.meta {
		if a.meta == nil {
			a.meta = make(map[string]any, len(s.meta))
		}
		a.meta[k] = v
	}
}

func (a *accumulator) result() *Result {
	if len(a.items) == 0 {
		return &Result{Data: []any{}}
	}

	if len(a.meta) > 0 {
		return &Result{Metadata: a.meta, Data: a.items}
	}

	if _, isObject := a.items[0].(map[string]any); isObject {
		return &Result{Data: a.items}
	}

	return &Result{Data: a.items, Bare: true}
}
