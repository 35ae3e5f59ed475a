package fhirpath

import (
	"strconv"
	"unicode"
)

// Element is the capability interface the engine consumes to navigate an
// external resource tree, per spec.md §4.5. No implementation is
// prescribed; a host supplies one over whatever typed or dynamic tree it
// already maintains. MapElement below is a reference implementation over
// map[string]interface{}, generalizing the teacher's navigateField/
// matchesType/isResourceTypeName free functions (which assumed that shape)
// into methods satisfying this interface.
type Element interface {
	// TypeName returns the element's declared FHIR type name (its
	// resourceType for a resource, or its structure-definition type name
	// for a backbone/data type element), used by type(), is, as, ofType.
	TypeName() string

	// Children returns the named child collection in document order. A
	// choice[x] field must be resolved by the adapter to its concrete
	// polymorphic name (e.g. "valueQuantity" satisfies a query for
	// "value"). The reserved name "*" returns every direct child,
	// supporting children()/descendants().
	Children(name string) Collection

	// Primitive reports whether this Element wraps a FHIRPath primitive
	// value (string/number/boolean/date/etc.) rather than a composite
	// element, returning that primitive as a Value when it does.
	Primitive() (Value, bool)
}

// MapElement is a reference ResourceAdapter-compatible Element over
// map[string]interface{} trees, the shape FHIR-JSON resources already take
// throughout this codebase's domain packages.
type MapElement struct {
	data map[string]interface{}
}

// NewMapElement wraps a decoded FHIR-JSON resource or backbone element.
func NewMapElement(data map[string]interface{}) MapElement {
	return MapElement{data: data}
}

// TypeName returns the map's "resourceType" string, or "" when the map has
// none: backbone and data type elements carry no type name.
func (m MapElement) TypeName() string {
	if rt, ok := m.data["resourceType"].(string); ok && rt != "" {
		return rt
	}
	return ""
}

// Children returns the value stored under the exact key name; a choice[x]
// query such as "value" does not find "valueQuantity". For "*" it returns
// every value except resourceType, in Go map iteration order, which is not
// document order and not stable between calls.
func (m MapElement) Children(name string) Collection {
	if name == "*" {
		var out Collection
		for k, v := range m.data {
			if k == "resourceType" {
				continue
			}
			out = append(out, wrapJSON(v)...)
		}
		return out
	}
	val, ok := m.data[name]
	if !ok {
		return Empty()
	}
	return wrapJSON(val)
}

func (m MapElement) Primitive() (Value, bool) {
	return Value{}, false
}

func wrapJSON(v interface{}) Collection {
	switch t := v.(type) {
	case nil:
		return Empty()
	case []interface{}:
		var out Collection
		for _, item := range t {
			out = append(out, wrapJSONScalar(item))
		}
		return out
	default:
		return Single(wrapJSONScalar(v))
	}
}

func wrapJSONScalar(v interface{}) Value {
	switch t := v.(type) {
	case string:
		return NewString(t)
	case bool:
		return NewBoolean(t)
	case float64:
		d, _ := NewDecimalFromString(formatFloat(t))
		return d
	case int64:
		return NewInteger(t)
	case map[string]interface{}:
		return NewElement(NewMapElement(t))
	default:
		return NewString("")
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isResourceTypeName returns true if the identifier looks like a FHIR
// resource/type name (starts with an uppercase letter) as opposed to a
// field-navigation step — the same convention the teacher's
// isResourceTypeName helper used.
func isResourceTypeName(name string) bool {
	if len(name) == 0 {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}
