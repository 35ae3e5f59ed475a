package fhirpath

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Kind tags the variant a Value holds.
type Kind uint8

const (
	KindBoolean Kind = iota
	KindInteger
	KindLong
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindTime
	KindQuantity
	KindElement
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindLong:
		return "Long"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindTime:
		return "Time"
	case KindQuantity:
		return "Quantity"
	case KindElement:
		return "Element"
	default:
		return "Unknown"
	}
}

// Value is the tagged union described in spec.md §3. Only the field(s)
// matching Kind are meaningful; zero value is an unset value and must
// never be placed in a Collection.
type Value struct {
	kind     Kind
	boolean  bool
	integer  int64
	long     int64
	decimal  apd.Decimal
	str      string
	temporal Temporal
	quantity Quantity
	element  Element
}

func (v Value) Kind() Kind { return v.kind }

func NewBoolean(b bool) Value  { return Value{kind: KindBoolean, boolean: b} }
func NewInteger(n int64) Value { return Value{kind: KindInteger, integer: n} }
func NewLong(n int64) Value    { return Value{kind: KindLong, long: n} }
func NewString(s string) Value { return Value{kind: KindString, str: s} }
func NewElement(e Element) Value {
	return Value{kind: KindElement, element: e}
}

func NewDecimal(d apd.Decimal) Value { return Value{kind: KindDecimal, decimal: d} }

func NewDecimalFromString(s string) (Value, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Value{}, err
	}
	return NewDecimal(d), nil
}

func NewDate(t Temporal) Value     { return Value{kind: KindDate, temporal: t} }
func NewDateTime(t Temporal) Value { return Value{kind: KindDateTime, temporal: t} }
func NewTime(t Temporal) Value     { return Value{kind: KindTime, temporal: t} }

func NewQuantity(q Quantity) Value { return Value{kind: KindQuantity, quantity: q} }

func (v Value) Boolean() bool     { return v.boolean }
func (v Value) Integer() int64    { return v.integer }
func (v Value) Long() int64       { return v.long }
func (v Value) Decimal() apd.Decimal { return v.decimal }
func (v Value) String() string    { return v.str }
func (v Value) Temporal() Temporal { return v.temporal }
func (v Value) Quantity() Quantity { return v.quantity }
func (v Value) Element() Element  { return v.element }

// AsDecimal widens any numeric-kind Value (Integer, Long, Decimal) to an
// apd.Decimal. ok is false for non-numeric kinds.
func (v Value) AsDecimal() (apd.Decimal, bool) {
	switch v.kind {
	case KindInteger:
		return decimalFromInt64(v.integer), true
	case KindLong:
		return decimalFromInt64(v.long), true
	case KindDecimal:
		return v.decimal, true
	default:
		return apd.Decimal{}, false
	}
}

func (v Value) isNumeric() bool {
	switch v.kind {
	case KindInteger, KindLong, KindDecimal:
		return true
	default:
		return false
	}
}

// Display renders a Value as text, used by toString(), trace() output and
// the demonstration hosts' JSON/CLI output.
func (v Value) Display() string {
	switch v.kind {
	case KindBoolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindInteger:
		return fmt.Sprintf("%d", v.integer)
	case KindLong:
		return fmt.Sprintf("%d", v.long)
	case KindDecimal:
		return decString(&v.decimal)
	case KindString:
		return v.str
	case KindDate, KindDateTime, KindTime:
		return v.temporal.String()
	case KindQuantity:
		return v.quantity.String()
	case KindElement:
		if v.element != nil {
			return fmt.Sprintf("%s", v.element.TypeName())
		}
		return ""
	default:
		return ""
	}
}

// Collection is an ordered, possibly-empty sequence of Values. It is a
// named slice, not a wrapper struct, so built-in slice operations apply
// directly — the same convention the teacher uses for its []interface{}
// collections in fhirpath.go, generalized to a typed element.
type Collection []Value

// Empty returns the empty collection.
func Empty() Collection { return nil }

// Single wraps one Value as a length-1 collection.
func Single(v Value) Collection { return Collection{v} }

func (c Collection) IsEmpty() bool { return len(c) == 0 }

// Singleton returns the sole element of a length-1 collection. It returns
// a *Error (ErrSingleton) for collections of length >= 2; a length-0
// collection yields (zero Value, false, nil) — "no value", not an error.
func (c Collection) Singleton() (Value, bool, error) {
	switch len(c) {
	case 0:
		return Value{}, false, nil
	case 1:
		return c[0], true, nil
	default:
		return Value{}, false, singletonErrorf("expected a singleton, got a collection of length %d", len(c))
	}
}

// ToBool applies the FHIRPath singleton-evaluation-to-boolean rule used by
// functions whose argument must coerce to a boolean (e.g. where, exists):
// empty -> false (unknown, handled by caller when three-valued logic
// matters), single Boolean -> its value, anything else -> error.
func (c Collection) ToBool() (bool, bool, error) {
	switch len(c) {
	case 0:
		return false, false, nil
	case 1:
		if c[0].kind == KindBoolean {
			return c[0].boolean, true, nil
		}
		return false, false, typeErrorf("expected a Boolean, got %s", c[0].kind)
	default:
		return false, false, singletonErrorf("expected a singleton Boolean, got a collection of length %d", len(c))
	}
}
