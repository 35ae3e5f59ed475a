package fhirpath

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Quantity is a decimal value paired with a UCUM unit string, per
// spec.md §3.
type Quantity struct {
	Value apd.Decimal
	Unit  string
}

func (q Quantity) String() string {
	return fmt.Sprintf("%s '%s'", decString(&q.Value), q.Unit)
}

// canonicalForm is the result of reducing a Quantity to comparable shape:
// a scaled decimal value and the UnitMap it is expressed in.
type canonicalForm struct {
	value apd.Decimal
	unit  UnitMap
}

// canonicalize implements spec.md §4.4's three-step canonicalisation:
//  1. map calendar-duration unit words to UCUM (governed by forEquivalence);
//  2. strip SI prefixes;
//  3. rewrite single-level derived units (h -> s, etc).
// Year and month calendar words are left unmapped when !forEquivalence, per
// spec.md §3 ("year and month never map under equality").
func (ctx *Context) canonicalize(q Quantity, forEquivalence bool) (canonicalForm, error) {
	unit := strings.TrimSpace(q.Unit)
	unit = strings.TrimPrefix(unit, "'")
	unit = strings.TrimSuffix(unit, "'")

	if ucumCode, isCalendar := calendarDurationUnit[unit]; isCalendar {
		mapsNow := forEquivalence || calendarDurationMapsUnderEquality(unit)
		if !mapsNow {
			// Left as an opaque, unconvertible pseudo-unit: comparable only
			// to an identical calendar word.
			return canonicalForm{value: q.Value, unit: UnitMap{"@calendar:" + unit: 1}}, nil
		}
		scale, base, ok := canonicalAtom(ucumCode)
		if !ok {
			return canonicalForm{}, typeErrorf("unknown calendar duration unit %q", unit)
		}
		scaled, err := ctx.decMul(&q.Value, decimalFromScale(scale))
		if err != nil {
			return canonicalForm{}, err
		}
		return canonicalForm{value: scaled, unit: base}, nil
	}

	parsed, err := parseUcumUnit(unit)
	if err != nil {
		return canonicalForm{}, fmt.Errorf("fhirpath: %w", err)
	}
	scale, base := canonicalizeUnitMap(parsed)
	scaled, err := ctx.decMul(&q.Value, decimalFromScale(scale))
	if err != nil {
		return canonicalForm{}, err
	}
	return canonicalForm{value: scaled, unit: base}, nil
}

func decimalFromScale(scale float64) *apd.Decimal {
	d, _, _ := apd.NewFromString(fmt.Sprintf("%v", scale))
	return d
}

// quantityEqual implements strict Quantity equality (=): canonicalised
// (without year/month calendar mapping) unit equality and value equality.
func (ctx *Context) quantityEqual(a, b Quantity) (bool, error) {
	ca, err := ctx.canonicalize(a, false)
	if err != nil {
		return false, err
	}
	cb, err := ctx.canonicalize(b, false)
	if err != nil {
		return false, err
	}
	if !ca.unit.Equal(cb.unit) {
		return false, nil
	}
	return decCmp(&ca.value, &cb.value) == 0, nil
}

// quantityEquivalent implements Quantity equivalence (~): canonicalised
// (including year/month calendar mapping) unit equality and value equality.
func (ctx *Context) quantityEquivalent(a, b Quantity) (bool, error) {
	ca, err := ctx.canonicalize(a, true)
	if err != nil {
		return false, err
	}
	cb, err := ctx.canonicalize(b, true)
	if err != nil {
		return false, err
	}
	if !ca.unit.Equal(cb.unit) {
		return false, nil
	}
	return decCmp(&ca.value, &cb.value) == 0, nil
}

// quantityCompare returns a three-way comparison, or decided=false when the
// units are incomparable (caller must then produce empty).
func (ctx *Context) quantityCompare(a, b Quantity) (cmp int, decided bool, err error) {
	ca, err := ctx.canonicalize(a, true)
	if err != nil {
		return 0, false, err
	}
	cb, err := ctx.canonicalize(b, true)
	if err != nil {
		return 0, false, err
	}
	if !ca.unit.Equal(cb.unit) {
		return 0, false, nil
	}
	return decCmp(&ca.value, &cb.value), true, nil
}

// quantityMul multiplies two quantities, combining canonical units.
func (ctx *Context) quantityMul(a, b Quantity) (Quantity, error) {
	ca, err := ctx.canonicalize(a, true)
	if err != nil {
		return Quantity{}, err
	}
	cb, err := ctx.canonicalize(b, true)
	if err != nil {
		return Quantity{}, err
	}
	v, err := ctx.decMul(&ca.value, &cb.value)
	if err != nil {
		return Quantity{}, err
	}
	unit := ca.unit.Mul(cb.unit)
	return Quantity{Value: v, Unit: unit.Format()}, nil
}

// quantityDiv divides two quantities, combining canonical units. ok=false
// on division by zero.
func (ctx *Context) quantityDiv(a, b Quantity) (Quantity, bool, error) {
	ca, err := ctx.canonicalize(a, true)
	if err != nil {
		return Quantity{}, false, err
	}
	cb, err := ctx.canonicalize(b, true)
	if err != nil {
		return Quantity{}, false, err
	}
	v, ok, err := ctx.decQuo(&ca.value, &cb.value)
	if err != nil || !ok {
		return Quantity{}, ok, err
	}
	unit := ca.unit.Div(cb.unit)
	return Quantity{Value: v, Unit: unit.Format()}, true, nil
}

// quantityAddSub implements spec.md §9's Open Question 2: Quantity +/-
// Quantity is permitted once both operands canonicalise to the same unit.
func (ctx *Context) quantityAddSub(a, b Quantity, subtract bool) (Quantity, bool, error) {
	ca, err := ctx.canonicalize(a, true)
	if err != nil {
		return Quantity{}, false, err
	}
	cb, err := ctx.canonicalize(b, true)
	if err != nil {
		return Quantity{}, false, err
	}
	if !ca.unit.Equal(cb.unit) {
		return Quantity{}, false, nil
	}
	var v apd.Decimal
	if subtract {
		v, err = ctx.decSub(&ca.value, &cb.value)
	} else {
		v, err = ctx.decAdd(&ca.value, &cb.value)
	}
	if err != nil {
		return Quantity{}, false, err
	}
	return Quantity{Value: v, Unit: ca.unit.Format()}, true, nil
}
