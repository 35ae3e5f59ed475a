package fhirpath

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// UnitMap is a mapping from base-unit name to integer exponent. Entries
// with exponent zero are forbidden and filtered at construction. The empty
// map represents the dimensionless unit '1'.
type UnitMap map[string]int

// newUnitMap builds a UnitMap from a mutable working map, dropping
// zero-exponent entries — the single constructor point that enforces the
// invariant.
func newUnitMap(m map[string]int) UnitMap {
	out := UnitMap{}
	for k, v := range m {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether two UnitMaps describe the same dimension.
func (u UnitMap) Equal(o UnitMap) bool {
	if len(u) != len(o) {
		return false
	}
	for k, v := range u {
		if o[k] != v {
			return false
		}
	}
	return true
}

// Mul returns the element-wise sum of exponents (unit multiplication).
func (u UnitMap) Mul(o UnitMap) UnitMap {
	m := map[string]int{}
	for k, v := range u {
		m[k] += v
	}
	for k, v := range o {
		m[k] += v
	}
	return newUnitMap(m)
}

// Div returns the element-wise difference of exponents (unit division).
func (u UnitMap) Div(o UnitMap) UnitMap {
	m := map[string]int{}
	for k, v := range u {
		m[k] += v
	}
	for k, v := range o {
		m[k] -= v
	}
	return newUnitMap(m)
}

// Invert negates every exponent (used for forming a reciprocal unit).
func (u UnitMap) Invert() UnitMap {
	m := map[string]int{}
	for k, v := range u {
		m[k] = -v
	}
	return newUnitMap(m)
}

// Format renders a UnitMap per spec.md §4.4: keys in ascending
// lexicographic order joined by '.', exponent 1 elided, others appended
// verbatim. The empty map formats as '1'.
func (u UnitMap) Format() string {
	if len(u) == 0 {
		return "1"
	}
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		exp := u[k]
		if exp == 1 {
			parts = append(parts, k)
		} else {
			parts = append(parts, fmt.Sprintf("%s%d", k, exp))
		}
	}
	return strings.Join(parts, ".")
}

var unitComponentRe = regexp.MustCompile(`^([A-Za-z]+)(-?[0-9]+)?`)

// parseUcumUnit parses a quoted-or-bare UCUM unit string per spec.md §4.4:
// strip surrounding single quotes, treat empty/"1" as dimensionless, split
// on lookahead at '.'/'/', and apply the exponent-negation-after-slash sign
// rule. Duplicate unit names are a parse error.
func parseUcumUnit(raw string) (UnitMap, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	if s == "" || s == "1" {
		return UnitMap{}, nil
	}

	m := map[string]int{}
	negate := false
	i := 0
	n := len(s)
	// The first component has no leading separator.
	first := true
	for i < n {
		if !first {
			switch s[i] {
			case '.':
				i++
			case '/':
				negate = true
				i++
			default:
				return nil, fmt.Errorf("invalid unit string %q: expected '.' or '/' at position %d", raw, i)
			}
		}
		first = false

		match := unitComponentRe.FindStringSubmatch(s[i:])
		if match == nil || match[0] == "" {
			return nil, fmt.Errorf("invalid unit string %q: malformed component at position %d", raw, i)
		}
		name := match[1]
		expStr := match[2]
		exp := 1
		if expStr != "" {
			v, err := strconv.Atoi(expStr)
			if err != nil {
				return nil, fmt.Errorf("invalid unit string %q: bad exponent %q", raw, expStr)
			}
			exp = v
		}
		if negate {
			exp = -exp
		}
		if _, dup := m[name]; dup {
			return nil, fmt.Errorf("invalid unit string %q: duplicate unit %q", raw, name)
		}
		m[name] = exp
		i += len(match[0])
	}
	return newUnitMap(m), nil
}

// canonicalAtom resolves one UCUM unit-atom code to (scale, base UnitMap
// with exponent 1), trying a direct base/derived match before attempting a
// single metric-prefix decomposition — the shallow, single-level scheme
// spec.md §4.4/§9 call for.
func canonicalAtom(code string) (scale float64, base UnitMap, ok bool) {
	if ucumBaseUnits[code] {
		return 1, UnitMap{code: 1}, true
	}
	if d, found := ucumDerivedUnits[code]; found {
		return d.scale, d.base, true
	}
	for plen := 2; plen >= 1; plen-- {
		if plen >= len(code) {
			continue
		}
		prefix := code[:plen]
		rest := code[plen:]
		power, found := ucumPrefixes[prefix]
		if !found || rest == "" {
			continue
		}
		if ucumBaseUnits[rest] {
			return pow10(power), UnitMap{rest: 1}, true
		}
		if d, found := ucumDerivedUnits[rest]; found {
			return pow10(power) * d.scale, d.base, true
		}
	}
	return 0, nil, false
}

func pow10(p int) float64 {
	v := 1.0
	if p >= 0 {
		for i := 0; i < p; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -p; i++ {
		v /= 10
	}
	return v
}

// canonicalizeUnitMap expands every atom in a parsed UnitMap to its
// canonical base form, combining scale factors multiplicatively and
// UnitMaps per-exponent. Atoms that resolve to no known base/derived form
// are kept as-is (scale 1), so arbitrary/unknown unit codes still compare
// equal to themselves without erroring.
func canonicalizeUnitMap(u UnitMap) (float64, UnitMap) {
	totalScale := 1.0
	result := UnitMap{}
	for atom, exp := range u {
		scale, base, ok := canonicalAtom(atom)
		if !ok {
			scale, base = 1, UnitMap{atom: 1}
		}
		for i := 0; i < absInt(exp); i++ {
			if exp > 0 {
				totalScale *= scale
			} else {
				totalScale /= scale
			}
		}
		scaled := map[string]int{}
		for k, v := range base {
			scaled[k] = v * exp
		}
		result = result.Mul(newUnitMap(scaled))
	}
	return totalScale, result
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
