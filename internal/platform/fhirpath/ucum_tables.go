package fhirpath

// ucumPrefixes maps a UCUM metric prefix code to its power-of-ten exponent.
// Populated once in init(); never mutated afterward (spec.md §5: constants,
// no mutable global state).
var ucumPrefixes map[string]int

// ucumBaseUnits lists UCUM base-unit codes that map to themselves with
// scale factor 1 (meter, gram, second, kelvin, ampere, candela, mole —
// the essence subset FHIRPath arithmetic/comparison needs).
var ucumBaseUnits map[string]bool

// derivedUnit describes a single-level rewrite of a derived unit into a
// scale factor against a UnitMap of base units. Per spec.md §9, this is
// intentionally shallow: only the single-level rewrites spec.md §4.4 calls
// for (e.g. h -> s*3600) are modeled. Composite derived units such as W are
// never decomposed into J/s.
type derivedUnit struct {
	scale float64
	base  UnitMap
}

var ucumDerivedUnits map[string]derivedUnit

func init() {
	ucumPrefixes = map[string]int{
		"Y": 24, "Z": 21, "E": 18, "P": 15, "T": 12, "G": 9, "M": 6, "k": 3,
		"h": 2, "da": 1,
		"d": -1, "c": -2, "m": -3, "u": -6, "n": -9, "p": -12, "f": -15,
		"a": -18, "z": -21, "y": -24,
	}

	ucumBaseUnits = map[string]bool{
		"m": true, "g": true, "s": true, "K": true, "A": true, "cd": true, "mol": true,
	}

	ucumDerivedUnits = map[string]derivedUnit{
		"min": {scale: 60, base: UnitMap{"s": 1}},
		"h":   {scale: 3600, base: UnitMap{"s": 1}},
		"d":   {scale: 86400, base: UnitMap{"s": 1}},
		"wk":  {scale: 604800, base: UnitMap{"s": 1}},
		"a":   {scale: 31557600, base: UnitMap{"s": 1}}, // Julian year (annum)
		"mo":  {scale: 2629800, base: UnitMap{"s": 1}},  // annum / 12
		"L":   {scale: 0.001, base: UnitMap{"m": 3}},
		"Hz":  {scale: 1, base: UnitMap{"s": -1}},
		"ms":  {scale: 0.001, base: UnitMap{"s": 1}},
	}
}

// calendarDurationUnit maps a calendar-duration word (singular or plural,
// e.g. "year"/"years") to its UCUM code. Per spec.md §3, weeks map to a
// definite UCUM unit under both = and ~; day/hour/minute/second/
// millisecond likewise map under both; year and month only map under ~.
var calendarDurationUnit = map[string]string{
	"year": "a", "years": "a",
	"month": "mo", "months": "mo",
	"week": "wk", "weeks": "wk",
	"day": "d", "days": "d",
	"hour": "h", "hours": "h",
	"minute": "min", "minutes": "min",
	"second": "s", "seconds": "s",
	"millisecond": "ms", "milliseconds": "ms",
}

// calendarDurationMapsUnderEquality reports whether the given calendar word
// converts to its definite UCUM equivalent under strict equality (=). Only
// week and finer map under =; year and month require ~.
func calendarDurationMapsUnderEquality(word string) bool {
	switch word {
	case "week", "weeks", "day", "days", "hour", "hours",
		"minute", "minutes", "second", "seconds",
		"millisecond", "milliseconds":
		return true
	default:
		return false
	}
}
