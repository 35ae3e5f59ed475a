package fhirpath

// fnImpl is a built-in function implementation. It receives the receiver
// collection (focus) and the unevaluated argument nodes, since lambda-
// shaped arguments (where, select, all, repeat, aggregate) must be
// re-evaluated once per element with $this/$index/$total bound, while
// plain-value arguments (substring's length, replace's pattern) are
// evaluated once against the ambient focus.
type fnImpl func(ctx *Context, focus Collection, args []*astNode) (Collection, error)

// functionRegistry is the built-in function table, generalizing the
// teacher's switch-based function dispatch (fnWhere/fnExists/fnAll/...) in
// fhirpath.go into a registry keyed by name, the shape the rest of the
// N1 function library (string/math/type/datetime families) all plug into.
var functionRegistry map[string]fnImpl

func init() {
	functionRegistry = map[string]fnImpl{
		// Existence
		"empty":      fnEmpty,
		"exists":     fnExists,
		"all":        fnAll,
		"allTrue":    fnAllTrue,
		"anyTrue":    fnAnyTrue,
		"allFalse":   fnAllFalse,
		"anyFalse":   fnAnyFalse,
		"subsetOf":   fnSubsetOf,
		"supersetOf": fnSupersetOf,
		"count":      fnCount,
		"distinct":   fnDistinct,
		"isDistinct": fnIsDistinct,
		"not":        fnNot,

		// Filtering / projection
		"where":  fnWhere,
		"select": fnSelect,
		"repeat": fnRepeat,
		"ofType": fnOfType,

		// Aggregation
		"aggregate": fnAggregate,

		// Subsetting
		"first":  fnFirst,
		"last":   fnLast,
		"tail":   fnTail,
		"skip":   fnSkip,
		"take":   fnTake,
		"single": fnSingle,

		// Combining
		"union":     fnUnion,
		"combine":   fnCombine,
		"exclude":   fnExclude,
		"intersect": fnIntersect,

		// Strings
		"indexOf":        fnIndexOf,
		"substring":      fnSubstring,
		"startsWith":     fnStartsWith,
		"endsWith":       fnEndsWith,
		"contains":       fnStringContains,
		"upper":          fnUpper,
		"lower":          fnLower,
		"replace":        fnReplace,
		"matches":        fnMatches,
		"replaceMatches": fnReplaceMatches,
		"length":         fnLength,
		"toChars":        fnToChars,

		// Math / conversion
		"abs":                fnAbs,
		"ceiling":            fnCeiling,
		"floor":              fnFloor,
		"round":              fnRound,
		"sqrt":               fnSqrt,
		"truncate":           fnTruncate,
		"exp":                fnExp,
		"ln":                 fnLn,
		"log":                fnLog,
		"power":              fnPower,
		"toInteger":          fnToInteger,
		"toDecimal":          fnToDecimal,
		"toString":           fnToString,
		"toDate":             fnToDate,
		"toDateTime":         fnToDateTime,
		"toTime":             fnToTime,
		"toQuantity":         fnToQuantity,
		"toBoolean":          fnToBoolean,
		"convertsToInteger":  convertsTo(fnToInteger),
		"convertsToDecimal":  convertsTo(fnToDecimal),
		"convertsToString":   convertsTo(fnToString),
		"convertsToDate":     convertsTo(fnToDate),
		"convertsToDateTime": convertsTo(fnToDateTime),
		"convertsToTime":     convertsTo(fnToTime),
		"convertsToQuantity": convertsTo(fnToQuantity),
		"convertsToBoolean":  convertsTo(fnToBoolean),

		// Types
		"type": fnType,

		// Datetime
		"now":        fnNow,
		"today":      fnToday,
		"timeOfDay":  fnTimeOfDay,

		// Misc
		"iif":         fnIif,
		"trace":       fnTrace,
		"children":    fnChildren,
		"descendants": fnDescendants,
		"conformsTo":  fnConformsTo,
	}
}

func evalFunctionCall(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	impl, ok := functionRegistry[node.str]
	if !ok {
		return nil, resolutionErrorf(-1, "unknown function %q", node.str)
	}
	return impl(ctx, focus, node.children)
}

func requireArity(name string, args []*astNode, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		if min == max {
			return arityErrorf("%s expects %d argument(s), got %d", name, min, len(args))
		}
		return arityErrorf("%s expects between %d and %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

// evalEach re-evaluates argNode once per item of focus, with $this/$index
// bound to that item, and collects the per-item results in order — the
// shared shape behind where/select/all/exists(criteria)/repeat.
func evalEach(ctx *Context, argNode *astNode, focus Collection) ([]Collection, error) {
	out := make([]Collection, len(focus))
	for i, item := range focus {
		itemCtx := ctx.WithThis(item, i)
		res, err := eval(itemCtx, argNode, Single(item))
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

func convertsTo(to fnImpl) fnImpl {
	return func(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
		res, err := to(ctx, focus, args)
		if err != nil {
			if _, ok := err.(*Error); ok {
				return Single(NewBoolean(false)), nil
			}
			return nil, err
		}
		return Single(NewBoolean(!res.IsEmpty())), nil
	}
}
