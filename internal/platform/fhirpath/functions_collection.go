package fhirpath

// Existence family, generalizing the teacher's fnExists/fnAll (fhirpath.go)
// to the full existence group spec.md §4.2 lists.

func fnEmpty(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("empty", args, 0, 0); err != nil {
		return nil, err
	}
	return Single(NewBoolean(focus.IsEmpty())), nil
}

func fnExists(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("exists", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Single(NewBoolean(!focus.IsEmpty())), nil
	}
	filtered, err := fnWhere(ctx, focus, args)
	if err != nil {
		return nil, err
	}
	return Single(NewBoolean(!filtered.IsEmpty())), nil
}

func fnAll(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("all", args, 1, 1); err != nil {
		return nil, err
	}
	results, err := evalEach(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		v, ok, err := r.ToBool()
		if err != nil {
			return nil, err
		}
		if !ok || !v {
			return Single(NewBoolean(false)), nil
		}
	}
	return Single(NewBoolean(true)), nil
}

func fnAllTrue(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	return boolAggregate(focus, true, true)
}

func fnAnyTrue(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	return boolAggregate(focus, true, false)
}

func fnAllFalse(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	return boolAggregate(focus, false, true)
}

func fnAnyFalse(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	return boolAggregate(focus, false, false)
}

// boolAggregate implements allTrue/anyTrue/allFalse/anyFalse: wantValue is
// the boolean being tallied, requireAll selects "all must match" vs. "any
// one match".
func boolAggregate(focus Collection, wantValue, requireAll bool) (Collection, error) {
	if focus.IsEmpty() {
		return Single(NewBoolean(requireAll)), nil
	}
	for _, v := range focus {
		if v.Kind() != KindBoolean {
			return nil, typeErrorf("expected a collection of Boolean, got %s", v.Kind())
		}
		if requireAll && v.Boolean() != wantValue {
			return Single(NewBoolean(false)), nil
		}
		if !requireAll && v.Boolean() == wantValue {
			return Single(NewBoolean(true)), nil
		}
	}
	return Single(NewBoolean(requireAll)), nil
}

func fnSubsetOf(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("subsetOf", args, 1, 1); err != nil {
		return nil, err
	}
	other, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	for _, v := range focus {
		if !containsEqualValue(other, v) {
			return Single(NewBoolean(false)), nil
		}
	}
	return Single(NewBoolean(true)), nil
}

func fnSupersetOf(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("supersetOf", args, 1, 1); err != nil {
		return nil, err
	}
	other, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	for _, v := range other {
		if !containsEqualValue(focus, v) {
			return Single(NewBoolean(false)), nil
		}
	}
	return Single(NewBoolean(true)), nil
}

func fnCount(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("count", args, 0, 0); err != nil {
		return nil, err
	}
	return Single(NewInteger(int64(len(focus)))), nil
}

func fnDistinct(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("distinct", args, 0, 0); err != nil {
		return nil, err
	}
	return dedupCollection(focus), nil
}

func fnIsDistinct(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("isDistinct", args, 0, 0); err != nil {
		return nil, err
	}
	return Single(NewBoolean(len(dedupCollection(focus)) == len(focus))), nil
}

func fnNot(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("not", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.ToBool()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	return Single(NewBoolean(!v)), nil
}

// Filtering / projection

func fnWhere(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("where", args, 1, 1); err != nil {
		return nil, err
	}
	results, err := evalEach(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	var out Collection
	for i, r := range results {
		v, ok, err := r.ToBool()
		if err != nil {
			return nil, err
		}
		if ok && v {
			out = append(out, focus[i])
		}
	}
	return out, nil
}

func fnSelect(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("select", args, 1, 1); err != nil {
		return nil, err
	}
	results, err := evalEach(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	var out Collection
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// fnRepeat implements repeat(projection) as fixed-point iteration with
// duplicate elimination by identity, per spec.md §4.2.
func fnRepeat(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("repeat", args, 1, 1); err != nil {
		return nil, err
	}
	seen := Collection{}
	frontier := focus
	var out Collection
	for len(frontier) > 0 {
		results, err := evalEach(ctx, args[0], frontier)
		if err != nil {
			return nil, err
		}
		var next Collection
		for _, r := range results {
			for _, v := range r {
				if containsEqualValue(seen, v) {
					continue
				}
				seen = append(seen, v)
				out = append(out, v)
				next = append(next, v)
			}
		}
		frontier = next
	}
	return out, nil
}

// Aggregation

// fnAggregate implements aggregate(expr, init?): threads $total across
// $this iterations. Each nested aggregate() call pushes its own WithTotal
// frame, so an inner aggregate's $total never observes or mutates the
// outer's, satisfying spec.md §4.2's scoping rule.
func fnAggregate(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("aggregate", args, 1, 2); err != nil {
		return nil, err
	}
	var total Collection
	if len(args) == 2 {
		init, err := eval(ctx, args[1], focus)
		if err != nil {
			return nil, err
		}
		total = init
	}
	for i, item := range focus {
		frame := ctx.WithTotal(total).WithThis(item, i)
		res, err := eval(frame, args[0], Single(item))
		if err != nil {
			return nil, err
		}
		total = res
	}
	return total, nil
}

// Subsetting

func fnFirst(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("first", args, 0, 0); err != nil {
		return nil, err
	}
	if len(focus) == 0 {
		return Empty(), nil
	}
	return Single(focus[0]), nil
}

func fnLast(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("last", args, 0, 0); err != nil {
		return nil, err
	}
	if len(focus) == 0 {
		return Empty(), nil
	}
	return Single(focus[len(focus)-1]), nil
}

func fnTail(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("tail", args, 0, 0); err != nil {
		return nil, err
	}
	if len(focus) <= 1 {
		return Empty(), nil
	}
	return append(Collection{}, focus[1:]...), nil
}

func fnSkip(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("skip", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := singleIntArg(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if int(n) >= len(focus) {
		return Empty(), nil
	}
	return append(Collection{}, focus[n:]...), nil
}

func fnTake(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("take", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := singleIntArg(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return Empty(), nil
	}
	if int(n) > len(focus) {
		n = int64(len(focus))
	}
	return append(Collection{}, focus[:n]...), nil
}

func fnSingle(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("single", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	return Single(v), nil
}

func singleIntArg(ctx *Context, node *astNode, focus Collection) (int64, error) {
	c, err := eval(ctx, node, focus)
	if err != nil {
		return 0, err
	}
	v, ok, err := c.Singleton()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, typeErrorf("expected a singleton Integer argument")
	}
	switch v.Kind() {
	case KindInteger:
		return v.Integer(), nil
	case KindLong:
		return v.Long(), nil
	default:
		return 0, typeErrorf("expected an Integer argument, got %s", v.Kind())
	}
}

// Combining

func fnUnion(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("union", args, 1, 1); err != nil {
		return nil, err
	}
	other, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	return dedupCollection(append(append(Collection{}, focus...), other...)), nil
}

func fnCombine(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("combine", args, 1, 1); err != nil {
		return nil, err
	}
	other, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	return append(append(Collection{}, focus...), other...), nil
}

func fnExclude(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("exclude", args, 1, 1); err != nil {
		return nil, err
	}
	other, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	var out Collection
	for _, v := range focus {
		if !containsEqualValue(other, v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func fnIntersect(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("intersect", args, 1, 1); err != nil {
		return nil, err
	}
	other, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	var out Collection
	for _, v := range focus {
		if containsEqualValue(other, v) && !containsEqualValue(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Misc

func fnIif(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("iif", args, 2, 3); err != nil {
		return nil, err
	}
	cond, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	v, ok, err := cond.ToBool()
	if err != nil {
		return nil, err
	}
	if ok && v {
		return eval(ctx, args[1], focus)
	}
	if len(args) == 3 {
		return eval(ctx, args[2], focus)
	}
	return Empty(), nil
}

func fnTrace(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("trace", args, 1, 2); err != nil {
		return nil, err
	}
	name, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	label := ""
	if v, ok, _ := name.Singleton(); ok {
		label = v.Display()
	}
	projection := focus
	if len(args) == 2 {
		projection, err = eval(ctx, args[1], focus)
		if err != nil {
			return nil, err
		}
	}
	logEvt := ctx.Logger().Debug().Str("trace", label).Int("count", len(projection))
	for i, v := range projection {
		logEvt = logEvt.Str("item", itoaSimple(i)+":"+v.Display())
	}
	logEvt.Msg("fhirpath trace")
	return focus, nil
}

func itoaSimple(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func fnChildren(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("children", args, 0, 0); err != nil {
		return nil, err
	}
	var out Collection
	for _, v := range focus {
		if v.Kind() == KindElement && v.Element() != nil {
			out = append(out, v.Element().Children("*")...)
		}
	}
	return out, nil
}

func fnDescendants(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("descendants", args, 0, 0); err != nil {
		return nil, err
	}
	return fnRepeat(ctx, focus, []*astNode{childrenCallNode})
}

// childrenCallNode is a fixed ndFunction("children") node reused by
// descendants()'s repeat() delegation.
var childrenCallNode = newNode(ndFunction, "children")

// fnConformsTo implements conformsTo(structureURL): since this module has
// no profile/StructureDefinition registry, it reports "does not conform"
// by returning false for any non-empty input (empty input gives empty)
// rather than erroring: the call is well-typed, just unverifiable here.
func fnConformsTo(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("conformsTo", args, 1, 1); err != nil {
		return nil, err
	}
	if focus.IsEmpty() {
		return Empty(), nil
	}
	return Single(NewBoolean(false)), nil
}
