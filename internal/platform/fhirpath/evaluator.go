package fhirpath

import (
	"reflect"
	"sort"
)

// eval tree-walks node against the current focus collection, generalizing
// the teacher's evalPath/evalCompare/evalAnd/evalOr/evalImplies/evalUnion
// dispatch (fhirpath.go) from its five hard-coded node kinds to the full
// nodeKind set. focus doubles as the implicit $this for every invocation
// that does not explicitly override it (lambda bodies evaluate with focus
// set to Single(item), so ndThis resolving to focus is exactly $this).
func eval(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	switch node.kind {
	case ndLiteral:
		if node.str == "{}" {
			return Empty(), nil
		}
		return Single(node.lit), nil

	case ndIdent:
		return evalPathStep(focus, node.str)

	case ndThis:
		return focus, nil

	case ndIndexVar:
		if idx, ok := ctx.Index(); ok {
			return Single(NewInteger(int64(idx))), nil
		}
		return Empty(), nil

	case ndTotalVar:
		if total, ok := ctx.Total(); ok {
			return total, nil
		}
		return Empty(), nil

	case ndResourceVar:
		return ctx.Resource(), nil

	case ndExternalConstant:
		return ctx.Variable(node.str)

	case ndUnary:
		return evalUnary(ctx, node, focus)

	case ndInvocation:
		lhs, err := eval(ctx, node.children[0], focus)
		if err != nil {
			return nil, err
		}
		return eval(ctx, node.children[1], lhs)

	case ndIndex:
		return evalIndex(ctx, node, focus)

	case ndUnion:
		lhs, err := eval(ctx, node.children[0], focus)
		if err != nil {
			return nil, err
		}
		rhs, err := eval(ctx, node.children[1], focus)
		if err != nil {
			return nil, err
		}
		return dedupCollection(append(append(Collection{}, lhs...), rhs...)), nil

	case ndBinary:
		return evalBinary(ctx, node, focus)

	case ndFunction:
		return evalFunctionCall(ctx, node, focus)

	default:
		return nil, typeErrorf("unhandled ast node kind %d", node.kind)
	}
}

// evalPathStep implements `.name` navigation: if the focus contains
// elements whose declared type matches name, it is a resource/type filter
// step (e.g. `Bundle.entry.resource.ofType(Patient)` style root matches);
// otherwise name is a field name resolved via Element.Children.
func evalPathStep(focus Collection, name string) (Collection, error) {
	if isResourceTypeName(name) {
		var matched Collection
		for _, v := range focus {
			if v.Kind() == KindElement && v.Element() != nil && v.Element().TypeName() == name {
				matched = append(matched, v)
			}
		}
		if len(matched) > 0 {
			return matched, nil
		}
		// None of the elements in focus declare this type: fall through to
		// treating name as a field, since a field may legitimately share a
		// name with a resource type (e.g. "Reference").
	}
	var out Collection
	for _, v := range focus {
		if v.Kind() != KindElement || v.Element() == nil {
			continue
		}
		out = append(out, v.Element().Children(name)...)
	}
	return out, nil
}

func evalUnary(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	operand, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	if node.str == "+" {
		return operand, nil
	}
	v, ok, err := operand.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindInteger:
		return Single(NewInteger(-v.Integer())), nil
	case KindLong:
		return Single(NewLong(-v.Long())), nil
	case KindDecimal:
		d := v.Decimal()
		return Single(NewDecimal(ctx.decNeg(&d))), nil
	case KindQuantity:
		q := v.Quantity()
		q.Value = ctx.decNeg(&q.Value)
		return Single(NewQuantity(q)), nil
	default:
		return nil, typeErrorf("unary '-' is not defined for %s", v.Kind())
	}
}

func evalIndex(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	lhs, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	idxColl, err := eval(ctx, node.children[1], focus)
	if err != nil {
		return nil, err
	}
	idxVal, ok, err := idxColl.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	var idx int64
	switch idxVal.Kind() {
	case KindInteger:
		idx = idxVal.Integer()
	case KindLong:
		idx = idxVal.Long()
	default:
		return nil, typeErrorf("indexer expects an Integer, got %s", idxVal.Kind())
	}
	if idx < 0 || idx >= int64(len(lhs)) {
		return Empty(), nil
	}
	return Single(lhs[idx]), nil
}

func dedupCollection(c Collection) Collection {
	var out Collection
	for _, v := range c {
		if !containsEqualValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsEqualValue(c Collection, v Value) bool {
	for _, e := range c {
		if valuesIdentical(e, v) {
			return true
		}
	}
	return false
}

// valuesIdentical backs distinct()/union()/dedup: structural equality for
// the scalar kinds, reference equality for Element (two different elements
// are never "the same" regardless of content, matching spec.md's silence on
// deep-equality of resource fragments: identity, not value, is what
// distinct() keys on for composite elements).
func valuesIdentical(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindBoolean:
		return a.Boolean() == b.Boolean()
	case KindInteger:
		return a.Integer() == b.Integer()
	case KindLong:
		return a.Long() == b.Long()
	case KindDecimal:
		ad, bd := a.Decimal(), b.Decimal()
		return decCmp(&ad, &bd) == 0
	case KindString:
		return a.String() == b.String()
	case KindDate, KindDateTime, KindTime:
		eq, decided := temporalEqual(a.Temporal(), b.Temporal())
		return decided && eq
	case KindQuantity:
		aq, bq := a.Quantity(), b.Quantity()
		return aq.Unit == bq.Unit && decCmp(&aq.Value, &bq.Value) == 0
	case KindElement:
		ae, be := a.Element(), b.Element()
		if am, ok := ae.(MapElement); ok {
			bm, ok := be.(MapElement)
			return ok && reflect.ValueOf(am.data).Pointer() == reflect.ValueOf(bm.data).Pointer()
		}
		if ae == nil || be == nil || !reflect.TypeOf(ae).Comparable() || !reflect.TypeOf(be).Comparable() {
			return ae == nil && be == nil
		}
		return ae == be
	default:
		return false
	}
}

func sortCollectionStable(c Collection, less func(a, b Value) bool) Collection {
	out := append(Collection{}, c...)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
