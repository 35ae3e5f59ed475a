package fhirpath

import "github.com/cockroachdb/apd/v3"

// evalBinary dispatches a ndBinary node by its operator text, generalizing
// the teacher's evalAnd/evalOr/evalImplies/evalCompare switch (fhirpath.go)
// across the full operator set: Kleene boolean logic, equality/equivalence,
// ordering, arithmetic, string concatenation, membership and type tests.
func evalBinary(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	op := node.str
	switch op {
	case "and", "or", "xor", "implies":
		return evalKleene(ctx, node, focus, op)
	case "is":
		return evalIs(ctx, node, focus)
	case "as":
		return evalAs(ctx, node, focus)
	case "in":
		return evalMembership(ctx, node, focus, false)
	case "contains":
		return evalMembership(ctx, node, focus, true)
	}

	lhs, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	rhs, err := eval(ctx, node.children[1], focus)
	if err != nil {
		return nil, err
	}

	switch op {
	case "=", "!=":
		return evalEquality(ctx, lhs, rhs, op == "!=")
	case "~", "!~":
		return evalEquivalence(ctx, lhs, rhs, op == "!~")
	case "<", ">", "<=", ">=":
		return evalOrdering(ctx, lhs, rhs, op)
	case "&":
		return evalConcat(lhs, rhs)
	case "+", "-", "*", "/", "div", "mod":
		return evalArithmetic(ctx, lhs, rhs, op)
	default:
		return nil, typeErrorf("unsupported operator %q", op)
	}
}

// ternaryBool is a Kleene truth value: true, false, or unknown (empty).
type ternaryBool struct {
	known bool
	value bool
}

func toTernary(c Collection) (ternaryBool, error) {
	v, ok, err := c.ToBool()
	if err != nil {
		return ternaryBool{}, err
	}
	if !ok {
		return ternaryBool{known: false}, nil
	}
	return ternaryBool{known: true, value: v}, nil
}

func ternaryToCollection(t ternaryBool) Collection {
	if !t.known {
		return Empty()
	}
	return Single(NewBoolean(t.value))
}

// evalKleene implements and/or/xor/implies over three-valued logic per
// spec.md §3/§8: empty participates as "unknown" but short-circuits when
// the other operand already determines the result (e.g. false and X = false
// even if X is empty).
func evalKleene(ctx *Context, node *astNode, focus Collection, op string) (Collection, error) {
	lhsC, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	lhs, err := toTernary(lhsC)
	if err != nil {
		return nil, err
	}

	if op == "and" && lhs.known && !lhs.value {
		return Single(NewBoolean(false)), nil
	}
	if op == "or" && lhs.known && lhs.value {
		return Single(NewBoolean(true)), nil
	}
	if op == "implies" && lhs.known && !lhs.value {
		return Single(NewBoolean(true)), nil
	}

	rhsC, err := eval(ctx, node.children[1], focus)
	if err != nil {
		return nil, err
	}
	rhs, err := toTernary(rhsC)
	if err != nil {
		return nil, err
	}

	switch op {
	case "and":
		if rhs.known && !rhs.value {
			return Single(NewBoolean(false)), nil
		}
		if lhs.known && rhs.known {
			return Single(NewBoolean(lhs.value && rhs.value)), nil
		}
		return Empty(), nil
	case "or":
		if rhs.known && rhs.value {
			return Single(NewBoolean(true)), nil
		}
		if lhs.known && rhs.known {
			return Single(NewBoolean(lhs.value || rhs.value)), nil
		}
		return Empty(), nil
	case "xor":
		if !lhs.known || !rhs.known {
			return Empty(), nil
		}
		return Single(NewBoolean(lhs.value != rhs.value)), nil
	case "implies":
		if rhs.known && rhs.value {
			return Single(NewBoolean(true)), nil
		}
		if !lhs.known {
			return Empty(), nil
		}
		if !rhs.known {
			return Empty(), nil
		}
		return Single(NewBoolean(!lhs.value || rhs.value)), nil
	default:
		return nil, typeErrorf("unsupported boolean operator %q", op)
	}
}

// evalEquality implements = / != per spec.md §3: empty propagates (either
// side empty yields empty, not false), mismatched collection lengths are
// false (not empty), element-wise comparison otherwise.
func evalEquality(ctx *Context, lhs, rhs Collection, negate bool) (Collection, error) {
	if lhs.IsEmpty() || rhs.IsEmpty() {
		return Empty(), nil
	}
	if len(lhs) != len(rhs) {
		return Single(NewBoolean(negate)), nil
	}
	eq := true
	for i := range lhs {
		ok, err := valueEquals(ctx, lhs[i], rhs[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			eq = false
			break
		}
	}
	if negate {
		eq = !eq
	}
	return Single(NewBoolean(eq)), nil
}

func valueEquals(ctx *Context, a, b Value) (bool, error) {
	if a.Kind() == KindQuantity && b.Kind() == KindQuantity {
		return ctx.quantityEqual(a.Quantity(), b.Quantity())
	}
	if a.isNumeric() && b.isNumeric() {
		ad, _ := a.AsDecimal()
		bd, _ := b.AsDecimal()
		return decCmp(&ad, &bd) == 0, nil
	}
	if (a.Kind() == KindDate || a.Kind() == KindDateTime || a.Kind() == KindTime) &&
		a.Kind() == b.Kind() {
		eq, decided := temporalEqual(a.Temporal(), b.Temporal())
		if !decided {
			return false, nil
		}
		return eq, nil
	}
	return valuesIdentical(a, b), nil
}

// evalEquivalence implements ~ / !~. Unlike =, equivalence never produces
// empty: missing vs missing is equivalent, and differing lengths are
// simply not equivalent.
func evalEquivalence(ctx *Context, lhs, rhs Collection, negate bool) (Collection, error) {
	if len(lhs) != len(rhs) {
		return Single(NewBoolean(negate)), nil
	}
	eq := true
	for i := range lhs {
		ok, err := valueEquivalent(ctx, lhs[i], rhs[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			eq = false
			break
		}
	}
	if negate {
		eq = !eq
	}
	return Single(NewBoolean(eq)), nil
}

func valueEquivalent(ctx *Context, a, b Value) (bool, error) {
	if a.Kind() == KindQuantity && b.Kind() == KindQuantity {
		return ctx.quantityEquivalent(a.Quantity(), b.Quantity())
	}
	if a.Kind() == KindString && b.Kind() == KindString {
		return normalizeWhitespaceCaseInsensitive(a.String()) == normalizeWhitespaceCaseInsensitive(b.String()), nil
	}
	return valueEquals(ctx, a, b)
}

// evalOrdering implements < > <= >=. Returns empty when either side is
// empty or when temporal precisions leave the comparison undecidable.
func evalOrdering(ctx *Context, lhs, rhs Collection, op string) (Collection, error) {
	a, aok, err := lhs.Singleton()
	if err != nil {
		return nil, err
	}
	b, bok, err := rhs.Singleton()
	if err != nil {
		return nil, err
	}
	if !aok || !bok {
		return Empty(), nil
	}
	cmp, decided, err := compareValues(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !decided {
		return Empty(), nil
	}
	var result bool
	switch op {
	case "<":
		result = cmp < 0
	case ">":
		result = cmp > 0
	case "<=":
		result = cmp <= 0
	case ">=":
		result = cmp >= 0
	}
	return Single(NewBoolean(result)), nil
}

func compareValues(ctx *Context, a, b Value) (cmp int, decided bool, err error) {
	switch {
	case a.isNumeric() && b.isNumeric():
		ad, _ := a.AsDecimal()
		bd, _ := b.AsDecimal()
		return decCmp(&ad, &bd), true, nil
	case a.Kind() == KindString && b.Kind() == KindString:
		switch {
		case a.String() < b.String():
			return -1, true, nil
		case a.String() > b.String():
			return 1, true, nil
		default:
			return 0, true, nil
		}
	case a.Kind() == KindQuantity && b.Kind() == KindQuantity:
		return ctx.quantityCompare(a.Quantity(), b.Quantity())
	case (a.Kind() == KindDate || a.Kind() == KindDateTime || a.Kind() == KindTime) && a.Kind() == b.Kind():
		return compareTemporal(a.Temporal(), b.Temporal())
	case a.Kind() == KindBoolean && b.Kind() == KindBoolean:
		ai, bi := 0, 0
		if a.Boolean() {
			ai = 1
		}
		if b.Boolean() {
			bi = 1
		}
		return ai - bi, true, nil
	default:
		return 0, false, typeErrorf("'<'/'>' not defined between %s and %s", a.Kind(), b.Kind())
	}
}

// evalConcat implements `&`, string concatenation treating either side
// empty as the empty string (unlike `+`, which propagates empty).
func evalConcat(lhs, rhs Collection) (Collection, error) {
	a, aok, err := lhs.Singleton()
	if err != nil {
		return nil, err
	}
	b, bok, err := rhs.Singleton()
	if err != nil {
		return nil, err
	}
	as, bs := "", ""
	if aok {
		if a.Kind() != KindString {
			return nil, typeErrorf("'&' expects String operands, got %s", a.Kind())
		}
		as = a.String()
	}
	if bok {
		if b.Kind() != KindString {
			return nil, typeErrorf("'&' expects String operands, got %s", b.Kind())
		}
		bs = b.String()
	}
	return Single(NewString(as + bs)), nil
}

// evalArithmetic implements + - * / div mod across Integer/Long/Decimal/
// Quantity/String (+ only, as concatenation alias) operand pairs.
func evalArithmetic(ctx *Context, lhs, rhs Collection, op string) (Collection, error) {
	a, aok, err := lhs.Singleton()
	if err != nil {
		return nil, err
	}
	b, bok, err := rhs.Singleton()
	if err != nil {
		return nil, err
	}
	if !aok || !bok {
		return Empty(), nil
	}

	if op == "+" && a.Kind() == KindString && b.Kind() == KindString {
		return Single(NewString(a.String() + b.String())), nil
	}

	if a.Kind() == KindQuantity || b.Kind() == KindQuantity {
		return evalQuantityArithmetic(ctx, a, b, op)
	}

	if !a.isNumeric() || !b.isNumeric() {
		return nil, typeErrorf("operator %q is not defined between %s and %s", op, a.Kind(), b.Kind())
	}

	ad, _ := a.AsDecimal()
	bd, _ := b.AsDecimal()

	switch op {
	case "+":
		v, err := ctx.decAdd(&ad, &bd)
		return wrapArithmeticResult(a, b, v), err
	case "-":
		v, err := ctx.decSub(&ad, &bd)
		return wrapArithmeticResult(a, b, v), err
	case "*":
		v, err := ctx.decMul(&ad, &bd)
		return wrapArithmeticResult(a, b, v), err
	case "/":
		v, ok, err := ctx.decQuo(&ad, &bd)
		if err != nil || !ok {
			return Empty(), err
		}
		return Single(NewDecimal(v)), nil
	case "div":
		v, ok, err := ctx.decDiv(&ad, &bd)
		if err != nil || !ok {
			return Empty(), err
		}
		return Single(intResultLike(a, b, v)), nil
	case "mod":
		v, ok, err := ctx.decMod(&ad, &bd)
		if err != nil || !ok {
			return Empty(), err
		}
		return Single(intResultLike(a, b, v)), nil
	default:
		return nil, typeErrorf("unsupported arithmetic operator %q", op)
	}
}

// wrapArithmeticResult keeps Integer+Integer as Integer, widening to
// Decimal whenever either operand is a Decimal.
func wrapArithmeticResult(a, b Value, v apd.Decimal) Collection {
	if a.Kind() == KindDecimal || b.Kind() == KindDecimal {
		return Single(NewDecimal(v))
	}
	if iv, err := v.Int64(); err == nil {
		if a.Kind() == KindLong || b.Kind() == KindLong {
			return Single(NewLong(iv))
		}
		return Single(NewInteger(iv))
	}
	return Single(NewDecimal(v))
}

func intResultLike(a, b Value, v apd.Decimal) Value {
	iv, err := v.Int64()
	if err != nil {
		return NewDecimal(v)
	}
	if a.Kind() == KindLong || b.Kind() == KindLong {
		return NewLong(iv)
	}
	if a.Kind() == KindInteger && b.Kind() == KindInteger {
		return NewInteger(iv)
	}
	return NewDecimal(v)
}

func evalQuantityArithmetic(ctx *Context, a, b Value, op string) (Collection, error) {
	aq, bq := asQuantity(a), asQuantity(b)
	switch op {
	case "+":
		q, ok, err := ctx.quantityAddSub(aq, bq, false)
		if err != nil || !ok {
			return Empty(), err
		}
		return Single(NewQuantity(q)), nil
	case "-":
		q, ok, err := ctx.quantityAddSub(aq, bq, true)
		if err != nil || !ok {
			return Empty(), err
		}
		return Single(NewQuantity(q)), nil
	case "*":
		q, err := ctx.quantityMul(aq, bq)
		if err != nil {
			return nil, err
		}
		return Single(NewQuantity(q)), nil
	case "/":
		q, ok, err := ctx.quantityDiv(aq, bq)
		if err != nil || !ok {
			return Empty(), err
		}
		return Single(NewQuantity(q)), nil
	default:
		return nil, typeErrorf("operator %q is not defined for Quantity", op)
	}
}

// asQuantity widens a bare number to a unitless Quantity so `5 'mg' * 2` and
// similar mixed expressions reuse the same codepath.
func asQuantity(v Value) Quantity {
	if v.Kind() == KindQuantity {
		return v.Quantity()
	}
	d, _ := v.AsDecimal()
	return Quantity{Value: d, Unit: "1"}
}

// evalIs implements `expr is Type`: empty -> empty, singleton -> whether
// its runtime type matches, multi-element -> singleton error per spec.md.
func evalIs(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	lhs, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	v, ok, err := lhs.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	return Single(NewBoolean(valueMatchesType(v, typeSpecName(node.children[1])))), nil
}

// evalAs implements `expr as Type`: the value if its type matches, empty
// otherwise.
func evalAs(ctx *Context, node *astNode, focus Collection) (Collection, error) {
	lhs, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	v, ok, err := lhs.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	if valueMatchesType(v, typeSpecName(node.children[1])) {
		return Single(v), nil
	}
	return Empty(), nil
}

func typeSpecName(n *astNode) string {
	name := n.str
	if i := lastDot(name); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// evalMembership implements `a in b` / `b contains a`.
func evalMembership(ctx *Context, node *astNode, focus Collection, containsForm bool) (Collection, error) {
	lhs, err := eval(ctx, node.children[0], focus)
	if err != nil {
		return nil, err
	}
	rhs, err := eval(ctx, node.children[1], focus)
	if err != nil {
		return nil, err
	}
	needle, haystack := lhs, rhs
	if containsForm {
		needle, haystack = rhs, lhs
	}
	v, ok, err := needle.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	for _, item := range haystack {
		eq, err := valueEquals(ctx, item, v)
		if err != nil {
			return nil, err
		}
		if eq {
			return Single(NewBoolean(true)), nil
		}
	}
	return Single(NewBoolean(false)), nil
}

func normalizeWhitespaceCaseInsensitive(s string) string {
	var b []rune
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !prevSpace && len(b) > 0 {
				b = append(b, ' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b = append(b, toLowerRune(r))
	}
	for len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return string(b)
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
