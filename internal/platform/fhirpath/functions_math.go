package fhirpath

import "github.com/cockroachdb/apd/v3"

// numericReceiver extracts the sole numeric (Integer/Long/Decimal) value of
// focus as an apd.Decimal, generalizing the teacher's fnMathUnary receiver
// handling (fhirpath.go) across the whole math function family.
func numericReceiver(name string, focus Collection) (apd.Decimal, bool, error) {
	v, ok, err := focus.Singleton()
	if err != nil {
		return apd.Decimal{}, false, err
	}
	if !ok {
		return apd.Decimal{}, false, nil
	}
	d, ok := v.AsDecimal()
	if !ok {
		return apd.Decimal{}, false, typeErrorf("%s() expects a numeric receiver, got %s", name, v.Kind())
	}
	return d, true, nil
}

func fnAbs(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("abs", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	if v.Kind() == KindQuantity {
		q := v.Quantity()
		var z apd.Decimal
		ctx.decimalCtx().Abs(&z, &q.Value)
		q.Value = z
		return Single(NewQuantity(q)), nil
	}
	d, ok := v.AsDecimal()
	if !ok {
		return nil, typeErrorf("abs() expects a numeric receiver, got %s", v.Kind())
	}
	var z apd.Decimal
	ctx.decimalCtx().Abs(&z, &d)
	return Single(wrapNumericLike(v, z)), nil
}

func wrapNumericLike(like Value, z apd.Decimal) Value {
	if like.Kind() == KindDecimal {
		return NewDecimal(z)
	}
	if iv, err := z.Int64(); err == nil {
		if like.Kind() == KindLong {
			return NewLong(iv)
		}
		return NewInteger(iv)
	}
	return NewDecimal(z)
}

func fnCeiling(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("ceiling", args, 0, 0); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("ceiling", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	roundCtx := decimalContext(ctx.precision)
	roundCtx.Rounding = apd.RoundCeiling
	var z apd.Decimal
	if _, err := roundCtx.RoundToIntegralValue(&z, &d); err != nil {
		return nil, err
	}
	iv, _ := z.Int64()
	return Single(NewInteger(iv)), nil
}

func fnFloor(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("floor", args, 0, 0); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("floor", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	roundCtx := decimalContext(ctx.precision)
	roundCtx.Rounding = apd.RoundFloor
	var z apd.Decimal
	if _, err := roundCtx.RoundToIntegralValue(&z, &d); err != nil {
		return nil, err
	}
	iv, _ := z.Int64()
	return Single(NewInteger(iv)), nil
}

func fnRound(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("round", args, 0, 1); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("round", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	precision := int64(0)
	if len(args) == 1 {
		precision, err = singleIntArg(ctx, args[0], focus)
		if err != nil {
			return nil, err
		}
	}
	var z apd.Decimal
	roundCtx := decimalContext(ctx.precision)
	if _, err := roundCtx.Quantize(&z, &d, int32(-precision)); err != nil {
		return nil, err
	}
	if precision <= 0 {
		iv, ierr := z.Int64()
		if ierr == nil {
			return Single(NewInteger(iv)), nil
		}
	}
	return Single(NewDecimal(z)), nil
}

func fnSqrt(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("sqrt", args, 0, 0); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("sqrt", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	if d.Sign() < 0 {
		return Empty(), nil
	}
	var z apd.Decimal
	if _, err := ctx.decimalCtx().Sqrt(&z, &d); err != nil {
		return nil, err
	}
	return Single(NewDecimal(z)), nil
}

func fnTruncate(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("truncate", args, 0, 0); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("truncate", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	truncCtx := decimalContext(ctx.precision)
	truncCtx.Rounding = apd.RoundDown
	var z apd.Decimal
	if _, err := truncCtx.Quantize(&z, &d, 0); err != nil {
		return nil, err
	}
	iv, _ := z.Int64()
	return Single(NewInteger(iv)), nil
}

func fnExp(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("exp", args, 0, 0); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("exp", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	var z apd.Decimal
	if _, err := ctx.decimalCtx().Exp(&z, &d); err != nil {
		return nil, err
	}
	return Single(NewDecimal(z)), nil
}

func fnLn(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("ln", args, 0, 0); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("ln", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	if d.Sign() <= 0 {
		return Empty(), nil
	}
	var z apd.Decimal
	if _, err := ctx.decimalCtx().Ln(&z, &d); err != nil {
		return nil, err
	}
	return Single(NewDecimal(z)), nil
}

func fnLog(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("log", args, 1, 1); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("log", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	baseColl, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	baseVal, bok, err := baseColl.Singleton()
	if err != nil {
		return nil, err
	}
	if !bok {
		return Empty(), nil
	}
	base, ok := baseVal.AsDecimal()
	if !ok {
		return nil, typeErrorf("log() expects a numeric base, got %s", baseVal.Kind())
	}
	if d.Sign() <= 0 || base.Sign() <= 0 {
		return Empty(), nil
	}
	var lnD, lnBase apd.Decimal
	dctx := ctx.decimalCtx()
	if _, err := dctx.Ln(&lnD, &d); err != nil {
		return nil, err
	}
	if _, err := dctx.Ln(&lnBase, &base); err != nil {
		return nil, err
	}
	var z apd.Decimal
	if _, err := dctx.Quo(&z, &lnD, &lnBase); err != nil {
		return nil, err
	}
	return Single(NewDecimal(z)), nil
}

func fnPower(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("power", args, 1, 1); err != nil {
		return nil, err
	}
	d, ok, err := numericReceiver("power", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	expColl, err := eval(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	expVal, eok, err := expColl.Singleton()
	if err != nil {
		return nil, err
	}
	if !eok {
		return Empty(), nil
	}
	exponent, ok := expVal.AsDecimal()
	if !ok {
		return nil, typeErrorf("power() expects a numeric exponent, got %s", expVal.Kind())
	}
	var z apd.Decimal
	if _, err := ctx.decimalCtx().Pow(&z, &d, &exponent); err != nil {
		// A negative base with a fractional exponent, or a similar
		// undefined-in-the-reals case, surfaces as empty rather than error.
		return Empty(), nil
	}
	base := firstNonEmpty(focus)
	return Single(wrapNumericLike(base, z)), nil
}

func firstNonEmpty(c Collection) Value {
	if len(c) == 0 {
		return Value{}
	}
	return c[0]
}
