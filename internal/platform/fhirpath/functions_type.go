package fhirpath

import (
	"strconv"
	"strings"
)

// valueMatchesType backs `is`/`as`/ofType: intrinsic kinds match by name,
// Element values match by the resource adapter's declared TypeName.
func valueMatchesType(v Value, typeName string) bool {
	if v.Kind() == KindElement {
		return v.Element() != nil && v.Element().TypeName() == typeName
	}
	switch typeName {
	case "Boolean":
		return v.Kind() == KindBoolean
	case "Integer":
		return v.Kind() == KindInteger
	case "Long":
		return v.Kind() == KindLong
	case "Decimal":
		return v.Kind() == KindDecimal
	case "String":
		return v.Kind() == KindString
	case "Date":
		return v.Kind() == KindDate
	case "DateTime":
		return v.Kind() == KindDateTime
	case "Time":
		return v.Kind() == KindTime
	case "Quantity":
		return v.Kind() == KindQuantity
	default:
		return false
	}
}

// typeNameFromArgNode extracts a bare or dotted type name from an ofType()
// argument, which parses as an ordinary expression (an ndIdent, or an
// ndInvocation chain for a qualified name like FHIR.Patient) rather than
// the ndTypeSpec the `is`/`as` infix operators produce.
func typeNameFromArgNode(node *astNode) (string, error) {
	switch node.kind {
	case ndIdent:
		return node.str, nil
	case ndInvocation:
		return typeNameFromArgNode(node.children[1])
	default:
		return "", typeErrorf("expected a type name argument")
	}
}

func fnOfType(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("ofType", args, 1, 1); err != nil {
		return nil, err
	}
	typeName, err := typeNameFromArgNode(args[0])
	if err != nil {
		return nil, err
	}
	var out Collection
	for _, v := range focus {
		if valueMatchesType(v, typeName) {
			out = append(out, v)
		}
	}
	return out, nil
}

func fnType(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("type", args, 0, 0); err != nil {
		return nil, err
	}
	var out Collection
	for _, v := range focus {
		if v.Kind() == KindElement && v.Element() != nil {
			out = append(out, NewString("FHIR."+v.Element().TypeName()))
			continue
		}
		out = append(out, NewString("System."+v.Kind().String()))
	}
	return out, nil
}

func fnToInteger(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toInteger", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindInteger:
		return Single(v), nil
	case KindLong:
		return Single(NewInteger(v.Long())), nil
	case KindBoolean:
		if v.Boolean() {
			return Single(NewInteger(1)), nil
		}
		return Single(NewInteger(0)), nil
	case KindDecimal:
		d := v.Decimal()
		iv, err := d.Int64()
		if err != nil {
			return Empty(), nil
		}
		return Single(NewInteger(iv)), nil
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		if err != nil {
			return Empty(), nil
		}
		return Single(NewInteger(n)), nil
	default:
		return Empty(), nil
	}
}

func fnToDecimal(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toDecimal", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindDecimal:
		return Single(v), nil
	case KindInteger, KindLong:
		d, _ := v.AsDecimal()
		return Single(NewDecimal(d)), nil
	case KindBoolean:
		if v.Boolean() {
			return decimalLiteralColl("1")
		}
		return decimalLiteralColl("0")
	case KindString:
		val, err := NewDecimalFromString(strings.TrimSpace(v.String()))
		if err != nil {
			return Empty(), nil
		}
		return Single(val), nil
	default:
		return Empty(), nil
	}
}

func decimalLiteralColl(s string) (Collection, error) {
	v, err := NewDecimalFromString(s)
	if err != nil {
		return Empty(), nil
	}
	return Single(v), nil
}

func fnToString(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toString", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	return Single(NewString(v.Display())), nil
}

func fnToBoolean(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toBoolean", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindBoolean:
		return Single(v), nil
	case KindInteger:
		switch v.Integer() {
		case 1:
			return Single(NewBoolean(true)), nil
		case 0:
			return Single(NewBoolean(false)), nil
		}
		return Empty(), nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.String())) {
		case "true", "t", "yes", "y", "1", "1.0":
			return Single(NewBoolean(true)), nil
		case "false", "f", "no", "n", "0", "0.0":
			return Single(NewBoolean(false)), nil
		}
		return Empty(), nil
	default:
		return Empty(), nil
	}
}

func fnToDate(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toDate", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindDate:
		return Single(v), nil
	case KindDateTime:
		t := v.Temporal()
		if t.Precision > PrecDay {
			t.Precision = PrecDay
		}
		return Single(NewDate(t)), nil
	case KindString:
		t, kind, err := parseDateTimeLiteral(v.String())
		if err != nil || kind != KindDate {
			return Empty(), nil
		}
		return Single(NewDate(t)), nil
	default:
		return Empty(), nil
	}
}

func fnToDateTime(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toDateTime", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindDateTime:
		return Single(v), nil
	case KindDate:
		return Single(NewDateTime(v.Temporal())), nil
	case KindString:
		t, kind, err := parseDateTimeLiteral(v.String())
		if err != nil || kind != KindDateTime {
			return Empty(), nil
		}
		return Single(NewDateTime(t)), nil
	default:
		return Empty(), nil
	}
}

func fnToTime(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toTime", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindTime:
		return Single(v), nil
	case KindString:
		t, err := parseTimeLiteral(strings.TrimPrefix(v.String(), "T"))
		if err != nil {
			return Empty(), nil
		}
		return Single(NewTime(t)), nil
	default:
		return Empty(), nil
	}
}

func fnToQuantity(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toQuantity", args, 0, 0); err != nil {
		return nil, err
	}
	v, ok, err := focus.Singleton()
	if err != nil {
		return nil, err
	}
	if !ok {
		return Empty(), nil
	}
	switch v.Kind() {
	case KindQuantity:
		return Single(v), nil
	case KindInteger, KindLong, KindDecimal:
		d, _ := v.AsDecimal()
		return Single(NewQuantity(Quantity{Value: d, Unit: "1"})), nil
	case KindString:
		parts := strings.SplitN(strings.TrimSpace(v.String()), " ", 2)
		d, err := parseDecimal(parts[0])
		if err != nil {
			return Empty(), nil
		}
		unit := "1"
		if len(parts) == 2 {
			unit = strings.Trim(strings.TrimSpace(parts[1]), "'")
		}
		return Single(NewQuantity(Quantity{Value: d, Unit: unit})), nil
	default:
		return Empty(), nil
	}
}
