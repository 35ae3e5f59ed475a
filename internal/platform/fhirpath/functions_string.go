package fhirpath

import (
	"regexp"
	"strings"
)

// stringReceiver extracts the sole String value of focus, generalizing the
// teacher's fnStringPredicate receiver-unwrapping (fhirpath.go) across the
// whole string function family. ok=false (no error) when focus is empty.
func stringReceiver(name string, focus Collection) (string, bool, error) {
	v, ok, err := focus.Singleton()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	if v.Kind() != KindString {
		return "", false, typeErrorf("%s() expects a String receiver, got %s", name, v.Kind())
	}
	return v.String(), true, nil
}

func stringArg(ctx *Context, name string, node *astNode, focus Collection) (string, error) {
	c, err := eval(ctx, node, focus)
	if err != nil {
		return "", err
	}
	v, ok, err := c.Singleton()
	if err != nil {
		return "", err
	}
	if !ok || v.Kind() != KindString {
		return "", typeErrorf("%s() expects a String argument", name)
	}
	return v.String(), nil
}

func fnIndexOf(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("indexOf", args, 1, 1); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("indexOf", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	sub, err := stringArg(ctx, "indexOf", args[0], focus)
	if err != nil {
		return nil, err
	}
	idx := strings.Index(s, sub)
	return Single(NewInteger(int64(idx))), nil
}

func fnSubstring(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("substring", args, 1, 2); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("substring", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	runes := []rune(s)
	start, err := singleIntArg(ctx, args[0], focus)
	if err != nil {
		return nil, err
	}
	if start < 0 || int(start) >= len(runes) {
		return Empty(), nil
	}
	end := int64(len(runes))
	if len(args) == 2 {
		length, err := singleIntArg(ctx, args[1], focus)
		if err != nil {
			return nil, err
		}
		if length < 0 {
			length = 0
		}
		if start+length < end {
			end = start + length
		}
	}
	return Single(NewString(string(runes[start:end]))), nil
}

func fnStartsWith(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("startsWith", args, 1, 1); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("startsWith", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	prefix, err := stringArg(ctx, "startsWith", args[0], focus)
	if err != nil {
		return nil, err
	}
	return Single(NewBoolean(strings.HasPrefix(s, prefix))), nil
}

func fnEndsWith(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("endsWith", args, 1, 1); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("endsWith", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	suffix, err := stringArg(ctx, "endsWith", args[0], focus)
	if err != nil {
		return nil, err
	}
	return Single(NewBoolean(strings.HasSuffix(s, suffix))), nil
}

func fnStringContains(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("contains", args, 1, 1); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("contains", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	sub, err := stringArg(ctx, "contains", args[0], focus)
	if err != nil {
		return nil, err
	}
	return Single(NewBoolean(strings.Contains(s, sub))), nil
}

func fnUpper(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("upper", args, 0, 0); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("upper", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	return Single(NewString(strings.ToUpper(s))), nil
}

func fnLower(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("lower", args, 0, 0); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("lower", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	return Single(NewString(strings.ToLower(s))), nil
}

func fnReplace(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("replace", args, 2, 2); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("replace", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	pattern, err := stringArg(ctx, "replace", args[0], focus)
	if err != nil {
		return nil, err
	}
	sub, err := stringArg(ctx, "replace", args[1], focus)
	if err != nil {
		return nil, err
	}
	return Single(NewString(strings.ReplaceAll(s, pattern, sub))), nil
}

func fnMatches(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("matches", args, 1, 1); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("matches", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	pattern, err := stringArg(ctx, "matches", args[0], focus)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, typeErrorf("invalid regular expression %q: %v", pattern, err)
	}
	return Single(NewBoolean(re.MatchString(s))), nil
}

func fnReplaceMatches(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("replaceMatches", args, 2, 2); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("replaceMatches", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	pattern, err := stringArg(ctx, "replaceMatches", args[0], focus)
	if err != nil {
		return nil, err
	}
	sub, err := stringArg(ctx, "replaceMatches", args[1], focus)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, typeErrorf("invalid regular expression %q: %v", pattern, err)
	}
	return Single(NewString(re.ReplaceAllString(s, sub))), nil
}

func fnLength(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("length", args, 0, 0); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("length", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	return Single(NewInteger(int64(len([]rune(s))))), nil
}

func fnToChars(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("toChars", args, 0, 0); err != nil {
		return nil, err
	}
	s, ok, err := stringReceiver("toChars", focus)
	if err != nil || !ok {
		return Empty(), err
	}
	var out Collection
	for _, r := range s {
		out = append(out, NewString(string(r)))
	}
	return out, nil
}
