package fhirpath

import (
	"time"

	"github.com/rs/zerolog"
)

// CompiledExpression is a parsed, reusable FHIRPath AST — the type the
// public façade's Expression wraps, so a host pays the parse cost once and
// evaluates many times, the same Parse/Evaluate split as the teacher's
// FHIRPathEngine in fhirpath.go.
type CompiledExpression struct {
	ast *astNode
}

// Compile parses expr into a CompiledExpression. Returns a *Error
// (Kind == ErrParse) on malformed input.
func Compile(expr string) (*CompiledExpression, error) {
	ast, err := parseFHIRPath(expr)
	if err != nil {
		return nil, err
	}
	return &CompiledExpression{ast: ast}, nil
}

// EvaluateCompiled runs a previously Compile'd expression against a fresh
// Context built around the given resource, variables, decimal precision,
// clock reading and logger.
func EvaluateCompiled(c *CompiledExpression, resource Element, vars map[string]*Value, precision int32, now time.Time, logger zerolog.Logger) (Collection, error) {
	var rootFocus Collection
	if resource != nil {
		rootFocus = Single(NewElement(resource))
	}
	ctx := newContext(rootFocus, vars, precision, temporalFromTime(now), logger)
	return eval(ctx, c.ast, rootFocus)
}

func temporalFromTime(t time.Time) Temporal {
	_, offset := t.Zone()
	return Temporal{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Ms: t.Nanosecond() / 1e6,
		Precision: PrecMillisecond, HasTZ: true, TZOffsetSeconds: offset,
	}
}
