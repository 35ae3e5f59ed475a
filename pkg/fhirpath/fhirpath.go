// Package fhirpath is the public façade over the FHIRPath expression
// engine: parse an expression once, evaluate it against any number of
// resource trees that satisfy the internal engine's Element capability
// interface.
package fhirpath

import (
	"time"

	"github.com/rs/zerolog"

	internal "github.com/ehr/fhirpath/internal/platform/fhirpath"
)

// Re-exported types so callers never need to import the internal package
// directly, mirroring the teacher's pkg/ facade convention of wrapping
// internal/ types at the module boundary.
type (
	Value      = internal.Value
	Collection = internal.Collection
	Kind       = internal.Kind
	Element    = internal.Element
	MapElement = internal.MapElement
	Quantity   = internal.Quantity
	Temporal   = internal.Temporal
	Error      = internal.Error
	ErrorKind  = internal.ErrorKind
)

// DefaultPrecision is the decimal precision an Engine uses when no
// WithPrecision option overrides it.
const DefaultPrecision = internal.DefaultPrecision

const (
	KindBoolean  = internal.KindBoolean
	KindInteger  = internal.KindInteger
	KindLong     = internal.KindLong
	KindDecimal  = internal.KindDecimal
	KindString   = internal.KindString
	KindDate     = internal.KindDate
	KindDateTime = internal.KindDateTime
	KindTime     = internal.KindTime
	KindQuantity = internal.KindQuantity
	KindElement  = internal.KindElement
)

const (
	ErrParse      = internal.ErrParse
	ErrResolution = internal.ErrResolution
	ErrType       = internal.ErrType
	ErrArity      = internal.ErrArity
	ErrSingleton  = internal.ErrSingleton
)

var (
	NewMapElement = internal.NewMapElement
	NewBoolean    = internal.NewBoolean
	NewInteger    = internal.NewInteger
	NewString     = internal.NewString
)

// Expression is a parsed, reusable FHIRPath AST. Parsing is separated from
// evaluation so a host can parse an expression once (e.g. at startup, from
// a FHIR SearchParameter or StructureDefinition invariant) and evaluate it
// repeatedly without re-lexing/parsing, exactly like the teacher's
// FHIRPathEngine.Parse/Evaluate split in fhirpath.go.
type Expression struct {
	compiled *internal.CompiledExpression
	engine   *Engine
}

// Engine owns the evaluation configuration (decimal precision, the clock
// used by now()/today()/timeOfDay(), and the logger trace() writes to).
// It holds no mutable state beyond that configuration and is safe for
// concurrent use: every Evaluate call builds its own internal Context.
type Engine struct {
	precision int32
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithPrecision overrides the default 15-significant-digit decimal
// precision used for arithmetic and rounding.
func WithPrecision(digits int32) Option {
	return func(e *Engine) { e.precision = digits }
}

// WithLogger sets the zerolog.Logger that trace() writes debug events to.
// The zero value (zerolog.Nop()) discards trace output.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the function used to resolve now()/today()/
// timeOfDay(), for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine constructs an Engine. Defaults: 15-digit precision, a no-op
// logger, and the real wall clock.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		precision: internal.DefaultPrecision,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse compiles a FHIRPath expression string into a reusable Expression.
// Returns a *Error (Kind == ErrParse) on malformed input.
func (e *Engine) Parse(expr string) (*Expression, error) {
	compiled, err := internal.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Expression{compiled: compiled, engine: e}, nil
}

// Evaluate runs expr against resource, returning the result Collection.
// resource is wrapped as the $resource/input-context root; pass nil to
// evaluate an expression that only uses literals and variables.
func (expr *Expression) Evaluate(resource Element, vars map[string]*Value) (Collection, error) {
	return internal.EvaluateCompiled(expr.compiled, resource, vars, expr.engine.precision, expr.engine.now(), expr.engine.logger)
}

// EvaluateString is a one-shot convenience wrapper combining Parse and
// Evaluate for callers who do not need to reuse the parsed expression.
func (e *Engine) EvaluateString(expr string, resource Element, vars map[string]*Value) (Collection, error) {
	compiled, err := e.Parse(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(resource, vars)
}
