package fhirpath

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"
)

// Context is the immutable evaluation context described in spec.md §3:
// the resource root ($resource), the per-iteration focus ($this), the
// per-iteration position ($index), an aggregate accumulator ($total), and
// user-supplied variables. Iteration constructs push a new frame by
// returning a copy with the relevant field(s) set; the original is never
// mutated, so a frame can be safely captured and reused (e.g. by nested
// aggregate calls, which must not observe each other's $total).
type Context struct {
	resource Collection
	vars     map[string]*Value

	this     Value
	hasThis  bool
	index    int
	hasIndex bool
	total    Collection
	hasTotal bool

	precision int32
	now       Temporal
	logger    zerolog.Logger
}

func newContext(resource Collection, vars map[string]*Value, precision int32, now Temporal, logger zerolog.Logger) *Context {
	return &Context{
		resource:  resource,
		vars:      vars,
		precision: precision,
		now:       now,
		logger:    logger,
	}
}

func (c *Context) decimalCtx() *apd.Context {
	return decimalContext(c.precision)
}

// clone returns a shallow copy; the maps/slices referenced are treated as
// immutable by convention so sharing them across frames is safe.
func (c *Context) clone() *Context {
	cp := *c
	return &cp
}

// WithThis pushes a new frame binding $this/$index for one iteration step.
func (c *Context) WithThis(v Value, index int) *Context {
	cp := c.clone()
	cp.this = v
	cp.hasThis = true
	cp.index = index
	cp.hasIndex = true
	return cp
}

// WithTotal pushes a new frame establishing (or replacing) the $total
// accumulator for an aggregate() call. Nested aggregate() calls call this
// again, producing a frame whose $total is independent of the enclosing
// one — satisfying spec.md §4.3's aggregate-scoping rule.
func (c *Context) WithTotal(v Collection) *Context {
	cp := c.clone()
	cp.total = v
	cp.hasTotal = true
	return cp
}

func (c *Context) This() (Value, bool)       { return c.this, c.hasThis }
func (c *Context) Index() (int, bool)        { return c.index, c.hasIndex }
func (c *Context) Total() (Collection, bool) { return c.total, c.hasTotal }
func (c *Context) Resource() Collection      { return c.resource }
func (c *Context) Now() Temporal             { return c.now }
func (c *Context) Logger() zerolog.Logger    { return c.logger }

// Variable resolves a %name reference. Lookup order per spec.md §4.3: (a)
// user-provided variables, (b) built-ins %context/%resource/%ucum/%sct/
// %loinc. An unbound name is a resolution error; a name bound to an
// explicit nil is "null" and yields an empty collection (not an error).
func (c *Context) Variable(name string) (Collection, error) {
	if v, ok := c.vars[name]; ok {
		if v == nil {
			return Empty(), nil
		}
		return Single(*v), nil
	}
	switch name {
	case "context":
		if c.hasThis {
			return Single(c.this), nil
		}
		return c.resource, nil
	case "resource":
		return c.resource, nil
	case "ucum":
		return Single(NewString("http://unitsofmeasure.org")), nil
	case "sct":
		return Single(NewString("http://snomed.info/sct")), nil
	case "loinc":
		return Single(NewString("http://loinc.org")), nil
	}
	return nil, resolutionErrorf(-1, "unknown variable %%%s", name)
}
