package fhirpath

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestContextWithThisDoesNotMutateParent(t *testing.T) {
	base := newContext(nil, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	child := base.WithThis(NewInteger(1), 0)

	_, baseHasThis := base.This()
	require.False(t, baseHasThis)

	v, ok := child.This()
	require.True(t, ok)
	require.Equal(t, int64(1), v.Integer())

	idx, ok := child.Index()
	require.True(t, ok)
	require.Equal(t, 0, idx)
}

func TestContextWithTotalIsIndependentAcrossNestedFrames(t *testing.T) {
	base := newContext(nil, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	outer := base.WithTotal(Single(NewInteger(10)))
	inner := outer.WithTotal(Single(NewInteger(99)))

	outerTotal, ok := outer.Total()
	require.True(t, ok)
	require.Equal(t, int64(10), outerTotal[0].Integer())

	innerTotal, ok := inner.Total()
	require.True(t, ok)
	require.Equal(t, int64(99), innerTotal[0].Integer())
}

func TestContextVariableUserProvidedTakesPrecedence(t *testing.T) {
	v := NewString("mine")
	base := newContext(nil, map[string]*Value{"ucum": &v}, DefaultPrecision, Temporal{}, zerolog.Nop())
	result, err := base.Variable("ucum")
	require.NoError(t, err)
	require.Equal(t, "mine", result[0].String())
}

func TestContextVariableNilBindingIsEmptyNotError(t *testing.T) {
	base := newContext(nil, map[string]*Value{"maybeNull": nil}, DefaultPrecision, Temporal{}, zerolog.Nop())
	result, err := base.Variable("maybeNull")
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestContextVariableBuiltinDefaults(t *testing.T) {
	base := newContext(nil, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	result, err := base.Variable("ucum")
	require.NoError(t, err)
	require.Equal(t, "http://unitsofmeasure.org", result[0].String())
}

func TestContextVariableUnknownNameErrors(t *testing.T) {
	base := newContext(nil, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	_, err := base.Variable("nonexistent")
	require.Error(t, err)
	var fpErr *Error
	require.ErrorAs(t, err, &fpErr)
	require.Equal(t, ErrResolution, fpErr.Kind)
}

func TestContextVariableContextFollowsThis(t *testing.T) {
	resource := Single(NewInteger(5))
	base := newContext(resource, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	withThis := base.WithThis(NewInteger(42), 0)

	result, err := withThis.Variable("context")
	require.NoError(t, err)
	require.Equal(t, int64(42), result[0].Integer())

	result, err = base.Variable("context")
	require.NoError(t, err)
	require.Equal(t, int64(5), result[0].Integer())
}
