package fhirpath

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func evalExpr(t *testing.T, resource map[string]interface{}, expr string) Collection {
	t.Helper()
	node, err := parseFHIRPath(expr)
	require.NoError(t, err, expr)

	var focus Collection
	if resource != nil {
		focus = Single(NewElement(NewMapElement(resource)))
	}
	ctx := newContext(focus, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	result, err := eval(ctx, node, focus)
	require.NoError(t, err, expr)
	return result
}

func evalErr(t *testing.T, resource map[string]interface{}, expr string) error {
	t.Helper()
	node, err := parseFHIRPath(expr)
	if err != nil {
		return err
	}
	var focus Collection
	if resource != nil {
		focus = Single(NewElement(NewMapElement(resource)))
	}
	ctx := newContext(focus, nil, DefaultPrecision, Temporal{}, zerolog.Nop())
	_, err = eval(ctx, node, focus)
	return err
}

func samplePatient() map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Patient",
		"active":       true,
		"birthDate":    "1974-12-25",
		"name": []interface{}{
			map[string]interface{}{
				"use":    "official",
				"family": "Chalmers",
				"given":  []interface{}{"Peter", "James"},
			},
			map[string]interface{}{
				"use":    "usual",
				"family": "Chalmers",
				"given":  []interface{}{"Jim"},
			},
		},
		"telecom": []interface{}{
			map[string]interface{}{"system": "phone", "value": "555-1212", "use": "home"},
		},
	}
}

func TestEvalSimpleFieldNavigation(t *testing.T) {
	result := evalExpr(t, samplePatient(), "Patient.active")
	require.Len(t, result, 1)
	require.True(t, result[0].Boolean())
}

func TestEvalNestedFieldNavigation(t *testing.T) {
	result := evalExpr(t, samplePatient(), "Patient.name.family")
	require.Len(t, result, 2)
	require.Equal(t, "Chalmers", result[0].String())
}

func TestEvalWithoutResourceTypePrefix(t *testing.T) {
	result := evalExpr(t, samplePatient(), "name.given")
	require.Len(t, result, 3)
}

func TestEvalWhereFilter(t *testing.T) {
	result := evalExpr(t, samplePatient(), "name.where(use = 'usual').given")
	require.Len(t, result, 1)
	require.Equal(t, "Jim", result[0].String())
}

func TestEvalExistsFunction(t *testing.T) {
	result := evalExpr(t, samplePatient(), "name.where(use = 'usual').exists()")
	require.Len(t, result, 1)
	require.True(t, result[0].Boolean())
}

func TestEvalEmptyOnMissingField(t *testing.T) {
	result := evalExpr(t, samplePatient(), "Patient.deceasedBoolean")
	require.Empty(t, result)
}

func TestEvalIndexer(t *testing.T) {
	result := evalExpr(t, samplePatient(), "name.given[1]")
	require.Len(t, result, 1)
	require.Equal(t, "James", result[0].String())
}

func TestEvalIndexOutOfRangeIsEmpty(t *testing.T) {
	result := evalExpr(t, samplePatient(), "name.given[99]")
	require.Empty(t, result)
}

func TestEvalFirstLastTail(t *testing.T) {
	require.Equal(t, "Peter", evalExpr(t, samplePatient(), "name.given.first()")[0].String())
	require.Equal(t, "Jim", evalExpr(t, samplePatient(), "name.given.last()")[0].String())
	tail := evalExpr(t, samplePatient(), "name.given.tail()")
	require.Len(t, tail, 2)
}

func TestEvalCountAndDistinct(t *testing.T) {
	count := evalExpr(t, samplePatient(), "name.family.count()")
	require.Equal(t, int64(2), count[0].Integer())
	distinct := evalExpr(t, samplePatient(), "name.family.distinct()")
	require.Len(t, distinct, 1)
}

func TestEvalUnionDeduplicates(t *testing.T) {
	result := evalExpr(t, nil, "(1 | 2 | 2 | 3)")
	require.Len(t, result, 3)
}

func TestEvalArithmetic(t *testing.T) {
	result := evalExpr(t, nil, "2 + 3 * 4")
	require.Equal(t, int64(14), result[0].Integer())
}

func TestEvalStringConcat(t *testing.T) {
	result := evalExpr(t, nil, "'foo' & 'bar'")
	require.Equal(t, "foobar", result[0].String())
}

func TestEvalConcatWithEmptyIsEmptyString(t *testing.T) {
	result := evalExpr(t, samplePatient(), "'prefix-' & Patient.deceasedBoolean")
	require.Len(t, result, 1)
	require.Equal(t, "prefix-", result[0].String())
}

func TestEvalKleeneAndShortCircuitsOnFalse(t *testing.T) {
	// false and <empty> must be false, not empty, per three-valued logic.
	result := evalExpr(t, samplePatient(), "false and Patient.deceasedBoolean")
	require.Len(t, result, 1)
	require.False(t, result[0].Boolean())
}

func TestEvalKleeneOrShortCircuitsOnTrue(t *testing.T) {
	result := evalExpr(t, samplePatient(), "true or Patient.deceasedBoolean")
	require.True(t, result[0].Boolean())
}

func TestEvalKleeneAndWithEmptyIsEmpty(t *testing.T) {
	result := evalExpr(t, samplePatient(), "true and Patient.deceasedBoolean")
	require.Empty(t, result)
}

func TestEvalImplies(t *testing.T) {
	result := evalExpr(t, nil, "false implies true")
	require.True(t, result[0].Boolean())
}

func TestEvalEquality(t *testing.T) {
	require.True(t, evalExpr(t, nil, "1 = 1")[0].Boolean())
	require.False(t, evalExpr(t, nil, "1 = 2")[0].Boolean())
}

func TestEvalEquivalenceNormalizesWhitespaceAndCase(t *testing.T) {
	result := evalExpr(t, nil, "'ABC  def' ~ 'abc def'")
	require.True(t, result[0].Boolean())
}

func TestEvalSingletonErrorOnMultiValueComparison(t *testing.T) {
	err := evalErr(t, samplePatient(), "name.given > 'Peter'")
	require.Error(t, err)
	var fpErr *Error
	require.ErrorAs(t, err, &fpErr)
	require.Equal(t, ErrSingleton, fpErr.Kind)
}

func TestEvalIsTypeOperator(t *testing.T) {
	result := evalExpr(t, samplePatient(), "Patient.active is System.Boolean")
	require.True(t, result[0].Boolean())
}

func TestEvalOfType(t *testing.T) {
	result := evalExpr(t, samplePatient(), "Patient.active.ofType(Boolean)")
	require.Len(t, result, 1)
}

func TestEvalAggregateSum(t *testing.T) {
	result := evalExpr(t, nil, "(1 | 2 | 3).aggregate($this + $total, 0)")
	require.Equal(t, int64(6), result[0].Integer())
}

// TestEvalAggregateScopeIndependence verifies nested aggregate() calls do
// not leak $total between scopes: the inner aggregate sums 10+20+30=60 once
// per outer item, so the outer accumulation is 60+0+1=61, then 60+61+2=123;
// the concrete expected value below is computed by hand tracing the
// frame-push rule rather than asserted against another implementation.
func TestEvalAggregateScopeIndependence(t *testing.T) {
	result := evalExpr(t, nil,
		"(1 | 2).aggregate((10 | 20 | 30).aggregate($total + $this, 0) + $total + $this, 0)")
	require.Len(t, result, 1)
	require.Equal(t, int64(123), result[0].Integer())
}

func TestEvalIifShortCircuits(t *testing.T) {
	result := evalExpr(t, nil, "iif(true, 'yes', 'no')")
	require.Equal(t, "yes", result[0].String())
}

func TestEvalSubstringAndLength(t *testing.T) {
	result := evalExpr(t, nil, "'hello world'.substring(6)")
	require.Equal(t, "world", result[0].String())
	length := evalExpr(t, nil, "'hello'.length()")
	require.Equal(t, int64(5), length[0].Integer())
}

func TestEvalMathFunctions(t *testing.T) {
	require.Equal(t, int64(3), evalExpr(t, nil, "2.5.ceiling()")[0].Integer())
	require.Equal(t, int64(2), evalExpr(t, nil, "2.5.floor()")[0].Integer())
	require.Equal(t, int64(2), evalExpr(t, nil, "(-2).abs()")[0].Integer())
}

func TestEvalQuantityLiteralRoundTrip(t *testing.T) {
	result := evalExpr(t, nil, "4 'wk'")
	require.Len(t, result, 1)
	q := result[0].Quantity()
	require.Equal(t, "wk", q.Unit)
}

func TestEvalExternalConstantUcum(t *testing.T) {
	result := evalExpr(t, nil, "%ucum")
	require.Equal(t, "http://unitsofmeasure.org", result[0].String())
}

func TestEvalNowReturnsSingleton(t *testing.T) {
	node, err := parseFHIRPath("now()")
	require.NoError(t, err)
	now := time.Now()
	ctx := newContext(nil, nil, DefaultPrecision, temporalFromTime(now), zerolog.Nop())
	result, err := eval(ctx, node, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, KindDateTime, result[0].Kind())
}
