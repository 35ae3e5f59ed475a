package fhirpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFnEmpty(t *testing.T) {
	require.True(t, evalExpr(t, nil, "{}.empty()")[0].Boolean())
	require.False(t, evalExpr(t, nil, "(1 | 2).empty()")[0].Boolean())
}

func TestFnAllRequiresEveryElementTrue(t *testing.T) {
	require.True(t, evalExpr(t, nil, "(1 | 2 | 3).all($this > 0)")[0].Boolean())
	require.False(t, evalExpr(t, nil, "(1 | 2 | 3).all($this > 1)")[0].Boolean())
}

func TestFnAllTrueAnyTrueOnEmptyFollowsVacuousTruth(t *testing.T) {
	require.True(t, evalExpr(t, nil, "{}.allTrue()")[0].Boolean())
	require.False(t, evalExpr(t, nil, "{}.anyTrue()")[0].Boolean())
}

func TestFnAllTrueAnyTrueAllFalseAnyFalse(t *testing.T) {
	require.True(t, evalExpr(t, nil, "(true | true).allTrue()")[0].Boolean())
	require.False(t, evalExpr(t, nil, "(true | false).allTrue()")[0].Boolean())
	require.True(t, evalExpr(t, nil, "(false | true).anyTrue()")[0].Boolean())
	require.True(t, evalExpr(t, nil, "(false | false).allFalse()")[0].Boolean())
	require.True(t, evalExpr(t, nil, "(true | false).anyFalse()")[0].Boolean())
}

func TestFnAllTrueOnNonBooleanElementErrors(t *testing.T) {
	err := evalErr(t, nil, "(1 | 2).allTrue()")
	require.Error(t, err)
}

func TestFnSubsetOfAndSupersetOf(t *testing.T) {
	require.True(t, evalExpr(t, nil, "(1 | 2).subsetOf(1 | 2 | 3)")[0].Boolean())
	require.False(t, evalExpr(t, nil, "(1 | 2 | 4).subsetOf(1 | 2 | 3)")[0].Boolean())
	require.True(t, evalExpr(t, nil, "(1 | 2 | 3).supersetOf(1 | 2)")[0].Boolean())
}

func TestFnCount(t *testing.T) {
	require.Equal(t, int64(3), evalExpr(t, nil, "(1 | 2 | 3).count()")[0].Integer())
	require.Equal(t, int64(0), evalExpr(t, nil, "{}.count()")[0].Integer())
}

func TestFnIsDistinct(t *testing.T) {
	require.True(t, evalExpr(t, nil, "(1 | 2 | 3).isDistinct()")[0].Boolean())
	require.False(t, evalExpr(t, nil, "(1 | 1 | 2).isDistinct()")[0].Boolean())
}

func TestFnNot(t *testing.T) {
	require.False(t, evalExpr(t, nil, "true.not()")[0].Boolean())
	require.True(t, evalExpr(t, nil, "false.not()")[0].Boolean())
	require.Empty(t, evalExpr(t, nil, "{}.not()"))
}

func TestFnRepeatFixedPoint(t *testing.T) {
	resource := map[string]interface{}{
		"resourceType": "Patient",
		"link": []interface{}{
			map[string]interface{}{
				"other": map[string]interface{}{
					"link": []interface{}{
						map[string]interface{}{"other": map[string]interface{}{}},
					},
				},
			},
		},
	}
	result := evalExpr(t, resource, "Patient.repeat(link.other)")
	require.Len(t, result, 2)
}

func TestFnSkipAndTake(t *testing.T) {
	require.Equal(t, []int64{3, 4, 5}, collectInts(t, evalExpr(t, nil, "(1 | 2 | 3 | 4 | 5).skip(2)")))
	require.Equal(t, []int64{1, 2}, collectInts(t, evalExpr(t, nil, "(1 | 2 | 3 | 4 | 5).take(2)")))
	require.Empty(t, evalExpr(t, nil, "(1 | 2).take(0)"))
}

func TestFnSingleOnMultiValueIsSingletonError(t *testing.T) {
	err := evalErr(t, nil, "(1 | 2).single()")
	var fpErr *Error
	require.ErrorAs(t, err, &fpErr)
	require.Equal(t, ErrSingleton, fpErr.Kind)
}

func TestFnSingleOnSingletonReturnsIt(t *testing.T) {
	result := evalExpr(t, nil, "(7).single()")
	require.Equal(t, int64(7), result[0].Integer())
}

func TestFnCombinePreservesDuplicates(t *testing.T) {
	result := evalExpr(t, nil, "(1 | 2).combine(2 | 3)")
	require.Len(t, result, 4)
}

func TestFnExclude(t *testing.T) {
	result := collectInts(t, evalExpr(t, nil, "(1 | 2 | 3).exclude(2)"))
	require.Equal(t, []int64{1, 3}, result)
}

func TestFnIntersect(t *testing.T) {
	result := collectInts(t, evalExpr(t, nil, "(1 | 2 | 3).intersect(2 | 3 | 4)"))
	require.Equal(t, []int64{2, 3}, result)
}

func TestFnIifThreeArg(t *testing.T) {
	require.Equal(t, "yes", evalExpr(t, nil, "iif(true, 'yes', 'no')")[0].String())
	require.Equal(t, "no", evalExpr(t, nil, "iif(false, 'yes', 'no')")[0].String())
}

func TestFnIifTwoArgWithoutElseIsEmptyWhenFalse(t *testing.T) {
	require.Empty(t, evalExpr(t, nil, "iif(false, 'yes')"))
}

func TestFnTraceReturnsInputUnchanged(t *testing.T) {
	result := evalExpr(t, nil, "(1 | 2).trace('debug')")
	require.Equal(t, []int64{1, 2}, collectInts(t, result))
}

func TestFnChildren(t *testing.T) {
	resource := map[string]interface{}{
		"resourceType": "Patient",
		"active":       true,
		"name":         []interface{}{map[string]interface{}{"family": "Doe"}},
	}
	result := evalExpr(t, resource, "Patient.children()")
	require.NotEmpty(t, result)
}

func TestFnConformsToAlwaysFalseWithoutProfileRegistry(t *testing.T) {
	result := evalExpr(t, map[string]interface{}{"resourceType": "Patient"}, "Patient.conformsTo('http://example.org/StructureDefinition/x')")
	require.False(t, result[0].Boolean())
}

func collectInts(t *testing.T, c Collection) []int64 {
	t.Helper()
	out := make([]int64, len(c))
	for i, v := range c {
		out[i] = v.Integer()
	}
	return out
}
