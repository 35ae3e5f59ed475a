package fhirpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXorRequiresBothKnown(t *testing.T) {
	require.True(t, evalExpr(t, nil, "true xor false")[0].Boolean())
	require.False(t, evalExpr(t, nil, "true xor true")[0].Boolean())
	require.Empty(t, evalExpr(t, nil, "true xor {}"))
}

func TestImpliesShortCircuitsOnFalseAntecedent(t *testing.T) {
	require.True(t, evalExpr(t, nil, "false implies (1/0 = 1)")[0].Boolean())
}

func TestImpliesUnknownAntecedentWithTrueConsequentIsTrue(t *testing.T) {
	require.True(t, evalExpr(t, nil, "{} implies true")[0].Boolean())
}

func TestImpliesUnknownAntecedentWithUnknownConsequentIsEmpty(t *testing.T) {
	result := evalExpr(t, nil, "{} implies {}")
	require.Empty(t, result)
}

func TestInAndContainsAreMirrorOperators(t *testing.T) {
	require.True(t, evalExpr(t, nil, "2 in (1 | 2 | 3)")[0].Boolean())
	require.False(t, evalExpr(t, nil, "9 in (1 | 2 | 3)")[0].Boolean())
	require.True(t, evalExpr(t, nil, "(1 | 2 | 3) contains 2")[0].Boolean())
}

func TestConcatTreatsEmptyAsEmptyString(t *testing.T) {
	require.Equal(t, "ab", evalExpr(t, nil, "'a' & 'b'")[0].String())
	require.Equal(t, "a", evalExpr(t, nil, "'a' & {}")[0].String())
	require.Equal(t, "b", evalExpr(t, nil, "{} & 'b'")[0].String())
}

func TestConcatRequiresStringOperands(t *testing.T) {
	err := evalErr(t, nil, "1 & 'b'")
	require.Error(t, err)
}

func TestArithmeticPlusPropagatesEmptyUnlikeConcat(t *testing.T) {
	require.Empty(t, evalExpr(t, nil, "1 + {}"))
}

func TestDivAndModPreserveIntegerType(t *testing.T) {
	require.Equal(t, KindInteger, evalExpr(t, nil, "7 div 2")[0].Kind())
	require.Equal(t, KindInteger, evalExpr(t, nil, "7 mod 2")[0].Kind())
	require.Equal(t, int64(3), evalExpr(t, nil, "7 div 2")[0].Integer())
	require.Equal(t, int64(1), evalExpr(t, nil, "7 mod 2")[0].Integer())
}

func TestDivByZeroIsEmptyNotError(t *testing.T) {
	require.Empty(t, evalExpr(t, nil, "7 div 0"))
	require.Empty(t, evalExpr(t, nil, "7 / 0"))
}

func TestIsOnMultiElementCollectionErrors(t *testing.T) {
	err := evalErr(t, nil, "(1 | 2) is Integer")
	require.Error(t, err)
}

func TestAsReturnsEmptyWhenTypeMismatches(t *testing.T) {
	require.Empty(t, evalExpr(t, nil, "'x' as Integer"))
}

func TestAsReturnsValueWhenTypeMatches(t *testing.T) {
	result := evalExpr(t, nil, "5 as Integer")
	require.Equal(t, int64(5), result[0].Integer())
}

func TestEquivalenceNormalizesWhitespaceAndCase(t *testing.T) {
	require.True(t, evalExpr(t, nil, "'Hello   World' ~ 'hello world'")[0].Boolean())
	require.False(t, evalExpr(t, nil, "'Hello' = 'hello'")[0].Boolean())
}

func TestEqualityMismatchedLengthIsFalseNotEmpty(t *testing.T) {
	result := evalExpr(t, nil, "(1 | 2) = (1 | 2 | 3)")
	require.Len(t, result, 1)
	require.False(t, result[0].Boolean())
}

func TestEquivalenceMissingVsMissingIsTrue(t *testing.T) {
	result := evalExpr(t, map[string]interface{}{"resourceType": "Patient"}, "Patient.deceasedDateTime ~ Patient.multipleBirthInteger")
	require.True(t, result[0].Boolean())
}

func TestOrderingBetweenIncompatibleTypesErrors(t *testing.T) {
	err := evalErr(t, nil, "1 < 'a'")
	require.Error(t, err)
}

func TestBooleanOrdering(t *testing.T) {
	require.True(t, evalExpr(t, nil, "true > false")[0].Boolean())
}
