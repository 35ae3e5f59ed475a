package fhirpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, expr string) *astNode {
	t.Helper()
	node, err := parseFHIRPath(expr)
	require.NoError(t, err, expr)
	return node
}

func TestParsePathNavigation(t *testing.T) {
	node := mustParse(t, "Patient.name.given")
	require.Equal(t, ndInvocation, node.kind)
	require.Equal(t, ndIdent, node.children[1].kind)
	require.Equal(t, "given", node.children[1].str)
}

func TestParseFunctionCall(t *testing.T) {
	node := mustParse(t, "name.where(use = 'official')")
	require.Equal(t, ndInvocation, node.kind)
	fn := node.children[1]
	require.Equal(t, ndFunction, fn.kind)
	require.Equal(t, "where", fn.str)
	require.Len(t, fn.children, 1)
	require.Equal(t, ndBinary, fn.children[0].kind)
	require.Equal(t, "=", fn.children[0].str)
}

func TestParseIndexer(t *testing.T) {
	node := mustParse(t, "name[0]")
	require.Equal(t, ndIndex, node.kind)
}

func TestParsePrecedenceAdditiveBeforeEquality(t *testing.T) {
	// "1 + 2 = 3" must parse as "(1 + 2) = 3", not "1 + (2 = 3)".
	node := mustParse(t, "1 + 2 = 3")
	require.Equal(t, ndBinary, node.kind)
	require.Equal(t, "=", node.str)
	lhs := node.children[0]
	require.Equal(t, ndBinary, lhs.kind)
	require.Equal(t, "+", lhs.str)
}

func TestParsePrecedenceMultiplicativeBeforeAdditive(t *testing.T) {
	node := mustParse(t, "2 + 3 * 4")
	require.Equal(t, "+", node.str)
	rhs := node.children[1]
	require.Equal(t, "*", rhs.str)
}

func TestParseOrBindsLooserThanAnd(t *testing.T) {
	node := mustParse(t, "true and false or true")
	require.Equal(t, "or", node.str)
	lhs := node.children[0]
	require.Equal(t, "and", lhs.str)
}

func TestParseUnionLeftAssociative(t *testing.T) {
	node := mustParse(t, "1 | 2 | 3")
	require.Equal(t, ndUnion, node.kind)
	require.Equal(t, ndUnion, node.children[0].kind)
}

func TestParseIsAsTypeSpecifier(t *testing.T) {
	node := mustParse(t, "value is FHIR.Quantity")
	require.Equal(t, "is", node.str)
	typeSpec := node.children[1]
	require.Equal(t, ndTypeSpec, typeSpec.kind)
	require.Equal(t, "FHIR.Quantity", typeSpec.str)
}

func TestParseUnaryMinus(t *testing.T) {
	node := mustParse(t, "-5")
	require.Equal(t, ndUnary, node.kind)
	require.Equal(t, "-", node.str)
}

func TestParseParenthesizedExpression(t *testing.T) {
	node := mustParse(t, "(1 + 2) * 3")
	require.Equal(t, "*", node.str)
	require.Equal(t, "+", node.children[0].str)
}

func TestParseEmptyCollectionLiteral(t *testing.T) {
	node := mustParse(t, "{}")
	require.Equal(t, ndLiteral, node.kind)
	require.Equal(t, "{}", node.str)
}

func TestParseExternalConstant(t *testing.T) {
	node := mustParse(t, "%resource")
	require.Equal(t, ndExternalConstant, node.kind)
	require.Equal(t, "resource", node.str)
}

func TestParseQuantityLiteral(t *testing.T) {
	node := mustParse(t, "4 'wk'")
	require.Equal(t, ndLiteral, node.kind)
	require.Equal(t, KindQuantity, node.lit.Kind())
	require.Equal(t, "wk", node.lit.Quantity().Unit)
}

func TestParseCalendarDurationQuantity(t *testing.T) {
	node := mustParse(t, "2 years")
	require.Equal(t, KindQuantity, node.lit.Kind())
	require.Equal(t, "years", node.lit.Quantity().Unit)
}

func TestParseAggregateLambdaArguments(t *testing.T) {
	node := mustParse(t, "aggregate($total + $this, 0)")
	require.Equal(t, ndFunction, node.kind)
	require.Equal(t, "aggregate", node.str)
	require.Len(t, node.children, 2)
}

func TestParseTrailingGarbageErrors(t *testing.T) {
	_, err := parseFHIRPath("1 +")
	require.Error(t, err)
}

func TestParseUnmatchedParenErrors(t *testing.T) {
	_, err := parseFHIRPath("(1 + 2")
	require.Error(t, err)
}

func TestParseUnexpectedTrailingTokenErrors(t *testing.T) {
	_, err := parseFHIRPath("1 2")
	require.Error(t, err)
}

func TestParseUnquotedHyphenatedPercentVariableErrors(t *testing.T) {
	_, err := parseFHIRPath("%my-var")
	require.Error(t, err)
}

func TestParseDelimitedIdentifierAsPathStep(t *testing.T) {
	node := mustParse(t, "Patient.`given`")
	require.Equal(t, ndInvocation, node.kind)
	require.Equal(t, "given", node.children[1].str)
}
