package fhirpath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenKinds(t *testing.T, input string) []tokenKind {
	t.Helper()
	toks, err := tokenize(input)
	require.NoError(t, err)
	kinds := make([]tokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.kind
	}
	return kinds
}

func TestTokenizePunctuation(t *testing.T) {
	kinds := tokenKinds(t, "a.b[0]")
	require.Equal(t, []tokenKind{tkIdent, tkDot, tkIdent, tkLBrack, tkNumber, tkRBrack, tkEOF}, kinds)
}

func TestTokenizeOperators(t *testing.T) {
	cases := map[string]tokenKind{
		"=":  tkEq,
		"!=": tkNe,
		"~":  tkEquiv,
		"!~": tkNequiv,
		"<=": tkLe,
		">=": tkGe,
		"<":  tkLt,
		">":  tkGt,
		"&":  tkAmp,
		"|":  tkPipe,
	}
	for lit, want := range cases {
		toks, err := tokenize("1 " + lit + " 2")
		require.NoError(t, err, lit)
		require.Equal(t, want, toks[1].kind, "operator %q", lit)
	}
}

func TestTokenizeQuotedString(t *testing.T) {
	toks, err := tokenize(`'hello world'`)
	require.NoError(t, err)
	require.Equal(t, tkString, toks[0].kind)
	require.Equal(t, "hello world", toks[0].text)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := tokenize(`'a\tb\n'`)
	require.NoError(t, err)
	require.Equal(t, "a\tb\n", toks[0].text)
}

func TestTokenizeDelimitedIdentifier(t *testing.T) {
	toks, err := tokenize("`div`")
	require.NoError(t, err)
	require.Equal(t, tkDelimitedIdent, toks[0].kind)
	require.Equal(t, "div", toks[0].text)
}

func TestTokenizePercentVariableForms(t *testing.T) {
	for _, src := range []string{"%resource", "%`resource`", "%'resource'"} {
		toks, err := tokenize(src)
		require.NoError(t, err, src)
		require.Equal(t, tkPercentVar, toks[0].kind, src)
		require.Equal(t, "resource", toks[0].text, src)
	}
}

func TestTokenizeSpecialVariables(t *testing.T) {
	cases := map[string]tokenKind{
		"$this":     tkDollarThis,
		"$index":    tkDollarIndex,
		"$total":    tkDollarTotal,
		"$resource": tkDollarResource,
	}
	for lit, want := range cases {
		toks, err := tokenize(lit)
		require.NoError(t, err, lit)
		require.Equal(t, want, toks[0].kind, lit)
	}
}

func TestTokenizeUnknownDollarVariableErrors(t *testing.T) {
	_, err := tokenize("$bogus")
	require.Error(t, err)
}

func TestTokenizeLineComment(t *testing.T) {
	toks, err := tokenize("1 // trailing comment\n+ 2")
	require.NoError(t, err)
	kinds := make([]tokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	require.Equal(t, []tokenKind{tkNumber, tkPlus, tkNumber, tkEOF}, kinds)
}

func TestTokenizeBlockComment(t *testing.T) {
	toks, err := tokenize("1 /* skip me */ + 2")
	require.NoError(t, err)
	require.Len(t, toks, 4)
}

func TestTokenizeUnterminatedBlockCommentErrors(t *testing.T) {
	_, err := tokenize("1 /* never closed")
	require.Error(t, err)
}

func TestTokenizeLongLiteral(t *testing.T) {
	toks, err := tokenize("9223372036854775807L")
	require.NoError(t, err)
	require.Equal(t, tkLongNumber, toks[0].kind)
}

func TestTokenizeDateTimeLiteral(t *testing.T) {
	toks, err := tokenize("@2015-02-04T14:34:28Z")
	require.NoError(t, err)
	require.Equal(t, tkDateTime, toks[0].kind)
}

func TestTokenizeTimeLiteral(t *testing.T) {
	toks, err := tokenize("@T14:34:28")
	require.NoError(t, err)
	require.Equal(t, tkTime, toks[0].kind)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := tokenize("'unterminated")
	require.Error(t, err)
}

func TestTokenizeEmptyCollectionBraces(t *testing.T) {
	kinds := tokenKinds(t, "{}")
	require.Equal(t, []tokenKind{tkLBrace, tkRBrace, tkEOF}, kinds)
}

func TestTokenizeBangAloneErrors(t *testing.T) {
	_, err := tokenize("1 ! 2")
	require.Error(t, err)
}

func TestTokenizeUnquotedHyphenatedPercentVariableErrors(t *testing.T) {
	_, err := tokenize("%my-var")
	require.Error(t, err)
	var fpErr *Error
	require.ErrorAs(t, err, &fpErr)
	require.Equal(t, ErrParse, fpErr.Kind)
}

func TestTokenizeBacktickQuotedHyphenatedPercentVariableSucceeds(t *testing.T) {
	toks, err := tokenize("%`my-var`")
	require.NoError(t, err)
	require.Equal(t, tkPercentVar, toks[0].kind)
	require.Equal(t, "my-var", toks[0].text)
}
