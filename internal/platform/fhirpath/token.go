package fhirpath

type tokenKind int

const (
	tkIdent tokenKind = iota
	tkDelimitedIdent
	tkNumber
	tkLongNumber
	tkString
	tkDateTime
	tkTime
	tkPercentVar
	tkDollarThis
	tkDollarIndex
	tkDollarTotal
	tkDollarResource

	tkDot
	tkLParen
	tkRParen
	tkLBrack
	tkRBrack
	tkLBrace
	tkRBrace
	tkComma

	tkPlus
	tkMinus
	tkStar
	tkSlash
	tkAmp
	tkPipe

	tkEq
	tkNe
	tkEquiv
	tkNequiv
	tkLt
	tkGt
	tkLe
	tkGe

	tkEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// keywordOperators are identifier-shaped tokens that function as operators
// rather than names when they appear in infix/prefix position. The parser
// decides based on grammar position (spec.md §4.1 lists them alongside
// symbolic operators).
var keywordOperators = map[string]bool{
	"and": true, "or": true, "xor": true, "implies": true,
	"div": true, "mod": true, "in": true, "contains": true,
	"is": true, "as": true,
}
