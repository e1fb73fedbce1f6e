package scanner_test

import (
	"testing"

	"github.com/saffron-lang/saffron/lang/scanner"
	"github.com/saffron-lang/saffron/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanAllPunctuationAndOperators(t *testing.T) {
	toks := scanner.New("(1 + 2) * 3;").ScanAll()
	require.Equal(t, []token.Kind{
		token.LPAREN, token.NUMBER, token.PLUS, token.NUMBER, token.RPAREN,
		token.STAR, token.NUMBER, token.SEMI, token.EOF,
	}, kinds(toks))
	assert.Equal(t, "1", toks[1].Lexeme)
	assert.Equal(t, "3", toks[6].Lexeme)
}

func TestScanTwoCharOperatorsPreferLongestMatch(t *testing.T) {
	toks := scanner.New("a == b != c <= d >= e => f |> g").ScanAll()
	require.Equal(t, []token.Kind{
		token.IDENT, token.EQEQ, token.IDENT, token.BANGEQ, token.IDENT,
		token.LE, token.IDENT, token.GE, token.IDENT, token.ARROW,
		token.IDENT, token.PIPEGT, token.IDENT, token.EOF,
	}, kinds(toks))
}

func TestScanIdentifierAllowsTrailingQuestionOrBang(t *testing.T) {
	toks := scanner.New("empty? mutate!").ScanAll()
	require.Len(t, toks, 3)
	assert.Equal(t, "empty?", toks[0].Lexeme)
	assert.Equal(t, token.IDENT, toks[0].Kind)
	assert.Equal(t, "mutate!", toks[1].Lexeme)
	assert.Equal(t, token.IDENT, toks[1].Kind)
}

func TestScanKeywordsAreNotIdentifiers(t *testing.T) {
	toks := scanner.New("var x = true and false or nil").ScanAll()
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.TRUE, token.AND,
		token.FALSE, token.OR, token.NIL, token.EOF,
	}, kinds(toks))
}

func TestScanAtomLiteral(t *testing.T) {
	toks := scanner.New(":ok").ScanAll()
	require.Equal(t, []token.Kind{token.ATOM, token.EOF}, kinds(toks))
	assert.Equal(t, ":ok", toks[0].Lexeme)
}

func TestScanColonNotFollowedByIdentIsColonToken(t *testing.T) {
	toks := scanner.New(": 1").ScanAll()
	require.Equal(t, []token.Kind{token.COLON, token.NUMBER, token.EOF}, kinds(toks))
}

func TestScanNumberWithFractionalPart(t *testing.T) {
	toks := scanner.New("1.5").ScanAll()
	require.Equal(t, []token.Kind{token.NUMBER, token.EOF}, kinds(toks))
	assert.Equal(t, "1.5", toks[0].Lexeme)
}

func TestScanNumberDotNotFollowedByDigitStopsAtInteger(t *testing.T) {
	toks := scanner.New("1.method()").ScanAll()
	require.Equal(t, []token.Kind{
		token.NUMBER, token.DOT, token.IDENT, token.LPAREN, token.RPAREN, token.EOF,
	}, kinds(toks))
	assert.Equal(t, "1", toks[0].Lexeme)
}

func TestScanStringLiteral(t *testing.T) {
	toks := scanner.New(`"hello world"`).ScanAll()
	require.Equal(t, []token.Kind{token.STRING, token.EOF}, kinds(toks))
	assert.Equal(t, "hello world", scanner.Unquote(toks[0].Lexeme))
}

func TestScanUnterminatedStringIsIllegalAndErrors(t *testing.T) {
	sc := scanner.New(`"oops`)
	toks := sc.ScanAll()
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
	assert.True(t, sc.Errors.HasErrors())
}

func TestScanStringSpanningLinesAdvancesLineCounter(t *testing.T) {
	toks := scanner.New("\"a\nb\" + 1").ScanAll()
	require.Equal(t, token.STRING, toks[0].Kind)
	// the embedded newline bumps the line counter before the token is made,
	// so the whole string reports the line its closing quote is on
	assert.Equal(t, 2, toks[0].Line)
	plus := toks[1]
	assert.Equal(t, token.PLUS, plus.Kind)
	assert.Equal(t, 2, plus.Line)
}

func TestScanLineCommentIsIgnored(t *testing.T) {
	toks := scanner.New("1 // a comment\n2").ScanAll()
	require.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanTracksLineNumbersAcrossNewlines(t *testing.T) {
	toks := scanner.New("1\n2\n3").ScanAll()
	require.Len(t, toks, 4) // three numbers plus EOF
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 3, toks[2].Line)
	assert.Equal(t, 3, toks[3].Line, "EOF reports the line it was reached on")
}

func TestScanEmptySourceIsJustEOF(t *testing.T) {
	toks := scanner.New("").ScanAll()
	require.Equal(t, []token.Kind{token.EOF}, kinds(toks))
	assert.Equal(t, "", toks[0].Lexeme)
}

func TestParseNumberRoundTrips(t *testing.T) {
	f, err := scanner.ParseNumber("3.25")
	require.NoError(t, err)
	assert.Equal(t, 3.25, f)
}
