package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/lexer"
)

func collect(src string) []lexer.Token {
	l := lexer.New(src)
	var toks []lexer.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == lexer.TokenEOF {
			return toks
		}
	}
}

func TestLexesIdentifiersKeywordsAndNumbers(t *testing.T) {
	toks := collect("let x = 42;")
	require.Equal(t, lexer.TokenLet, toks[0].Type)
	require.Equal(t, lexer.TokenIdent, toks[1].Type)
	require.Equal(t, "x", toks[1].Literal)
	require.Equal(t, lexer.TokenAssign, toks[2].Type)
	require.Equal(t, lexer.TokenNumber, toks[3].Type)
	require.Equal(t, "42", toks[3].Literal)
	require.Equal(t, lexer.TokenSemicolon, toks[4].Type)
}

func TestLexesStringEscapes(t *testing.T) {
	toks := collect(`"a\nb"`)
	require.Equal(t, lexer.TokenString, toks[0].Type)
	require.Equal(t, "a\nb", toks[0].Literal)
}

func TestLexesMultiCharOperators(t *testing.T) {
	toks := collect("a === b !== c >>> d")
	types := []lexer.TokenType{}
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	require.Contains(t, types, lexer.TokenStrictEq)
	require.Contains(t, types, lexer.TokenStrictNeq)
	require.Contains(t, types, lexer.TokenUShr)
}

func TestSkipsLineAndBlockComments(t *testing.T) {
	toks := collect("1 // comment\n/* block */ 2")
	require.Equal(t, lexer.TokenNumber, toks[0].Type)
	require.Equal(t, "1", toks[0].Literal)
	require.Equal(t, lexer.TokenNumber, toks[1].Type)
	require.Equal(t, "2", toks[1].Literal)
}

func TestUnknownCharacterRecordsLexError(t *testing.T) {
	l := lexer.New("@")
	tok := l.NextToken()
	require.Equal(t, lexer.TokenIllegal, tok.Type)
	require.True(t, l.Errors().HasErrors())
}

func TestEllipsisTokenizedAsSingleToken(t *testing.T) {
	toks := collect("f(...args)")
	found := false
	for _, tok := range toks {
		if tok.Type == lexer.TokenEllipsis {
			found = true
		}
	}
	require.True(t, found)
}

func TestLexesTemplateLiteral(t *testing.T) {
	toks := collect("`hello\nworld`")
	require.Equal(t, lexer.TokenTemplateString, toks[0].Type)
	require.Equal(t, "hello\nworld", toks[0].Literal)
}

func TestTemplateSubstitutionRecordsLexError(t *testing.T) {
	l := lexer.New("`a ${b} c`")
	for l.NextToken().Type != lexer.TokenEOF {
	}
	require.True(t, l.Errors().HasErrors())
}

func TestUnterminatedTemplateRecordsLexError(t *testing.T) {
	l := lexer.New("`abc")
	for l.NextToken().Type != lexer.TokenEOF {
	}
	require.True(t, l.Errors().HasErrors())
}
