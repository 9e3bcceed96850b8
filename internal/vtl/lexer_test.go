package vtl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_SelfClosingTag(t *testing.T) {
	input := `# Heading

<Posts columns={["title"]} format=table />

trailing prose`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenText, "# Heading\n\n"},
		{TokenTagOpen, "<"},
		{TokenIdent, "Posts"},
		{TokenIdent, "columns"},
		{TokenEQ, "="},
		{TokenBraced, `["title"]`},
		{TokenIdent, "format"},
		{TokenEQ, "="},
		{TokenIdent, "table"},
		{TokenTagSelfEnd, "/>"},
		{TokenText, "\n\ntrailing prose"},
		{TokenEOF, ""},
	}

	require.Len(t, tokens, len(expected))
	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token %d type", i)
		assert.Equal(t, exp.lit, tokens[i].Literal, "token %d literal", i)
	}
}

func TestLexer_BlockTag(t *testing.T) {
	input := `<Comments format=list>fallback body</Comments>`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TokenTagOpen, TokenIdent, TokenIdent, TokenEQ, TokenIdent,
		TokenTagEnd, TokenBody, TokenTagClose, TokenEOF,
	}, types)

	assert.Equal(t, "fallback body", tokens[6].Literal)
	assert.Equal(t, "</Comments>", tokens[7].Literal)
}

func TestLexer_LowercaseAngleIsText(t *testing.T) {
	input := "a < b and 3 <4 and <em>not a component</em>"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	require.Len(t, tokens, 2)
	assert.Equal(t, TokenText, tokens[0].Type)
	assert.Equal(t, input, tokens[0].Literal)
}

func TestLexer_QuotedValues(t *testing.T) {
	input := `<Posts relationship="tagged_with" author='alice' />`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenString, tokens[4].Type)
	assert.Equal(t, "tagged_with", tokens[4].Literal)
	assert.Equal(t, TokenString, tokens[7].Type)
	assert.Equal(t, "alice", tokens[7].Literal)
}

func TestLexer_NestedBraces(t *testing.T) {
	input := `<Posts filter={{"a": {"b": 1}}} />`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenBraced, tokens[4].Type)
	assert.Equal(t, `{"a": {"b": 1}}`, tokens[4].Literal)
}

func TestLexer_BracedWithQuotedBrace(t *testing.T) {
	input := `<Posts note={"}"} />`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenBraced, tokens[4].Type)
	assert.Equal(t, `"}"`, tokens[4].Literal)
}

func TestLexer_UnterminatedTagIsText(t *testing.T) {
	input := `<Posts columns=`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	require.Len(t, tokens, 2)
	assert.Equal(t, TokenText, tokens[0].Type)
	assert.Equal(t, input, tokens[0].Literal)
}

func TestLexer_MissingCloseTagIsText(t *testing.T) {
	input := `<Posts>body without close`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	require.Len(t, tokens, 2)
	assert.Equal(t, TokenText, tokens[0].Type)
	assert.Equal(t, input, tokens[0].Literal)
}

func TestLexer_ProseAngleBeforeUppercase(t *testing.T) {
	input := "We require x<Y in all cases.\nAlso <Tags /> renders."
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	var types []TokenType
	var text strings.Builder
	for _, tok := range tokens {
		types = append(types, tok.Type)
		if tok.Type == TokenText {
			text.WriteString(tok.Literal)
		}
	}
	assert.Equal(t, []TokenType{
		TokenText, TokenText, TokenTagOpen, TokenIdent, TokenTagSelfEnd,
		TokenText, TokenEOF,
	}, types)
	assert.Equal(t, "We require x<Y in all cases.\nAlso  renders.", text.String())
}

func TestLexer_UnicodePassthrough(t *testing.T) {
	input := "café ☕ — <Tags /> — 日本語"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, "café ☕ — ", tokens[0].Literal)
	assert.Equal(t, " — 日本語", tokens[len(tokens)-2].Literal)
}

func TestLexer_LinePositions(t *testing.T) {
	input := "line one\n<Posts />"
	lexer := NewLexer(input)
	tokens, _ := lexer.Tokenize()

	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 1, tokens[1].Col)
}
