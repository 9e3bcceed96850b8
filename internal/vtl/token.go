// Package vtl implements the lexer, parser, and AST for the view template
// language: prose with embedded component tags (<Posts ... /> or
// <Posts ...>body</Posts>) whose attributes declare columns, format, and
// filters.
package vtl

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenText                 // literal template text between tags
	TokenTagOpen              // '<' beginning a component tag
	TokenTagEnd               // '>' ending an opening tag
	TokenTagSelfEnd           // '/>' ending a self-closing tag
	TokenTagClose             // '</Name>' closing a block tag
	TokenIdent                // tag name, attribute name, or bare value
	TokenEQ                   // '='
	TokenString               // "quoted" or 'quoted' attribute value
	TokenBraced               // {...} attribute value, brace balanced
	TokenBody                 // raw body of a block tag
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenText:
		return "text"
	case TokenTagOpen:
		return "'<'"
	case TokenTagEnd:
		return "'>'"
	case TokenTagSelfEnd:
		return "'/>'"
	case TokenTagClose:
		return "closing tag"
	case TokenIdent:
		return "identifier"
	case TokenEQ:
		return "'='"
	case TokenString:
		return "string"
	case TokenBraced:
		return "braced value"
	case TokenBody:
		return "tag body"
	default:
		return "unknown"
	}
}

// Token represents a single lexical token in a view template.
type Token struct {
	Type    TokenType
	Literal string // token text; for strings and braced values, the inner text
	Pos     int    // byte offset in source
	Line    int    // 1-based line number
	Col     int    // 1-based column number
}
