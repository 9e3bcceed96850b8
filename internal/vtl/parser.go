package vtl

// Parser implements a recursive descent parser over the template token
// stream. Parsing is side-effect free and idempotent: the same source
// always yields the same AST.
type Parser struct {
	source string
	tokens []Token
	pos    int
	errors []*ParseError
}

// NewParser creates a parser from a token slice (typically from Lexer.Tokenize).
func NewParser(source string, tokens []Token) *Parser {
	return &Parser{source: source, tokens: tokens}
}

// Parse tokenizes and parses a template in one step.
func Parse(source string) (*Template, []*ParseError) {
	lexer := NewLexer(source)
	tokens, lexErrors := lexer.Tokenize()
	parser := NewParser(source, tokens)
	tmpl, parseErrors := parser.ParseTemplate()
	return tmpl, append(lexErrors, parseErrors...)
}

// ParseTemplate parses the token stream into a Template AST.
func (p *Parser) ParseTemplate() (*Template, []*ParseError) {
	tmpl := &Template{Source: p.source}
	for !p.atEnd() {
		tok := p.peek()
		switch tok.Type {
		case TokenText:
			p.advance()
			tmpl.Nodes = append(tmpl.Nodes, &TextNode{
				Text:  tok.Literal,
				Start: tok.Pos,
				End:   tok.Pos + len(tok.Literal),
			})
		case TokenTagOpen:
			if tag := p.parseTag(); tag != nil {
				tmpl.Nodes = append(tmpl.Nodes, tag)
			}
		default:
			p.addError(tok, "unexpected %s at template level", tok.Type)
			p.advance()
		}
	}
	return tmpl, p.errors
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) addError(tok Token, format string, args ...any) {
	p.errors = append(p.errors, newParseErrorf(tok, format, args...))
}

// parseTag parses one component tag starting at TokenTagOpen.
func (p *Parser) parseTag() *TagNode {
	open := p.advance() // consume '<'

	nameTok := p.peek()
	if nameTok.Type != TokenIdent {
		p.addError(nameTok, "expected component name after '<', got %s", nameTok.Type)
		p.synchronize()
		return nil
	}
	p.advance()

	tag := &TagNode{Name: nameTok.Literal, Start: open.Pos}

	for p.check(TokenIdent) {
		tag.Attrs = append(tag.Attrs, p.parseAttr())
	}

	switch p.peek().Type {
	case TokenTagSelfEnd:
		end := p.advance()
		tag.SelfClosing = true
		tag.End = end.Pos + len(end.Literal)
		return tag

	case TokenTagEnd:
		p.advance()
		if p.check(TokenBody) {
			tag.Body = p.advance().Literal
		}
		if p.check(TokenTagClose) {
			closeTok := p.advance()
			tag.End = closeTok.Pos + len(closeTok.Literal)
		} else {
			tag.End = len(p.source)
		}
		return tag

	default:
		p.addError(p.peek(), "expected '>' or '/>' in component tag <%s>, got %s", tag.Name, p.peek().Type)
		p.synchronize()
		tag.End = p.peek().Pos
		return tag
	}
}

// parseAttr parses one name[=value] attribute. A value-less attribute is a
// boolean flag.
func (p *Parser) parseAttr() Attr {
	nameTok := p.advance()
	attr := Attr{Name: nameTok.Literal, Pos: nameTok.Pos}

	if !p.check(TokenEQ) {
		attr.Value = AttrValue{Kind: ValueBare, Raw: "true"}
		return attr
	}
	p.advance() // consume '='

	valTok := p.peek()
	switch valTok.Type {
	case TokenString:
		p.advance()
		attr.Value = AttrValue{Kind: ValueString, Raw: valTok.Literal}
	case TokenBraced:
		p.advance()
		attr.Value = AttrValue{Kind: ValueBraced, Raw: valTok.Literal}
	case TokenIdent:
		p.advance()
		attr.Value = AttrValue{Kind: ValueBare, Raw: valTok.Literal}
	default:
		p.addError(valTok, "expected attribute value after '%s=', got %s", attr.Name, valTok.Type)
		attr.Value = AttrValue{Kind: ValueBare, Raw: ""}
	}
	return attr
}

// synchronize skips tokens until the current tag is abandoned and text
// resumes, so one malformed tag does not cascade.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		switch p.peek().Type {
		case TokenText, TokenTagOpen:
			return
		case TokenTagSelfEnd, TokenTagClose:
			p.advance()
			return
		}
		p.advance()
	}
}
