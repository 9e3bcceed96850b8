package vtl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes view template source text. It alternates between text
// mode (everything is literal until a component tag opens) and tag mode
// (names, '=', quoted strings, braced values). A '<' that does not open a
// component tag stays literal text.
type Lexer struct {
	input   string
	pos     int // current byte position
	line    int // 1-based
	col     int // 1-based
	inTag   bool
	openTag string // name of the block tag whose body is pending
	tokens  []Token
	errors  []*ParseError

	// Checkpoint taken at each '<' that opens a candidate tag, so a span
	// that fails to lex as a component tag can be re-read as text.
	markPos    int
	markLine   int
	markCol    int
	markTokens int
	literalLT  int // position of a '<' known to be literal text
}

// NewLexer creates a lexer for the given template.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1, literalLT: -1}
}

// Tokenize scans the entire template and returns all tokens plus any errors.
func (l *Lexer) Tokenize() ([]Token, []*ParseError) {
	for {
		tok := l.next()
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, l.errors
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) peekAt(offset int) rune {
	p := l.pos + offset
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// advanceTo moves forward to the given byte offset, keeping line/col counts.
func (l *Lexer) advanceTo(target int) {
	for l.pos < target && l.pos < len(l.input) {
		l.advance()
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r := l.peek()
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			l.advance()
		} else {
			break
		}
	}
}

func (l *Lexer) next() Token {
	if !l.inTag {
		return l.nextText()
	}
	return l.nextTag()
}

// nextText scans text mode: a literal run ending at EOF or a tag opening.
func (l *Lexer) nextText() Token {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}

	startPos := l.pos
	startLine := l.line
	startCol := l.col

	for l.pos < len(l.input) {
		if l.peek() == '<' && unicode.IsUpper(l.peekAt(1)) && l.pos != l.literalLT {
			if l.pos > startPos {
				return Token{Type: TokenText, Literal: l.input[startPos:l.pos], Pos: startPos, Line: startLine, Col: startCol}
			}
			l.markPos, l.markLine, l.markCol = l.pos, l.line, l.col
			l.markTokens = len(l.tokens)
			l.advance() // consume '<'
			l.inTag = true
			return Token{Type: TokenTagOpen, Literal: "<", Pos: startPos, Line: startLine, Col: startCol}
		}
		l.advance()
	}
	return Token{Type: TokenText, Literal: l.input[startPos:l.pos], Pos: startPos, Line: startLine, Col: startCol}
}

// bail abandons the current candidate tag: the lexer rewinds to its '<'
// and re-reads the span as literal text. A '<' that does not open a
// well-formed component tag is ordinary prose, never an error.
func (l *Lexer) bail() Token {
	l.inTag = false
	l.openTag = ""
	l.tokens = l.tokens[:l.markTokens]
	l.pos, l.line, l.col = l.markPos, l.markLine, l.markCol
	l.literalLT = l.markPos
	return l.nextText()
}

// nextTag scans tag mode: names, '=', values, and the tag terminators.
func (l *Lexer) nextTag() Token {
	l.skipWhitespace()

	startPos := l.pos
	startLine := l.line
	startCol := l.col

	if l.pos >= len(l.input) {
		return l.bail()
	}

	r := l.peek()
	switch {
	case r == '/' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		l.inTag = false
		l.openTag = ""
		return Token{Type: TokenTagSelfEnd, Literal: "/>", Pos: startPos, Line: startLine, Col: startCol}

	case r == '>':
		l.advance()
		l.inTag = false
		return l.scanBody(startPos, startLine, startCol)

	case r == '=':
		l.advance()
		return Token{Type: TokenEQ, Literal: "=", Pos: startPos, Line: startLine, Col: startCol}

	case r == '"' || r == '\'':
		return l.scanString(startPos, startLine, startCol)

	case r == '{':
		return l.scanBraced(startPos, startLine, startCol)

	case isNamePart(r):
		return l.scanIdent(startPos, startLine, startCol)
	}

	return l.bail()
}

// scanBody emits TokenTagEnd, then captures the raw body up to the matching
// close tag and emits it with the close token queued for the next call.
func (l *Lexer) scanBody(gtPos, gtLine, gtCol int) Token {
	end := Token{Type: TokenTagEnd, Literal: ">", Pos: gtPos, Line: gtLine, Col: gtCol}
	if l.openTag == "" {
		return end
	}

	closing := "</" + l.openTag + ">"
	idx := strings.Index(l.input[l.pos:], closing)
	if idx < 0 {
		return l.bail()
	}

	bodyStart := l.pos
	bodyLine := l.line
	bodyCol := l.col
	l.advanceTo(bodyStart + idx)
	body := Token{Type: TokenBody, Literal: l.input[bodyStart : bodyStart+idx], Pos: bodyStart, Line: bodyLine, Col: bodyCol}

	closePos := l.pos
	closeLine := l.line
	closeCol := l.col
	l.advanceTo(closePos + len(closing))
	l.tokens = append(l.tokens, end, body)
	l.openTag = ""
	return Token{Type: TokenTagClose, Literal: closing, Pos: closePos, Line: closeLine, Col: closeCol}
}

// scanString reads a quoted attribute value.
func (l *Lexer) scanString(startPos, startLine, startCol int) Token {
	quote := l.advance()
	var b strings.Builder
	for l.pos < len(l.input) {
		r := l.advance()
		if r == quote {
			return Token{Type: TokenString, Literal: b.String(), Pos: startPos, Line: startLine, Col: startCol}
		}
		if r == '\\' {
			next := l.advance()
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"', '\'':
				b.WriteRune(next)
			default:
				b.WriteByte('\\')
				b.WriteRune(next)
			}
			continue
		}
		if r == '>' || r == 0 {
			break
		}
		b.WriteRune(r)
	}
	return l.bail()
}

// scanBraced reads a {...} value, balancing nested braces and skipping
// quoted sections. The literal is the inner text without the outer braces.
func (l *Lexer) scanBraced(startPos, startLine, startCol int) Token {
	l.advance() // consume '{'
	depth := 1
	innerStart := l.pos
	for l.pos < len(l.input) {
		r := l.peek()
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				lit := l.input[innerStart:l.pos]
				l.advance() // consume '}'
				return Token{Type: TokenBraced, Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
			}
		case '"', '\'':
			l.skipQuoted(r)
			continue
		}
		l.advance()
	}
	return l.bail()
}

// skipQuoted advances past a quoted section inside a braced value.
func (l *Lexer) skipQuoted(quote rune) {
	l.advance() // opening quote
	for l.pos < len(l.input) {
		r := l.advance()
		if r == '\\' {
			l.advance()
			continue
		}
		if r == quote {
			return
		}
	}
}

// scanIdent reads a tag name, attribute name, or bare attribute value.
func (l *Lexer) scanIdent(startPos, startLine, startCol int) Token {
	start := l.pos
	for l.pos < len(l.input) && isNamePart(l.peek()) {
		l.advance()
	}
	lit := l.input[start:l.pos]
	// The first identifier after '<' names the tag; remember it so the body
	// scanner can find the matching close tag.
	if len(l.tokens) > 0 && l.tokens[len(l.tokens)-1].Type == TokenTagOpen {
		l.openTag = lit
	}
	return Token{Type: TokenIdent, Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
}

func isNamePart(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
