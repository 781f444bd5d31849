package lexer

import (
	"net/netip"
	"strings"

	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

// Scanner walks a configuration text. It carries only an offset, so a
// caller can save Pos and Reset to it to retry a statement with another
// matcher.
type Scanner struct {
	src string
	pos int
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.pos }

// Reset moves the scanner back (or forward) to a saved offset.
func (s *Scanner) Reset(pos int) { s.pos = pos }

// Slice returns the source text between two offsets.
func (s *Scanner) Slice(from, to int) string { return s.src[from:to] }

// Rest returns the unconsumed input.
func (s *Scanner) Rest() string { return s.src[s.pos:] }

// SkipSpace consumes whitespace and comments: // ..., # ... and /* ... */.
// Block comments do not nest; an unterminated one runs to end of input.
func (s *Scanner) SkipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			s.pos++
		case c == '#':
			s.skipLine()
		case c == '/' && s.peekAt(1) == '/':
			s.skipLine()
		case c == '/' && s.peekAt(1) == '*':
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				s.pos = len(s.src)
				return
			}
			s.pos += 2 + end + 2
		default:
			return
		}
	}
}

func (s *Scanner) skipLine() {
	if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
		s.pos += i + 1
		return
	}
	s.pos = len(s.src)
}

func (s *Scanner) peekAt(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

// AtEOF skips space and reports whether input is exhausted.
func (s *Scanner) AtEOF() bool {
	s.SkipSpace()
	return s.pos >= len(s.src)
}

// Peek skips space and returns the next byte, or 0 at end of input.
func (s *Scanner) Peek() byte {
	s.SkipSpace()
	return s.peekAt(0)
}

// Expect consumes the single byte c, skipping leading space.
func (s *Scanner) Expect(c byte) error {
	s.SkipSpace()
	if s.pos >= len(s.src) {
		return s.Incomplete(string(c))
	}
	if s.src[s.pos] != c {
		return s.Errorf(domain.ErrSyntax, "'"+string(c)+"'")
	}
	s.pos++
	return nil
}

// Accept consumes c if it is next and reports whether it did.
func (s *Scanner) Accept(c byte) bool {
	if s.Peek() == c && s.pos < len(s.src) {
		s.pos++
		return true
	}
	return false
}

// ExpectBlockEnd consumes the "};" that closes a brace block.
func (s *Scanner) ExpectBlockEnd() error {
	if err := s.Expect('}'); err != nil {
		return err
	}
	return s.Expect(';')
}

// Keyword consumes word if the next identifier is exactly word.
func (s *Scanner) Keyword(word string) bool {
	s.SkipSpace()
	end := identEnd(s.src, s.pos)
	if s.src[s.pos:end] != word {
		return false
	}
	s.pos = end
	return true
}

// PeekIdentifier returns the next identifier without consuming it.
func (s *Scanner) PeekIdentifier() string {
	s.SkipSpace()
	return s.src[s.pos:identEnd(s.src, s.pos)]
}

// Identifier consumes a maximal run of identifier characters.
func (s *Scanner) Identifier() (string, error) {
	s.SkipSpace()
	if s.pos >= len(s.src) {
		return "", s.Incomplete("identifier")
	}
	end := identEnd(s.src, s.pos)
	if end == s.pos {
		return "", s.Errorf(domain.ErrSyntax, "identifier")
	}
	id := s.src[s.pos:end]
	s.pos = end
	return id, nil
}

// Quoted consumes a double-quoted string and returns its decoded value.
func (s *Scanner) Quoted() (string, error) {
	s.SkipSpace()
	if s.pos >= len(s.src) {
		return "", s.Incomplete("quoted string")
	}
	if s.src[s.pos] != '"' {
		return "", s.Errorf(domain.ErrSyntax, "quoted string")
	}
	end, ok := quotedEnd(s.src, s.pos)
	if !ok {
		return "", s.Incomplete("closing '\"'")
	}
	body := s.src[s.pos+1 : end-1]
	s.pos = end
	return DecodeQuoted(body), nil
}

// quotedEnd returns the offset just past the closing quote of the string
// starting at src[start] == '"'.
func quotedEnd(src string, start int) (int, bool) {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1, true
		}
	}
	return len(src), false
}

// IP consumes an IPv4 or IPv6 literal with an optional CIDR suffix. The
// literal must not run into further identifier characters.
func (s *Scanner) IP() (netip.Addr, error) {
	s.SkipSpace()
	if s.pos >= len(s.src) {
		return netip.Addr{}, s.Incomplete("IP address")
	}
	start := s.pos
	end := start
	for end < len(s.src) && isAddrByte(s.src[end]) {
		end++
	}
	if end == start {
		return netip.Addr{}, s.Errorf(domain.ErrSyntax, "IP address")
	}
	if end < len(s.src) && s.src[end] == '/' {
		d := end + 1
		for d < len(s.src) && isDigit(s.src[d]) {
			d++
		}
		if d > end+1 {
			end = d
		}
	}
	if identEnd(s.src, end) != end {
		return netip.Addr{}, s.Errorf(domain.ErrSyntax, "IP address")
	}
	ip, err := ParseIP(s.src[start:end])
	if err != nil {
		return netip.Addr{}, s.Errorf(domain.ErrInvalidIPAddress, "IP address")
	}
	s.pos = end
	return ip, nil
}

// AddressList consumes a brace-delimited list of IP literals, { ip; ip; }.
// The closing brace is consumed but not the ';' after it. The final entry
// may omit its own ';'. An empty list yields an empty, non-nil slice.
func (s *Scanner) AddressList() ([]netip.Addr, error) {
	if err := s.Expect('{'); err != nil {
		return nil, err
	}
	addrs := []netip.Addr{}
	for !s.Accept('}') {
		ip, err := s.IP()
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, ip)
		if !s.Accept(';') && s.Peek() != '}' {
			return nil, s.Errorf(domain.ErrSyntax, "';' or '}'")
		}
	}
	return addrs, nil
}

// Port consumes a decimal port number.
func (s *Scanner) Port() (uint16, error) {
	text, err := s.digits("port number")
	if err != nil {
		return 0, err
	}
	p, err := ParsePort(text)
	if err != nil {
		s.pos -= len(text)
		return 0, s.Errorf(domain.ErrSyntax, "port number in range 0-65535")
	}
	return p, nil
}

// Uint32 consumes a decimal 32-bit unsigned integer.
func (s *Scanner) Uint32() (uint32, error) {
	text, err := s.digits("number")
	if err != nil {
		return 0, err
	}
	v, err := ParseUint32(text)
	if err != nil {
		s.pos -= len(text)
		return 0, s.Errorf(domain.ErrSyntax, "32-bit number")
	}
	return v, nil
}

func (s *Scanner) digits(what string) (string, error) {
	s.SkipSpace()
	if s.pos >= len(s.src) {
		return "", s.Incomplete(what)
	}
	end := s.pos
	for end < len(s.src) && isDigit(s.src[end]) {
		end++
	}
	if end == s.pos || identEnd(s.src, end) != end {
		return "", s.Errorf(domain.ErrSyntax, what)
	}
	text := s.src[s.pos:end]
	s.pos = end
	return text, nil
}

// RawValue captures the text of a statement value up to the ';' that ends
// it at brace depth zero, and consumes that ';'. Braces nest; quoted strings
// and comments are stepped over so that delimiters inside them are ignored.
// Comments are dropped from the captured text; the returned text is trimmed
// of surrounding whitespace.
func (s *Scanner) RawValue() (string, error) {
	s.SkipSpace()
	var b strings.Builder
	chunk := s.pos
	depth := 0
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"':
			end, ok := quotedEnd(s.src, s.pos)
			if !ok {
				s.pos = len(s.src)
				return "", s.Incomplete("closing '\"'")
			}
			s.pos = end
			continue
		case c == '#' || (c == '/' && (s.peekAt(1) == '/' || s.peekAt(1) == '*')):
			b.WriteString(s.src[chunk:s.pos])
			b.WriteByte(' ')
			s.SkipSpace()
			chunk = s.pos
			continue
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return "", s.Errorf(domain.ErrSyntax, "';'")
			}
			depth--
		case c == ';' && depth == 0:
			b.WriteString(s.src[chunk:s.pos])
			s.pos++
			return strings.TrimSpace(b.String()), nil
		}
		s.pos++
	}
	return "", s.Incomplete("';'")
}

// SkipStatement discards input through the next depth-zero ';'.
func (s *Scanner) SkipStatement() error {
	_, err := s.RawValue()
	return err
}

// Position converts a byte offset into a 1-based line and column.
func (s *Scanner) Position(off int) (line, col int) {
	if off > len(s.src) {
		off = len(s.src)
	}
	line = 1 + strings.Count(s.src[:off], "\n")
	col = off - strings.LastIndexByte(s.src[:off], '\n')
	return line, col
}

// Errorf builds a ParseError of kind at the current position.
func (s *Scanner) Errorf(kind error, expected string) *domain.ParseError {
	line, col := s.Position(s.pos)
	pe := &domain.ParseError{Kind: kind, Line: line, Column: col, Expected: expected}
	if s.pos < len(s.src) {
		pe.Detail = "found " + snippet(s.src[s.pos:])
	}
	return pe
}

// Incomplete reports that input ended while expected was still required.
func (s *Scanner) Incomplete(expected string) *domain.ParseError {
	line, col := s.Position(len(s.src))
	return &domain.ParseError{Kind: domain.ErrIncomplete, Line: line, Column: col, Expected: expected}
}

func snippet(rest string) string {
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		rest = rest[:i]
	}
	if len(rest) > 24 {
		rest = rest[:24] + "..."
	}
	return "\"" + rest + "\""
}
