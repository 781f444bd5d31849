// Package lexer holds the lexical primitives shared by the rndc.conf parser
// and the showzone output parser: comment skipping, quoted strings,
// identifiers, IP literals and port numbers.
package lexer

import (
	"net/netip"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

// IsIdentRune reports whether r may appear in an identifier.
// Identifiers cover names like rndc-key, hmac-sha256, 127.0.0.1 and 2001:db8::1.
func IsIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '-' || r == '.' || r == ':'
}

// isAddrByte reports whether c can be part of an IPv4 or IPv6 literal.
func isAddrByte(c byte) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'f') ||
		(c >= 'A' && c <= 'F') ||
		c == '.' || c == ':'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseIP parses an IPv4 or IPv6 literal, tolerating and discarding a
// trailing "/<digits>" CIDR suffix. Zone identifiers ("%eth0") are rejected.
func ParseIP(text string) (netip.Addr, error) {
	addr := text
	if i := strings.IndexByte(text, '/'); i >= 0 {
		suffix := text[i+1:]
		if suffix == "" || strings.TrimFunc(suffix, unicode.IsDigit) != "" {
			return netip.Addr{}, domain.NewParseError(domain.ErrInvalidIPAddress, text)
		}
		addr = text[:i]
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil || ip.Zone() != "" {
		return netip.Addr{}, domain.NewParseError(domain.ErrInvalidIPAddress, text)
	}
	return ip, nil
}

// ParsePort parses a decimal port. Values above 65535 fail rather than wrap.
func ParsePort(text string) (uint16, error) {
	if text == "" || strings.TrimFunc(text, unicode.IsDigit) != "" {
		return 0, &domain.ParseError{Kind: domain.ErrSyntax, Expected: "port number", Detail: text}
	}
	v, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return 0, &domain.ParseError{Kind: domain.ErrSyntax, Detail: "port out of range: " + text}
	}
	return uint16(v), nil
}

// ParseUint32 parses a decimal 32-bit unsigned integer.
func ParseUint32(text string) (uint32, error) {
	if text == "" || strings.TrimFunc(text, unicode.IsDigit) != "" {
		return 0, &domain.ParseError{Kind: domain.ErrSyntax, Expected: "number", Detail: text}
	}
	v, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, &domain.ParseError{Kind: domain.ErrSyntax, Detail: "number out of range: " + text}
	}
	return uint32(v), nil
}

// DecodeQuoted decodes the body of a quoted string (without the surrounding
// quotes). \" \\ \n \r \t are translated; any other escaped character passes
// through unchanged together with its backslash.
func DecodeQuoted(body string) string {
	if strings.IndexByte(body, '\\') < 0 {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

// identEnd returns the end offset of the identifier starting at src[start:].
func identEnd(src string, start int) int {
	i := start
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if !IsIdentRune(r) {
			break
		}
		i += size
	}
	return i
}
