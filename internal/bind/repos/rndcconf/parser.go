// Package rndcconf parses rndc.conf style credential files and resolves
// their include directives.
package rndcconf

import (
	"strings"

	"github.com/haukened/rr-bindctl/internal/bind/common/lexer"
	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

const utf8BOM = "\uFEFF"

// ParseDocument parses the text of a single file. Include directives are
// recorded but not followed; see ResolveIncludes.
//
// Within one file a repeated key or server name replaces the earlier
// definition, and later options blocks overwrite earlier ones field by field.
func ParseDocument(text string) (domain.ConfigDocument, error) {
	s := lexer.NewScanner(strings.TrimPrefix(text, utf8BOM))
	doc := domain.NewConfigDocument()

	for !s.AtEOF() {
		switch word := s.PeekIdentifier(); word {
		case "include":
			path, err := parseInclude(s)
			if err != nil {
				return domain.ConfigDocument{}, err
			}
			doc.Includes = append(doc.Includes, path)
		case "key":
			key, err := parseKeyBlock(s)
			if err != nil {
				return domain.ConfigDocument{}, err
			}
			doc.Keys[key.Name] = key
		case "server":
			srv, err := parseServerBlock(s)
			if err != nil {
				return domain.ConfigDocument{}, err
			}
			doc.Servers[srv.Address.String()] = srv
		case "options":
			opts, err := parseOptionsBlock(s)
			if err != nil {
				return domain.ConfigDocument{}, err
			}
			doc.Options = doc.Options.Overlay(opts)
		default:
			return domain.ConfigDocument{}, s.Errorf(domain.ErrSyntax, "include, key, server or options statement")
		}
	}
	return doc, nil
}

// parseInclude parses: include "/path/to/file";
func parseInclude(s *lexer.Scanner) (string, error) {
	s.Keyword("include")
	path, err := s.Quoted()
	if err != nil {
		return "", err
	}
	if err := s.Expect(';'); err != nil {
		return "", err
	}
	return path, nil
}

// parseKeyBlock parses: key "name" { algorithm hmac-sha256; secret "..."; };
// Sub-statements may repeat in any order and the last one wins. A missing
// algorithm defaults to hmac-sha256 and a missing secret to empty.
func parseKeyBlock(s *lexer.Scanner) (domain.KeyBlock, error) {
	s.Keyword("key")
	name, err := s.Quoted()
	if err != nil {
		return domain.KeyBlock{}, err
	}
	if err := s.Expect('{'); err != nil {
		return domain.KeyBlock{}, err
	}

	key := domain.KeyBlock{Name: name, Algorithm: domain.DefaultKeyAlgorithm}
	for !s.Accept('}') {
		switch {
		case s.Keyword("algorithm"):
			algo, err := s.Identifier()
			if err != nil {
				return domain.KeyBlock{}, err
			}
			key.Algorithm = algo
		case s.Keyword("secret"):
			secret, err := s.Quoted()
			if err != nil {
				return domain.KeyBlock{}, err
			}
			key.Secret = secret
		default:
			return domain.KeyBlock{}, blockError(s, "algorithm or secret")
		}
		if err := s.Expect(';'); err != nil {
			return domain.KeyBlock{}, err
		}
	}
	if err := s.Expect(';'); err != nil {
		return domain.KeyBlock{}, err
	}
	return key, nil
}

// parseServerBlock parses: server <address> { key "..."; port 953; addresses { ip; }; };
func parseServerBlock(s *lexer.Scanner) (domain.ServerBlock, error) {
	s.Keyword("server")
	addr, err := parseServerAddress(s)
	if err != nil {
		return domain.ServerBlock{}, err
	}
	if err := s.Expect('{'); err != nil {
		return domain.ServerBlock{}, err
	}

	srv := domain.ServerBlock{Address: addr}
	for !s.Accept('}') {
		switch {
		case s.Keyword("key"):
			key, err := s.Quoted()
			if err != nil {
				return domain.ServerBlock{}, err
			}
			srv.Key = &key
		case s.Keyword("port"):
			port, err := s.Port()
			if err != nil {
				return domain.ServerBlock{}, err
			}
			srv.Port = &port
		case s.Keyword("addresses"):
			addrs, err := s.AddressList()
			if err != nil {
				return domain.ServerBlock{}, err
			}
			srv.Addresses = addrs
		default:
			return domain.ServerBlock{}, blockError(s, "key, port or addresses")
		}
		if err := s.Expect(';'); err != nil {
			return domain.ServerBlock{}, err
		}
	}
	if err := s.Expect(';'); err != nil {
		return domain.ServerBlock{}, err
	}
	return srv, nil
}

// parseServerAddress tries an IP literal first and falls back to a hostname.
// A token shaped like an address that fails to parse as one is rejected
// instead of being taken as a hostname.
func parseServerAddress(s *lexer.Scanner) (domain.ServerAddress, error) {
	s.SkipSpace()
	start := s.Pos()
	if ip, err := s.IP(); err == nil {
		return domain.IPAddress(ip), nil
	}
	s.Reset(start)
	name, err := s.Identifier()
	if err != nil {
		return domain.ServerAddress{}, err
	}
	if looksLikeAddress(name) {
		s.Reset(start)
		pe := s.Errorf(domain.ErrInvalidServerAddress, "hostname or IP address")
		pe.Detail = name
		return domain.ServerAddress{}, pe
	}
	return domain.HostAddress(name), nil
}

// looksLikeAddress reports whether name is made only of digits and dots
// (a dotted quad attempt) or contains a colon (an IPv6 attempt).
func looksLikeAddress(name string) bool {
	if strings.Contains(name, ":") {
		return true
	}
	return strings.Contains(name, ".") && strings.Trim(name, "0123456789.") == ""
}

// parseOptionsBlock parses: options { default-server h; default-key "k"; default-port n; };
func parseOptionsBlock(s *lexer.Scanner) (domain.OptionsBlock, error) {
	s.Keyword("options")
	if err := s.Expect('{'); err != nil {
		return domain.OptionsBlock{}, err
	}

	var opts domain.OptionsBlock
	for !s.Accept('}') {
		switch {
		case s.Keyword("default-server"):
			server, err := s.Identifier()
			if err != nil {
				return domain.OptionsBlock{}, err
			}
			opts.DefaultServer = &server
		case s.Keyword("default-key"):
			key, err := s.Quoted()
			if err != nil {
				return domain.OptionsBlock{}, err
			}
			opts.DefaultKey = &key
		case s.Keyword("default-port"):
			port, err := s.Port()
			if err != nil {
				return domain.OptionsBlock{}, err
			}
			opts.DefaultPort = &port
		default:
			return domain.OptionsBlock{}, blockError(s, "default-server, default-key or default-port")
		}
		if err := s.Expect(';'); err != nil {
			return domain.OptionsBlock{}, err
		}
	}
	if err := s.Expect(';'); err != nil {
		return domain.OptionsBlock{}, err
	}
	return opts, nil
}

// blockError reports an unknown sub-statement, or Incomplete at end of input.
func blockError(s *lexer.Scanner, expected string) error {
	if s.AtEOF() {
		return s.Incomplete(expected + " or '}'")
	}
	return s.Errorf(domain.ErrSyntax, expected)
}
