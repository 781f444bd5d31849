// Package showzone parses the zone statement printed by a show-zone query,
// e.g. `zone "example.com" { type primary; file "db.example"; };`, into a
// typed domain.ZoneConfig.
package showzone

import (
	"strings"

	"github.com/haukened/rr-bindctl/internal/bind/common/lexer"
	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

const utf8BOM = "\uFEFF"

// ParseZoneBlock parses `zone "<name>" [<class>] { <statement>* };`.
// The class defaults to IN and the type to primary when absent. Anything
// after the closing "};" is ignored.
func ParseZoneBlock(text string) (domain.ZoneConfig, error) {
	s := lexer.NewScanner(clean(text))
	if !s.Keyword("zone") {
		if s.AtEOF() {
			return domain.ZoneConfig{}, s.Incomplete("zone statement")
		}
		return domain.ZoneConfig{}, s.Errorf(domain.ErrSyntax, "zone statement")
	}
	name, err := s.Quoted()
	if err != nil {
		return domain.ZoneConfig{}, err
	}

	class := domain.ClassIN
	if word := s.PeekIdentifier(); word != "" {
		c, ok := domain.ParseDNSClass(word)
		if !ok {
			return domain.ZoneConfig{}, s.Errorf(domain.ErrSyntax, "class IN, CH or HS")
		}
		s.Keyword(word)
		class = c
	}

	cfg, err := parseBody(s, name)
	if err != nil {
		return domain.ZoneConfig{}, err
	}
	cfg.Class = class
	return cfg, nil
}

// ParseZoneBody parses a bare `{ <statement>* };` block, the form passed to
// add and modify commands, into a zone called name.
func ParseZoneBody(name, text string) (domain.ZoneConfig, error) {
	return parseBody(lexer.NewScanner(clean(text)), name)
}

func clean(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, utf8BOM))
}

func parseBody(s *lexer.Scanner, name string) (domain.ZoneConfig, error) {
	if err := s.Expect('{'); err != nil {
		return domain.ZoneConfig{}, err
	}
	cfg := domain.NewZoneConfig(name, domain.ZonePrimary)
	for !s.Accept('}') {
		if s.AtEOF() {
			return domain.ZoneConfig{}, s.Incomplete("directive or '}'")
		}
		word := s.PeekIdentifier()
		if word == "" {
			return domain.ZoneConfig{}, s.Errorf(domain.ErrSyntax, "directive name")
		}
		if err := applyDirective(s, word, &cfg); err != nil {
			return domain.ZoneConfig{}, err
		}
	}
	if err := s.Expect(';'); err != nil {
		return domain.ZoneConfig{}, err
	}
	return cfg, nil
}

// applyDirective runs every matcher accepting name in order until one
// succeeds. The scanner is rewound to the directive name before each try,
// and a matcher only writes to cfg once it has consumed the whole
// statement, so a failed typed attempt leaves no trace.
func applyDirective(s *lexer.Scanner, name string, cfg *domain.ZoneConfig) error {
	start := s.Pos()
	var lastErr error
	for _, m := range matchers {
		if !m.accepts(name) {
			continue
		}
		s.Reset(start)
		s.Keyword(name)
		err := m.parse(s, name, cfg)
		if err == nil {
			return nil
		}
		if m.strict {
			return err
		}
		lastErr = err
	}
	s.Reset(start)
	return lastErr
}
