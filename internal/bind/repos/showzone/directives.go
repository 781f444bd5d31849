package showzone

import (
	"net/netip"
	"slices"
	"strings"

	"github.com/haukened/rr-bindctl/internal/bind/common/lexer"
	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

// parseFunc parses the value of a directive whose name has already been
// consumed, through its terminating ';'.
type parseFunc func(s *lexer.Scanner, name string, z *domain.ZoneConfig) error

// matcher is one entry of the ordered directive table.
type matcher struct {
	// names lists the directive spellings handled; nil accepts any name.
	names []string
	// strict matchers report their error instead of letting later
	// matchers, and finally the raw capture, have a go.
	strict bool
	parse  parseFunc
}

func (m matcher) accepts(name string) bool {
	return m.names == nil || slices.Contains(m.names, name)
}

// matchers is tried top to bottom. Typed directives come first; a typed
// directive whose value it cannot model (an ACL name in an address list, a
// duration suffix on a timer) falls through to the raw capture at the end,
// which keeps the statement verbatim in RawOptions.
var matchers = []matcher{
	{names: []string{"type"}, strict: true, parse: parseType},
	{names: []string{"file"}, parse: quotedValue(func(z *domain.ZoneConfig) **string { return &z.File })},
	{names: []string{"primaries", "masters"}, parse: parsePrimaries},
	{names: []string{"also-notify"}, parse: addressList(func(z *domain.ZoneConfig) *[]netip.Addr { return &z.AlsoNotify })},
	{names: []string{"notify"}, parse: enumValue(domain.ParseNotifyMode, func(z *domain.ZoneConfig) **domain.NotifyMode { return &z.Notify })},

	{names: []string{"allow-query"}, parse: addressList(func(z *domain.ZoneConfig) *[]netip.Addr { return &z.AllowQuery })},
	{names: []string{"allow-transfer"}, parse: addressList(func(z *domain.ZoneConfig) *[]netip.Addr { return &z.AllowTransfer })},
	{names: []string{"allow-update"}, parse: parseAllowUpdate},
	{names: []string{"allow-update-forwarding"}, parse: addressList(func(z *domain.ZoneConfig) *[]netip.Addr { return &z.AllowUpdateForwarding })},
	{names: []string{"allow-notify"}, parse: addressList(func(z *domain.ZoneConfig) *[]netip.Addr { return &z.AllowNotify })},

	{names: []string{"max-transfer-time-in"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxTransferTimeIn })},
	{names: []string{"max-transfer-time-out"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxTransferTimeOut })},
	{names: []string{"max-transfer-idle-in"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxTransferIdleIn })},
	{names: []string{"max-transfer-idle-out"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxTransferIdleOut })},
	{names: []string{"transfer-source"}, parse: addrValue(func(z *domain.ZoneConfig) **netip.Addr { return &z.TransferSource })},
	{names: []string{"transfer-source-v6"}, parse: addrValue(func(z *domain.ZoneConfig) **netip.Addr { return &z.TransferSourceV6 })},
	{names: []string{"notify-source"}, parse: addrValue(func(z *domain.ZoneConfig) **netip.Addr { return &z.NotifySource })},
	{names: []string{"notify-source-v6"}, parse: addrValue(func(z *domain.ZoneConfig) **netip.Addr { return &z.NotifySourceV6 })},

	{names: []string{"update-policy"}, parse: parseUpdatePolicy},
	{names: []string{"journal"}, parse: quotedValue(func(z *domain.ZoneConfig) **string { return &z.Journal })},
	{names: []string{"ixfr-from-differences"}, parse: boolValue(func(z *domain.ZoneConfig) **bool { return &z.IxfrFromDifferences })},

	{names: []string{"inline-signing"}, parse: boolValue(func(z *domain.ZoneConfig) **bool { return &z.InlineSigning })},
	{names: []string{"auto-dnssec"}, parse: enumValue(domain.ParseAutoDNSSECMode, func(z *domain.ZoneConfig) **domain.AutoDNSSECMode { return &z.AutoDNSSEC })},
	{names: []string{"key-directory"}, parse: quotedValue(func(z *domain.ZoneConfig) **string { return &z.KeyDirectory })},
	{names: []string{"sig-validity-interval"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.SigValidityInterval })},
	{names: []string{"dnskey-sig-validity"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.DNSKeySigValidity })},

	{names: []string{"forward"}, parse: enumValue(domain.ParseForwardMode, func(z *domain.ZoneConfig) **domain.ForwardMode { return &z.Forward })},
	{names: []string{"forwarders"}, parse: parseForwarders},

	{names: []string{"check-names"}, parse: enumValue(domain.ParseCheckNamesMode, func(z *domain.ZoneConfig) **domain.CheckNamesMode { return &z.CheckNames })},
	{names: []string{"check-mx"}, parse: enumValue(domain.ParseCheckNamesMode, func(z *domain.ZoneConfig) **domain.CheckNamesMode { return &z.CheckMX })},
	{names: []string{"check-integrity"}, parse: boolValue(func(z *domain.ZoneConfig) **bool { return &z.CheckIntegrity })},
	{names: []string{"masterfile-format"}, parse: enumValue(domain.ParseMasterfileFormat, func(z *domain.ZoneConfig) **domain.MasterfileFormat { return &z.MasterfileFormat })},
	{names: []string{"max-zone-ttl"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxZoneTTL })},

	{names: []string{"max-refresh-time"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxRefreshTime })},
	{names: []string{"min-refresh-time"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MinRefreshTime })},
	{names: []string{"max-retry-time"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MaxRetryTime })},
	{names: []string{"min-retry-time"}, parse: uint32Value(func(z *domain.ZoneConfig) **uint32 { return &z.MinRetryTime })},

	{names: []string{"multi-master"}, parse: boolValue(func(z *domain.ZoneConfig) **bool { return &z.MultiMaster })},
	{names: []string{"request-ixfr"}, parse: boolValue(func(z *domain.ZoneConfig) **bool { return &z.RequestIxfr })},
	{names: []string{"request-expire"}, parse: boolValue(func(z *domain.ZoneConfig) **bool { return &z.RequestExpire })},

	{parse: parseRaw},
}

func parseType(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
	s.SkipSpace()
	at := s.Pos()
	word, err := s.Identifier()
	if err != nil {
		return err
	}
	t, ok := domain.ParseZoneType(word)
	if !ok {
		s.Reset(at)
		pe := s.Errorf(domain.ErrInvalidZoneType, "zone type")
		pe.Detail = word
		return pe
	}
	if err := s.Expect(';'); err != nil {
		return err
	}
	z.Type = t
	return nil
}

// parseRaw keeps any directive as name -> value text.
func parseRaw(s *lexer.Scanner, name string, z *domain.ZoneConfig) error {
	value, err := s.RawValue()
	if err != nil {
		return err
	}
	if z.RawOptions == nil {
		z.RawOptions = make(map[string]string)
	}
	z.RawOptions[name] = value
	return nil
}

func parseUpdatePolicy(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
	value, err := s.RawValue()
	if err != nil {
		return err
	}
	z.UpdatePolicy = &value
	return nil
}

// parseAllowUpdate handles the one directive with two representations. IP
// entries are collected into AllowUpdate; if any entry references a key,
// the whole brace body is kept verbatim in AllowUpdateRaw instead. Entries
// that are not plain IPs are skipped to their ';'.
func parseAllowUpdate(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
	s.SkipSpace()
	open := s.Pos()
	if err := s.Expect('{'); err != nil {
		return err
	}

	addrs := []netip.Addr{}
	hasKey := false
	for !s.Accept('}') {
		at := s.Pos()
		if ip, err := s.IP(); err == nil && (s.Accept(';') || s.Peek() == '}') {
			addrs = append(addrs, ip)
			continue
		}
		s.Reset(at)
		entry, err := s.RawValue()
		if err != nil {
			return err
		}
		if mentionsKey(entry) {
			hasKey = true
		}
	}
	raw := s.Slice(open, s.Pos())
	if err := s.Expect(';'); err != nil {
		return err
	}

	if hasKey {
		z.AllowUpdateRaw = &raw
		z.AllowUpdate = nil
		return nil
	}
	z.AllowUpdate = addrs
	z.AllowUpdateRaw = nil
	return nil
}

// mentionsKey reports whether an address-match entry contains a bare key
// keyword, e.g. `key "ddns"` or `!{ key "old"; }`.
func mentionsKey(entry string) bool {
	words := strings.FieldsFunc(entry, func(r rune) bool { return !lexer.IsIdentRune(r) })
	return slices.Contains(words, "key")
}

func parsePrimaries(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
	entries, err := braceList(s, func(s *lexer.Scanner) (domain.PrimarySpec, error) {
		ip, err := s.IP()
		if err != nil {
			return domain.PrimarySpec{}, err
		}
		spec := domain.PrimarySpec{Address: ip}
		if s.Keyword("port") {
			port, err := s.Port()
			if err != nil {
				return domain.PrimarySpec{}, err
			}
			spec.Port = &port
		}
		return spec, nil
	})
	if err != nil {
		return err
	}
	if err := s.Expect(';'); err != nil {
		return err
	}
	z.Primaries = entries
	return nil
}

func parseForwarders(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
	entries, err := braceList(s, func(s *lexer.Scanner) (domain.ForwarderSpec, error) {
		ip, err := s.IP()
		if err != nil {
			return domain.ForwarderSpec{}, err
		}
		spec := domain.ForwarderSpec{Address: ip}
		if s.Keyword("port") {
			port, err := s.Port()
			if err != nil {
				return domain.ForwarderSpec{}, err
			}
			spec.Port = &port
		}
		if s.Keyword("tls") {
			var name string
			if s.Peek() == '"' {
				name, err = s.Quoted()
			} else {
				name, err = s.Identifier()
			}
			if err != nil {
				return domain.ForwarderSpec{}, err
			}
			spec.TLS = &name
		}
		return spec, nil
	})
	if err != nil {
		return err
	}
	if err := s.Expect(';'); err != nil {
		return err
	}
	z.Forwarders = entries
	return nil
}

// braceList parses `{ entry; entry; }`, leaving the ';' after the closing
// brace. The final entry may omit its ';'.
func braceList[T any](s *lexer.Scanner, entry func(*lexer.Scanner) (T, error)) ([]T, error) {
	if err := s.Expect('{'); err != nil {
		return nil, err
	}
	items := []T{}
	for !s.Accept('}') {
		item, err := entry(s)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !s.Accept(';') && s.Peek() != '}' {
			return nil, s.Errorf(domain.ErrSyntax, "';' or '}'")
		}
	}
	return items, nil
}

func addressList(field func(*domain.ZoneConfig) *[]netip.Addr) parseFunc {
	return func(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
		addrs, err := s.AddressList()
		if err != nil {
			return err
		}
		if err := s.Expect(';'); err != nil {
			return err
		}
		*field(z) = addrs
		return nil
	}
}

func addrValue(field func(*domain.ZoneConfig) **netip.Addr) parseFunc {
	return func(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
		ip, err := s.IP()
		if err != nil {
			return err
		}
		if err := s.Expect(';'); err != nil {
			return err
		}
		*field(z) = &ip
		return nil
	}
}

func quotedValue(field func(*domain.ZoneConfig) **string) parseFunc {
	return func(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
		v, err := s.Quoted()
		if err != nil {
			return err
		}
		if err := s.Expect(';'); err != nil {
			return err
		}
		*field(z) = &v
		return nil
	}
}

func uint32Value(field func(*domain.ZoneConfig) **uint32) parseFunc {
	return func(s *lexer.Scanner, _ string, z *domain.ZoneConfig) error {
		v, err := s.Uint32()
		if err != nil {
			return err
		}
		if err := s.Expect(';'); err != nil {
			return err
		}
		*field(z) = &v
		return nil
	}
}

func boolValue(field func(*domain.ZoneConfig) **bool) parseFunc {
	return enumValue(domain.ParseYesNo, field)
}

// enumValue parses a single keyword from a closed vocabulary.
func enumValue[T any](parse func(string) (T, bool), field func(*domain.ZoneConfig) **T) parseFunc {
	return func(s *lexer.Scanner, name string, z *domain.ZoneConfig) error {
		word, err := s.Identifier()
		if err != nil {
			return err
		}
		v, ok := parse(word)
		if !ok {
			return s.Errorf(domain.ErrSyntax, "valid "+name+" value")
		}
		if err := s.Expect(';'); err != nil {
			return err
		}
		*field(z) = &v
		return nil
	}
}
