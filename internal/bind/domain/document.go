package domain

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

// DefaultKeyAlgorithm is assumed for a key block with no algorithm statement.
const DefaultKeyAlgorithm = "hmac-sha256"

// ConfigDocument is the structural form of an rndc.conf style file.
// Keys are indexed by name and servers by the text of their address.
type ConfigDocument struct {
	Keys     map[string]KeyBlock
	Servers  map[string]ServerBlock
	Options  OptionsBlock
	Includes []string
}

// NewConfigDocument returns an empty document with initialized maps.
func NewConfigDocument() ConfigDocument {
	return ConfigDocument{
		Keys:    make(map[string]KeyBlock),
		Servers: make(map[string]ServerBlock),
	}
}

// DefaultKey returns the key named by the options default-key, if both exist.
func (d ConfigDocument) DefaultKey() (KeyBlock, bool) {
	if d.Options.DefaultKey == nil {
		return KeyBlock{}, false
	}
	k, ok := d.Keys[*d.Options.DefaultKey]
	return k, ok
}

// DefaultServer returns the options default-server, if set.
func (d ConfigDocument) DefaultServer() (string, bool) {
	if d.Options.DefaultServer == nil {
		return "", false
	}
	return *d.Options.DefaultServer, true
}

// ToConfFile serializes the document back into the configuration grammar.
// Keys and servers are written in name order so output is stable.
func (d ConfigDocument) ToConfFile() string {
	var b strings.Builder
	for _, inc := range d.Includes {
		fmt.Fprintf(&b, "include %s;\n", quote(inc))
	}
	for _, name := range sortedKeys(d.Keys) {
		fmt.Fprintf(&b, "\nkey %s %s\n", quote(name), d.Keys[name].ConfBlock())
	}
	for _, addr := range sortedKeys(d.Servers) {
		fmt.Fprintf(&b, "\nserver %s %s\n", addr, d.Servers[addr].ConfBlock())
	}
	if !d.Options.IsEmpty() {
		fmt.Fprintf(&b, "\noptions %s\n", d.Options.ConfBlock())
	}
	return b.String()
}

// KeyBlock is a named shared-secret credential.
type KeyBlock struct {
	Name      string
	Algorithm string
	Secret    string
}

// ConfBlock renders the `{ algorithm ...; secret "..."; };` body.
func (k KeyBlock) ConfBlock() string {
	return fmt.Sprintf("{\n    algorithm %s;\n    secret %s;\n};", k.Algorithm, quote(k.Secret))
}

// ServerAddress is either a hostname or an IP address.
type ServerAddress struct {
	Hostname string
	IP       netip.Addr
}

// HostAddress wraps a hostname.
func HostAddress(h string) ServerAddress { return ServerAddress{Hostname: h} }

// IPAddress wraps an IP.
func IPAddress(ip netip.Addr) ServerAddress { return ServerAddress{IP: ip} }

// ParseServerAddress classifies s as an IP when it parses as one, otherwise
// as a hostname.
func ParseServerAddress(s string) ServerAddress {
	if ip, err := netip.ParseAddr(s); err == nil {
		return IPAddress(ip)
	}
	return HostAddress(s)
}

// IsIP reports whether the address holds an IP.
func (a ServerAddress) IsIP() bool { return a.IP.IsValid() }

func (a ServerAddress) String() string {
	if a.IsIP() {
		return a.IP.String()
	}
	return a.Hostname
}

// ServerBlock holds per-server settings. Nil pointers and a nil Addresses
// slice mean the sub-statement was absent.
type ServerBlock struct {
	Address   ServerAddress
	Key       *string
	Port      *uint16
	Addresses []netip.Addr
}

// ConfBlock renders the server body, `{ };` when nothing is set.
func (s ServerBlock) ConfBlock() string {
	var parts []string
	if s.Key != nil {
		parts = append(parts, fmt.Sprintf("    key %s;", quote(*s.Key)))
	}
	if s.Port != nil {
		parts = append(parts, fmt.Sprintf("    port %d;", *s.Port))
	}
	if s.Addresses != nil {
		lines := make([]string, 0, len(s.Addresses))
		for _, ip := range s.Addresses {
			lines = append(lines, fmt.Sprintf("        %s;", ip))
		}
		parts = append(parts, "    addresses {\n"+strings.Join(lines, "\n")+"\n    };")
	}
	if len(parts) == 0 {
		return "{ };"
	}
	return "{\n" + strings.Join(parts, "\n") + "\n};"
}

// OptionsBlock holds global defaults. Each field is nil when unset.
type OptionsBlock struct {
	DefaultServer *string
	DefaultKey    *string
	DefaultPort   *uint16
}

// IsEmpty reports whether no field is set.
func (o OptionsBlock) IsEmpty() bool {
	return o.DefaultServer == nil && o.DefaultKey == nil && o.DefaultPort == nil
}

// Overlay returns o with every field that other sets replaced by other's
// value. Used for later options blocks within one file.
func (o OptionsBlock) Overlay(other OptionsBlock) OptionsBlock {
	if other.DefaultServer != nil {
		o.DefaultServer = other.DefaultServer
	}
	if other.DefaultKey != nil {
		o.DefaultKey = other.DefaultKey
	}
	if other.DefaultPort != nil {
		o.DefaultPort = other.DefaultPort
	}
	return o
}

// FillFrom returns o with only its unset fields taken from other. Used when
// folding an included file into its includer.
func (o OptionsBlock) FillFrom(other OptionsBlock) OptionsBlock {
	if o.DefaultServer == nil {
		o.DefaultServer = other.DefaultServer
	}
	if o.DefaultKey == nil {
		o.DefaultKey = other.DefaultKey
	}
	if o.DefaultPort == nil {
		o.DefaultPort = other.DefaultPort
	}
	return o
}

// ConfBlock renders the options body, `{ };` when empty.
func (o OptionsBlock) ConfBlock() string {
	var parts []string
	if o.DefaultServer != nil {
		parts = append(parts, fmt.Sprintf("    default-server %s;", *o.DefaultServer))
	}
	if o.DefaultKey != nil {
		parts = append(parts, fmt.Sprintf("    default-key %s;", quote(*o.DefaultKey)))
	}
	if o.DefaultPort != nil {
		parts = append(parts, fmt.Sprintf("    default-port %d;", *o.DefaultPort))
	}
	if len(parts) == 0 {
		return "{ };"
	}
	return "{\n" + strings.Join(parts, "\n") + "\n};"
}

// quote renders s as a double-quoted string, escaping what the lexer decodes.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T { return &v }
