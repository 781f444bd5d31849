package domain

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToProtocolBlock_Minimal(t *testing.T) {
	z := NewZoneConfig("example.com", ZonePrimary)
	assert.Equal(t, "{ type primary; };", z.ToProtocolBlock())
}

func TestToProtocolBlock_FieldOrder(t *testing.T) {
	z := NewZoneConfig("example.com", ZoneSecondary)
	z.RequestIxfr = Ptr(true)
	z.Forward = Ptr(ForwardOnly)
	z.AllowQuery = []netip.Addr{netip.MustParseAddr("10.0.0.1")}
	z.File = Ptr("db.example")
	z.Notify = Ptr(NotifyNo)
	z.Primaries = []PrimarySpec{{Address: netip.MustParseAddr("192.0.2.1"), Port: Ptr(uint16(53))}}
	z.RawOptions["zone-statistics"] = "full"
	z.RawOptions["dialup"] = "no"

	assert.Equal(t,
		`{ type secondary; file "db.example"; primaries { 192.0.2.1 port 53; }; notify no; allow-query { 10.0.0.1; }; forward only; request-ixfr yes; dialup no; zone-statistics full; };`,
		z.ToProtocolBlock())
}

func TestToProtocolBlock_EmptyListsOmitted(t *testing.T) {
	z := NewZoneConfig("example.com", ZonePrimary)
	z.AlsoNotify = []netip.Addr{}
	z.AllowUpdate = []netip.Addr{}
	z.AllowTransfer = nil
	z.Primaries = []PrimarySpec{}

	assert.Equal(t, "{ type primary; };", z.ToProtocolBlock())
}

func TestToProtocolBlock_AllowUpdatePreference(t *testing.T) {
	tests := []struct {
		name     string
		ips      []netip.Addr
		raw      *string
		contains string
		absent   string
	}{
		{
			name:     "raw wins over list",
			ips:      []netip.Addr{netip.MustParseAddr("10.1.1.1")},
			raw:      Ptr(`{ key "ddns"; }`),
			contains: `allow-update { key "ddns"; };`,
			absent:   "10.1.1.1",
		},
		{
			name:     "list used without raw",
			ips:      []netip.Addr{netip.MustParseAddr("10.1.1.1")},
			contains: "allow-update { 10.1.1.1; };",
		},
		{
			name:   "blank raw emits nothing",
			ips:    []netip.Addr{netip.MustParseAddr("10.1.1.1")},
			raw:    Ptr(" ; "),
			absent: "allow-update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := NewZoneConfig("z", ZonePrimary)
			z.AllowUpdate = tt.ips
			z.AllowUpdateRaw = tt.raw
			out := z.ToProtocolBlock()
			if tt.contains != "" {
				assert.Contains(t, out, tt.contains)
			}
			if tt.absent != "" {
				assert.NotContains(t, out, tt.absent)
			}
		})
	}
}

func TestToProtocolBlock_RawOptionWithoutValue(t *testing.T) {
	z := NewZoneConfig("z", ZonePrimary)
	z.RawOptions["flag-only"] = " ;"
	assert.Equal(t, "{ type primary; flag-only; };", z.ToProtocolBlock())
}

func TestToProtocolBlock_NeverDoubleSemicolon(t *testing.T) {
	values := []string{"full;", "full;;", "a ;; b;", "{ 1.2.3.4;; };;", "x;\n\n", ";", ""}
	for _, v := range values {
		z := NewZoneConfig("z", ZonePrimary)
		z.RawOptions["opt"] = v
		z.UpdatePolicy = Ptr(v)
		out := z.ToProtocolBlock()
		assert.NotContains(t, out, ";;", "value %q", v)
		assert.True(t, strings.HasSuffix(out, "};"), "value %q", v)
	}
}

func TestToProtocolBlock_QuotesEscaped(t *testing.T) {
	z := NewZoneConfig("z", ZonePrimary)
	z.File = Ptr(`C:\zones\"odd".db`)
	assert.Equal(t, `{ type primary; file "C:\\zones\\\"odd\".db"; };`, z.ToProtocolBlock())
}

func TestToProtocolBlock_ForwarderTLSQuoted(t *testing.T) {
	z := NewZoneConfig("z", ZoneForward)
	z.Forwarders = []ForwarderSpec{
		{Address: netip.MustParseAddr("192.0.2.53"), Port: Ptr(uint16(853)), TLS: Ptr("my tls")},
		{Address: netip.MustParseAddr("2001:db8::53"), TLS: Ptr("dot")},
	}
	assert.Equal(t, `{ type forward; forwarders { 192.0.2.53 port 853 tls "my tls"; 2001:db8::53 tls "dot"; }; };`, z.ToProtocolBlock())
}

func TestToProtocolBlock_QuotedSemicolonsKept(t *testing.T) {
	z := NewZoneConfig("z", ZonePrimary)
	z.File = Ptr("db;;odd")
	assert.Equal(t, `{ type primary; file "db;;odd"; };`, z.ToProtocolBlock())
}

func TestZoneStatement(t *testing.T) {
	z := NewZoneConfig("example.com", ZoneHint)
	assert.Equal(t, `zone "example.com" { type hint; };`, z.ZoneStatement())

	z.Class = ClassCH
	assert.Equal(t, `zone "example.com" CH { type hint; };`, z.ZoneStatement())
}

func TestTrimValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "full", want: "full"},
		{in: "  full ;\n", want: "full"},
		{in: "{ a;; b; };;", want: "{ a; b; }"},
		{in: `"x;;y";;`, want: `"x;;y"`},
		{in: `"esc\";;" z;; w`, want: `"esc\";;" z; w`},
		{in: ";;;", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, trimValue(tt.in), "input %q", tt.in)
	}
}
