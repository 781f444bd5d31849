package domain

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
)

// ToProtocolBlock renders the zone in the block syntax accepted by the
// add/modify zone commands: `{ type primary; file "..."; ... };`.
//
// Directives appear in a fixed order with raw options last, sorted by name.
// Empty address lists are never written. The allow-update raw body wins
// over the typed list. Outside quoted strings the output never contains
// ";;", and it always ends with "};".
func (z ZoneConfig) ToProtocolBlock() string {
	parts := make([]string, 0, 16)
	add := func(format string, args ...any) { parts = append(parts, fmt.Sprintf(format, args...)) }

	add("type %s", z.Type)
	if z.File != nil {
		add("file %s", quote(*z.File))
	}
	if len(z.Primaries) > 0 {
		entries := make([]string, 0, len(z.Primaries))
		for _, p := range z.Primaries {
			entry := p.Address.String()
			if p.Port != nil {
				entry += " port " + strconv.Itoa(int(*p.Port))
			}
			entries = append(entries, entry)
		}
		add("primaries %s", listBlock(entries))
	}
	addAddrList(&parts, "also-notify", z.AlsoNotify)
	if z.Notify != nil {
		add("notify %s", *z.Notify)
	}

	addAddrList(&parts, "allow-query", z.AllowQuery)
	addAddrList(&parts, "allow-transfer", z.AllowTransfer)
	if z.AllowUpdateRaw != nil {
		if raw := trimValue(*z.AllowUpdateRaw); raw != "" {
			add("allow-update %s", raw)
		}
	} else {
		addAddrList(&parts, "allow-update", z.AllowUpdate)
	}
	addAddrList(&parts, "allow-update-forwarding", z.AllowUpdateForwarding)
	addAddrList(&parts, "allow-notify", z.AllowNotify)

	addUint(&parts, "max-transfer-time-in", z.MaxTransferTimeIn)
	addUint(&parts, "max-transfer-time-out", z.MaxTransferTimeOut)
	addUint(&parts, "max-transfer-idle-in", z.MaxTransferIdleIn)
	addUint(&parts, "max-transfer-idle-out", z.MaxTransferIdleOut)
	addAddr(&parts, "transfer-source", z.TransferSource)
	addAddr(&parts, "transfer-source-v6", z.TransferSourceV6)
	addAddr(&parts, "notify-source", z.NotifySource)
	addAddr(&parts, "notify-source-v6", z.NotifySourceV6)

	if z.UpdatePolicy != nil {
		if policy := trimValue(*z.UpdatePolicy); policy != "" {
			add("update-policy %s", policy)
		}
	}
	if z.Journal != nil {
		add("journal %s", quote(*z.Journal))
	}
	addBool(&parts, "ixfr-from-differences", z.IxfrFromDifferences)

	addBool(&parts, "inline-signing", z.InlineSigning)
	if z.AutoDNSSEC != nil {
		add("auto-dnssec %s", *z.AutoDNSSEC)
	}
	if z.KeyDirectory != nil {
		add("key-directory %s", quote(*z.KeyDirectory))
	}
	addUint(&parts, "sig-validity-interval", z.SigValidityInterval)
	addUint(&parts, "dnskey-sig-validity", z.DNSKeySigValidity)

	if z.Forward != nil {
		add("forward %s", *z.Forward)
	}
	if len(z.Forwarders) > 0 {
		entries := make([]string, 0, len(z.Forwarders))
		for _, f := range z.Forwarders {
			entry := f.Address.String()
			if f.Port != nil {
				entry += " port " + strconv.Itoa(int(*f.Port))
			}
			if f.TLS != nil {
				entry += " tls " + quote(*f.TLS)
			}
			entries = append(entries, entry)
		}
		add("forwarders %s", listBlock(entries))
	}

	if z.CheckNames != nil {
		add("check-names %s", *z.CheckNames)
	}
	if z.CheckMX != nil {
		add("check-mx %s", *z.CheckMX)
	}
	addBool(&parts, "check-integrity", z.CheckIntegrity)
	if z.MasterfileFormat != nil {
		add("masterfile-format %s", *z.MasterfileFormat)
	}
	addUint(&parts, "max-zone-ttl", z.MaxZoneTTL)

	addUint(&parts, "max-refresh-time", z.MaxRefreshTime)
	addUint(&parts, "min-refresh-time", z.MinRefreshTime)
	addUint(&parts, "max-retry-time", z.MaxRetryTime)
	addUint(&parts, "min-retry-time", z.MinRetryTime)

	addBool(&parts, "multi-master", z.MultiMaster)
	addBool(&parts, "request-ixfr", z.RequestIxfr)
	addBool(&parts, "request-expire", z.RequestExpire)

	names := make([]string, 0, len(z.RawOptions))
	for name := range z.RawOptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := trimValue(z.RawOptions[name]); v != "" {
			add("%s %s", name, v)
		} else {
			parts = append(parts, name)
		}
	}

	return "{ " + strings.Join(parts, "; ") + "; };"
}

// ZoneStatement renders the full `zone "<name>" [class] { ... };` statement,
// the same shape a show-zone query returns. The class is omitted for IN.
func (z ZoneConfig) ZoneStatement() string {
	if z.Class == ClassIN {
		return fmt.Sprintf("zone %s %s", quote(z.Name), z.ToProtocolBlock())
	}
	return fmt.Sprintf("zone %s %s %s", quote(z.Name), z.Class, z.ToProtocolBlock())
}

// trimValue strips trailing whitespace and separators so exactly one ';'
// can be appended by the caller. Doubled separators outside quoted strings
// are collapsed as well.
func trimValue(v string) string {
	v = strings.TrimSpace(strings.TrimRight(v, " \t\r\n;"))
	if !strings.Contains(v, ";;") {
		return v
	}
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case inQuote && c == '\\' && i+1 < len(v):
			b.WriteByte(c)
			i++
			c = v[i]
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == ';' && i > 0 && v[i-1] == ';':
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func listBlock(entries []string) string {
	return "{ " + strings.Join(entries, "; ") + "; }"
}

func addAddrList(parts *[]string, name string, addrs []netip.Addr) {
	if len(addrs) == 0 {
		return
	}
	entries := make([]string, 0, len(addrs))
	for _, a := range addrs {
		entries = append(entries, a.String())
	}
	*parts = append(*parts, name+" "+listBlock(entries))
}

func addAddr(parts *[]string, name string, a *netip.Addr) {
	if a != nil {
		*parts = append(*parts, name+" "+a.String())
	}
}

func addUint(parts *[]string, name string, v *uint32) {
	if v != nil {
		*parts = append(*parts, name+" "+strconv.FormatUint(uint64(*v), 10))
	}
}

func addBool(parts *[]string, name string, v *bool) {
	if v != nil {
		*parts = append(*parts, name+" "+YesNo(*v))
	}
}
