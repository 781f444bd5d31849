package domain

import "strings"

// DNSClass is the class token that may follow a zone name.
type DNSClass uint8

const (
	ClassIN DNSClass = iota // IN - Internet, the default
	ClassCH                 // CH - Chaos
	ClassHS                 // HS - Hesiod
)

// String returns the textual representation of the DNSClass.
func (c DNSClass) String() string {
	switch c {
	case ClassCH:
		return "CH"
	case ClassHS:
		return "HS"
	default:
		return "IN"
	}
}

// ParseDNSClass converts one of the three class tokens, ignoring case.
func ParseDNSClass(s string) (DNSClass, bool) {
	switch strings.ToUpper(s) {
	case "IN":
		return ClassIN, true
	case "CH":
		return ClassCH, true
	case "HS":
		return ClassHS, true
	default:
		return ClassIN, false
	}
}

// ZoneType is the closed set of zone types. Legacy spellings are accepted
// by ParseZoneType but String always returns the current form.
type ZoneType uint8

const (
	ZonePrimary ZoneType = iota
	ZoneSecondary
	ZoneStub
	ZoneForward
	ZoneHint
	ZoneMirror
	ZoneDelegation
	ZoneRedirect
)

func (t ZoneType) String() string {
	switch t {
	case ZoneSecondary:
		return "secondary"
	case ZoneStub:
		return "stub"
	case ZoneForward:
		return "forward"
	case ZoneHint:
		return "hint"
	case ZoneMirror:
		return "mirror"
	case ZoneDelegation:
		return "delegation-only"
	case ZoneRedirect:
		return "redirect"
	default:
		return "primary"
	}
}

// ParseZoneType accepts "master" and "slave" as synonyms.
func ParseZoneType(s string) (ZoneType, bool) {
	switch s {
	case "primary", "master":
		return ZonePrimary, true
	case "secondary", "slave":
		return ZoneSecondary, true
	case "stub":
		return ZoneStub, true
	case "forward":
		return ZoneForward, true
	case "hint":
		return ZoneHint, true
	case "mirror":
		return ZoneMirror, true
	case "delegation-only":
		return ZoneDelegation, true
	case "redirect":
		return ZoneRedirect, true
	default:
		return ZonePrimary, false
	}
}

// NotifyMode is the value of the notify directive.
type NotifyMode uint8

const (
	NotifyYes NotifyMode = iota
	NotifyNo
	NotifyExplicit
	NotifyPrimaryOnly
)

func (m NotifyMode) String() string {
	switch m {
	case NotifyNo:
		return "no"
	case NotifyExplicit:
		return "explicit"
	case NotifyPrimaryOnly:
		return "primary-only"
	default:
		return "yes"
	}
}

// ParseNotifyMode accepts "master-only" as a synonym of "primary-only".
func ParseNotifyMode(s string) (NotifyMode, bool) {
	switch s {
	case "yes":
		return NotifyYes, true
	case "no":
		return NotifyNo, true
	case "explicit":
		return NotifyExplicit, true
	case "primary-only", "master-only":
		return NotifyPrimaryOnly, true
	default:
		return NotifyYes, false
	}
}

// ForwardMode is the value of the forward directive.
type ForwardMode uint8

const (
	ForwardOnly ForwardMode = iota
	ForwardFirst
)

func (m ForwardMode) String() string {
	if m == ForwardFirst {
		return "first"
	}
	return "only"
}

func ParseForwardMode(s string) (ForwardMode, bool) {
	switch s {
	case "only":
		return ForwardOnly, true
	case "first":
		return ForwardFirst, true
	default:
		return ForwardOnly, false
	}
}

// AutoDNSSECMode is the value of the auto-dnssec directive.
type AutoDNSSECMode uint8

const (
	AutoDNSSECOff AutoDNSSECMode = iota
	AutoDNSSECMaintain
	AutoDNSSECCreate
)

func (m AutoDNSSECMode) String() string {
	switch m {
	case AutoDNSSECMaintain:
		return "maintain"
	case AutoDNSSECCreate:
		return "create"
	default:
		return "off"
	}
}

func ParseAutoDNSSECMode(s string) (AutoDNSSECMode, bool) {
	switch s {
	case "off":
		return AutoDNSSECOff, true
	case "maintain":
		return AutoDNSSECMaintain, true
	case "create":
		return AutoDNSSECCreate, true
	default:
		return AutoDNSSECOff, false
	}
}

// CheckNamesMode is shared by check-names and check-mx.
type CheckNamesMode uint8

const (
	CheckFail CheckNamesMode = iota
	CheckWarn
	CheckIgnore
)

func (m CheckNamesMode) String() string {
	switch m {
	case CheckWarn:
		return "warn"
	case CheckIgnore:
		return "ignore"
	default:
		return "fail"
	}
}

func ParseCheckNamesMode(s string) (CheckNamesMode, bool) {
	switch s {
	case "fail":
		return CheckFail, true
	case "warn":
		return CheckWarn, true
	case "ignore":
		return CheckIgnore, true
	default:
		return CheckFail, false
	}
}

// MasterfileFormat is the on-disk zone file encoding.
type MasterfileFormat uint8

const (
	FormatText MasterfileFormat = iota
	FormatRaw
	FormatMap
)

func (f MasterfileFormat) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatMap:
		return "map"
	default:
		return "text"
	}
}

func ParseMasterfileFormat(s string) (MasterfileFormat, bool) {
	switch s {
	case "text":
		return FormatText, true
	case "raw":
		return FormatRaw, true
	case "map":
		return FormatMap, true
	default:
		return FormatText, false
	}
}

// YesNo renders a boolean in the grammar's yes/no form.
func YesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// ParseYesNo accepts exactly "yes" or "no".
func ParseYesNo(s string) (bool, bool) {
	switch s {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}
