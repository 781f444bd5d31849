package domain

import (
	"maps"
	"net/netip"
	"slices"
)

// PrimarySpec is one entry of a primaries list.
type PrimarySpec struct {
	Address netip.Addr
	Port    *uint16
}

// ForwarderSpec is one entry of a forwarders list.
type ForwarderSpec struct {
	Address netip.Addr
	Port    *uint16
	TLS     *string
}

// ZoneConfig is the typed form of a zone statement as returned by a
// show-zone query. Every optional directive is nil when absent. Directives
// the model does not understand are kept verbatim in RawOptions.
//
// AllowUpdateRaw holds the whole allow-update body when it references a
// key; serialization prefers it over AllowUpdate. Callers setting one of
// the two should clear the other.
type ZoneConfig struct {
	Name  string
	Class DNSClass
	Type  ZoneType
	File  *string

	Primaries  []PrimarySpec
	AlsoNotify []netip.Addr
	Notify     *NotifyMode

	AllowQuery            []netip.Addr
	AllowTransfer         []netip.Addr
	AllowUpdate           []netip.Addr
	AllowUpdateRaw        *string
	AllowUpdateForwarding []netip.Addr
	AllowNotify           []netip.Addr

	MaxTransferTimeIn  *uint32
	MaxTransferTimeOut *uint32
	MaxTransferIdleIn  *uint32
	MaxTransferIdleOut *uint32
	TransferSource     *netip.Addr
	TransferSourceV6   *netip.Addr
	NotifySource       *netip.Addr
	NotifySourceV6     *netip.Addr

	// UpdatePolicy is kept as raw text; its grammar is not modelled.
	UpdatePolicy        *string
	Journal             *string
	IxfrFromDifferences *bool

	InlineSigning       *bool
	AutoDNSSEC          *AutoDNSSECMode
	KeyDirectory        *string
	SigValidityInterval *uint32
	DNSKeySigValidity   *uint32

	Forward    *ForwardMode
	Forwarders []ForwarderSpec

	CheckNames       *CheckNamesMode
	CheckMX          *CheckNamesMode
	CheckIntegrity   *bool
	MasterfileFormat *MasterfileFormat
	MaxZoneTTL       *uint32

	MaxRefreshTime *uint32
	MinRefreshTime *uint32
	MaxRetryTime   *uint32
	MinRetryTime   *uint32

	MultiMaster   *bool
	RequestIxfr   *bool
	RequestExpire *bool

	// RawOptions maps an unrecognized directive name to its value text,
	// e.g. "zone-statistics" -> "full" or "dialup" -> "{ ... }".
	RawOptions map[string]string
}

// NewZoneConfig returns a zone of the given name and type in class IN.
func NewZoneConfig(name string, t ZoneType) ZoneConfig {
	return ZoneConfig{Name: name, Class: ClassIN, Type: t, RawOptions: make(map[string]string)}
}

// Clone returns a deep copy, so the copy can be changed and re-serialized
// without touching the parsed original.
func (z ZoneConfig) Clone() ZoneConfig {
	c := z
	c.File = clonePtr(z.File)
	c.Primaries = slices.Clone(z.Primaries)
	for i := range c.Primaries {
		c.Primaries[i].Port = clonePtr(c.Primaries[i].Port)
	}
	c.AlsoNotify = slices.Clone(z.AlsoNotify)
	c.Notify = clonePtr(z.Notify)
	c.AllowQuery = slices.Clone(z.AllowQuery)
	c.AllowTransfer = slices.Clone(z.AllowTransfer)
	c.AllowUpdate = slices.Clone(z.AllowUpdate)
	c.AllowUpdateRaw = clonePtr(z.AllowUpdateRaw)
	c.AllowUpdateForwarding = slices.Clone(z.AllowUpdateForwarding)
	c.AllowNotify = slices.Clone(z.AllowNotify)
	c.MaxTransferTimeIn = clonePtr(z.MaxTransferTimeIn)
	c.MaxTransferTimeOut = clonePtr(z.MaxTransferTimeOut)
	c.MaxTransferIdleIn = clonePtr(z.MaxTransferIdleIn)
	c.MaxTransferIdleOut = clonePtr(z.MaxTransferIdleOut)
	c.TransferSource = clonePtr(z.TransferSource)
	c.TransferSourceV6 = clonePtr(z.TransferSourceV6)
	c.NotifySource = clonePtr(z.NotifySource)
	c.NotifySourceV6 = clonePtr(z.NotifySourceV6)
	c.UpdatePolicy = clonePtr(z.UpdatePolicy)
	c.Journal = clonePtr(z.Journal)
	c.IxfrFromDifferences = clonePtr(z.IxfrFromDifferences)
	c.InlineSigning = clonePtr(z.InlineSigning)
	c.AutoDNSSEC = clonePtr(z.AutoDNSSEC)
	c.KeyDirectory = clonePtr(z.KeyDirectory)
	c.SigValidityInterval = clonePtr(z.SigValidityInterval)
	c.DNSKeySigValidity = clonePtr(z.DNSKeySigValidity)
	c.Forward = clonePtr(z.Forward)
	c.Forwarders = slices.Clone(z.Forwarders)
	for i := range c.Forwarders {
		c.Forwarders[i].Port = clonePtr(c.Forwarders[i].Port)
		c.Forwarders[i].TLS = clonePtr(c.Forwarders[i].TLS)
	}
	c.CheckNames = clonePtr(z.CheckNames)
	c.CheckMX = clonePtr(z.CheckMX)
	c.CheckIntegrity = clonePtr(z.CheckIntegrity)
	c.MasterfileFormat = clonePtr(z.MasterfileFormat)
	c.MaxZoneTTL = clonePtr(z.MaxZoneTTL)
	c.MaxRefreshTime = clonePtr(z.MaxRefreshTime)
	c.MinRefreshTime = clonePtr(z.MinRefreshTime)
	c.MaxRetryTime = clonePtr(z.MaxRetryTime)
	c.MinRetryTime = clonePtr(z.MinRetryTime)
	c.MultiMaster = clonePtr(z.MultiMaster)
	c.RequestIxfr = clonePtr(z.RequestIxfr)
	c.RequestExpire = clonePtr(z.RequestExpire)
	c.RawOptions = maps.Clone(z.RawOptions)
	if c.RawOptions == nil {
		c.RawOptions = make(map[string]string)
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
