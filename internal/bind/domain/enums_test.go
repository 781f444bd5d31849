package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseZoneType(t *testing.T) {
	tests := []struct {
		input string
		want  ZoneType
		ok    bool
	}{
		{"primary", ZonePrimary, true},
		{"master", ZonePrimary, true},
		{"secondary", ZoneSecondary, true},
		{"slave", ZoneSecondary, true},
		{"stub", ZoneStub, true},
		{"forward", ZoneForward, true},
		{"hint", ZoneHint, true},
		{"mirror", ZoneMirror, true},
		{"delegation-only", ZoneDelegation, true},
		{"redirect", ZoneRedirect, true},
		{"bogus", ZonePrimary, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseZoneType(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestZoneType_StringIsCurrentForm(t *testing.T) {
	for _, legacy := range []string{"master", "slave"} {
		zt, ok := ParseZoneType(legacy)
		assert.True(t, ok)
		assert.NotEqual(t, legacy, zt.String())
	}
	assert.Equal(t, "primary", ZonePrimary.String())
	assert.Equal(t, "secondary", ZoneSecondary.String())
	assert.Equal(t, "delegation-only", ZoneDelegation.String())
}

func TestEnumsRoundTrip(t *testing.T) {
	for _, m := range []NotifyMode{NotifyYes, NotifyNo, NotifyExplicit, NotifyPrimaryOnly} {
		got, ok := ParseNotifyMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	for _, m := range []ForwardMode{ForwardOnly, ForwardFirst} {
		got, ok := ParseForwardMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	for _, m := range []AutoDNSSECMode{AutoDNSSECOff, AutoDNSSECMaintain, AutoDNSSECCreate} {
		got, ok := ParseAutoDNSSECMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	for _, m := range []CheckNamesMode{CheckFail, CheckWarn, CheckIgnore} {
		got, ok := ParseCheckNamesMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	for _, f := range []MasterfileFormat{FormatText, FormatRaw, FormatMap} {
		got, ok := ParseMasterfileFormat(f.String())
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}
	for _, c := range []DNSClass{ClassIN, ClassCH, ClassHS} {
		got, ok := ParseDNSClass(c.String())
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
}

func TestParseNotifyMode_Synonym(t *testing.T) {
	m, ok := ParseNotifyMode("master-only")
	assert.True(t, ok)
	assert.Equal(t, NotifyPrimaryOnly, m)
	assert.Equal(t, "primary-only", m.String())
}

func TestParseYesNo(t *testing.T) {
	v, ok := ParseYesNo("yes")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = ParseYesNo("no")
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = ParseYesNo("true")
	assert.False(t, ok)

	assert.Equal(t, "yes", YesNo(true))
	assert.Equal(t, "no", YesNo(false))
}
