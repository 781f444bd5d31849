// Package zonepatch loads zone override documents from YAML, JSON or TOML
// files and applies them to parsed zone configurations.
package zonepatch

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"

	"github.com/haukened/rr-bindctl/internal/bind/domain"
)

// Patch lists the directives to override on a zone. A nil field leaves the
// directive untouched; an empty list clears it.
type Patch struct {
	File       *string   `koanf:"file" validate:"omitempty,min=1"`
	Notify     *string   `koanf:"notify" validate:"omitempty,oneof=yes no explicit primary-only master-only"`
	Primaries  []Primary `koanf:"primaries" validate:"omitempty,dive"`
	AlsoNotify []string  `koanf:"also_notify" validate:"omitempty,dive,ip"`

	AllowQuery    []string `koanf:"allow_query" validate:"omitempty,dive,ip"`
	AllowTransfer []string `koanf:"allow_transfer" validate:"omitempty,dive,ip"`
	// AllowUpdate replaces the address list and drops any raw body.
	AllowUpdate []string `koanf:"allow_update" validate:"omitempty,dive,ip"`
	// AllowUpdateRaw replaces the whole allow-update body, e.g.
	// `{ key "ddns"; 10.0.0.1; }`, and drops the address list.
	AllowUpdateRaw *string `koanf:"allow_update_raw" validate:"omitempty,min=1"`

	// RawOptions sets unmodelled directives by name.
	RawOptions map[string]string `koanf:"raw_options" validate:"omitempty,dive,keys,required,excludesall=;{},endkeys"`
	// RemoveOptions deletes unmodelled directives by name. Removal runs
	// before RawOptions are set.
	RemoveOptions []string `koanf:"remove_options" validate:"omitempty,dive,required"`
}

// Primary is one primaries entry of a patch.
type Primary struct {
	Address string  `koanf:"address" validate:"required,ip"`
	Port    *uint16 `koanf:"port" validate:"omitempty,gt=0"`
}

var validate = validator.New()

// Load reads a patch document, choosing the parser from the file extension.
func Load(path string) (Patch, error) {
	parser, err := parserFor(filepath.Ext(path))
	if err != nil {
		return Patch{}, fmt.Errorf("patch %s: %w", path, err)
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return Patch{}, fmt.Errorf("failed to load patch file %s: %w", path, err)
	}
	return decode(k)
}

// Parse decodes a patch from data in the given format ("yaml", "json" or
// "toml").
func Parse(data []byte, format string) (Patch, error) {
	parser, err := parserFor(format)
	if err != nil {
		return Patch{}, err
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Patch{}, fmt.Errorf("failed to parse patch: %w", err)
	}
	return decode(k)
}

func parserFor(format string) (koanf.Parser, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		return yaml.Parser(), nil
	case "json":
		return json.Parser(), nil
	case "toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported patch format %q", format)
	}
}

func decode(k *koanf.Koanf) (Patch, error) {
	var p Patch
	if err := k.Unmarshal("", &p); err != nil {
		return Patch{}, fmt.Errorf("error decoding patch: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Validate checks addresses and option names.
func (p Patch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	return nil
}

// IsEmpty reports whether applying p would change nothing.
func (p Patch) IsEmpty() bool {
	return p.File == nil && p.Notify == nil && p.Primaries == nil && p.AlsoNotify == nil &&
		p.AllowQuery == nil && p.AllowTransfer == nil && p.AllowUpdate == nil &&
		p.AllowUpdateRaw == nil && len(p.RawOptions) == 0 && len(p.RemoveOptions) == 0
}

// Apply returns a copy of cfg with p applied. cfg is not modified.
func Apply(cfg domain.ZoneConfig, p Patch) (domain.ZoneConfig, error) {
	if err := p.Validate(); err != nil {
		return domain.ZoneConfig{}, err
	}
	out := cfg.Clone()
	// A typed override replaces any raw capture of the same directive, or
	// both would be rendered.
	dropRaw := func(names ...string) {
		for _, name := range names {
			delete(out.RawOptions, name)
		}
	}

	if p.File != nil {
		out.File = domain.Ptr(*p.File)
		dropRaw("file")
	}
	if p.Notify != nil {
		mode, ok := domain.ParseNotifyMode(*p.Notify)
		if !ok {
			return domain.ZoneConfig{}, fmt.Errorf("invalid patch: notify %q", *p.Notify)
		}
		out.Notify = &mode
		dropRaw("notify")
	}
	if p.Primaries != nil {
		primaries := make([]domain.PrimarySpec, 0, len(p.Primaries))
		for _, pr := range p.Primaries {
			addr, err := netip.ParseAddr(pr.Address)
			if err != nil {
				return domain.ZoneConfig{}, fmt.Errorf("invalid patch: primary %q: %w", pr.Address, err)
			}
			spec := domain.PrimarySpec{Address: addr}
			if pr.Port != nil {
				spec.Port = domain.Ptr(*pr.Port)
			}
			primaries = append(primaries, spec)
		}
		out.Primaries = primaries
		dropRaw("primaries", "masters")
	}

	lists := []struct {
		name      string
		directive string
		src       []string
		dst       *[]netip.Addr
	}{
		{"also_notify", "also-notify", p.AlsoNotify, &out.AlsoNotify},
		{"allow_query", "allow-query", p.AllowQuery, &out.AllowQuery},
		{"allow_transfer", "allow-transfer", p.AllowTransfer, &out.AllowTransfer},
		{"allow_update", "allow-update", p.AllowUpdate, &out.AllowUpdate},
	}
	for _, l := range lists {
		if l.src == nil {
			continue
		}
		addrs, err := parseAddrs(l.src)
		if err != nil {
			return domain.ZoneConfig{}, fmt.Errorf("invalid patch: %s: %w", l.name, err)
		}
		*l.dst = addrs
		dropRaw(l.directive)
	}
	if p.AllowUpdate != nil {
		out.AllowUpdateRaw = nil
	}
	if p.AllowUpdateRaw != nil {
		raw := strings.TrimSpace(*p.AllowUpdateRaw)
		if !strings.HasPrefix(raw, "{") {
			raw = "{ " + strings.TrimRight(raw, "; ") + "; }"
		}
		out.AllowUpdateRaw = &raw
		out.AllowUpdate = nil
		dropRaw("allow-update")
	}

	for _, name := range p.RemoveOptions {
		delete(out.RawOptions, name)
	}
	for name, value := range p.RawOptions {
		out.RawOptions[name] = value
	}
	return out, nil
}

func parseAddrs(values []string) ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(values))
	for _, v := range values {
		addr, err := netip.ParseAddr(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
