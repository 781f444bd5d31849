// Package zones drives the show-zone to modify-zone round trip: parse what
// the server reports, apply a patch, render the block to send back and
// remember what was sent.
package zones

import (
	"fmt"

	"github.com/haukened/rr-bindctl/internal/bind/common/log"
	"github.com/haukened/rr-bindctl/internal/bind/domain"
	"github.com/haukened/rr-bindctl/internal/bind/repos/showzone"
	"github.com/haukened/rr-bindctl/internal/bind/repos/zonepatch"
	"github.com/haukened/rr-bindctl/internal/bind/repos/zonestore"
)

// Store records rendered blocks. *zonestore.Store satisfies it.
type Store interface {
	Put(zone, block string) (zonestore.Record, error)
	History(zone string, limit int) ([]zonestore.Record, error)
}

// Result is a parsed zone and the block rendered from it.
type Result struct {
	Config domain.ZoneConfig
	Block  string
	// Record is set when the block was written to the store.
	Record *zonestore.Record
}

type Manager struct {
	store  Store
	logger log.Logger
}

type ManagerOptions struct {
	// Store may be nil, in which case nothing is recorded.
	Store  Store
	Logger log.Logger
}

func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{store: opts.Store, logger: opts.Logger}
	if m.logger == nil {
		m.logger = log.NewNoopLogger()
	}
	return m
}

// Normalize parses show-zone output and renders it back as a modify block.
func (m *Manager) Normalize(text string) (Result, error) {
	cfg, err := m.parse(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Config: cfg, Block: m.Render(cfg)}, nil
}

// Modify parses show-zone output, applies p and renders the result. The
// rendered block is recorded when a store is configured.
func (m *Manager) Modify(text string, p zonepatch.Patch) (Result, error) {
	cfg, err := m.parse(text)
	if err != nil {
		return Result{}, err
	}
	patched, err := zonepatch.Apply(cfg, p)
	if err != nil {
		m.logger.Error(map[string]any{"zone": cfg.Name, "error": err}, "zone_patch_rejected")
		return Result{}, fmt.Errorf("zone %s: %w", cfg.Name, err)
	}

	res := Result{Config: patched, Block: m.Render(patched)}
	m.logger.Info(map[string]any{"zone": patched.Name, "block": res.Block}, "zone_block_modified")

	if m.store != nil {
		rec, err := m.store.Put(patched.Name, res.Block)
		if err != nil {
			m.logger.Error(map[string]any{"zone": patched.Name, "error": err}, "zone_block_record_failed")
			return Result{}, fmt.Errorf("recording zone %s: %w", patched.Name, err)
		}
		res.Record = &rec
		m.logger.Debug(map[string]any{"zone": rec.Zone, "seq": rec.Seq}, "zone_block_recorded")
	}
	return res, nil
}

// Render serializes cfg as the block argument of an add or modify command.
func (m *Manager) Render(cfg domain.ZoneConfig) string {
	return cfg.ToProtocolBlock()
}

// History returns recorded blocks for zone, newest first.
func (m *Manager) History(zone string, limit int) ([]zonestore.Record, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.History(zone, limit)
}

func (m *Manager) parse(text string) (domain.ZoneConfig, error) {
	cfg, err := showzone.ParseZoneBlock(text)
	if err != nil {
		m.logger.Warn(map[string]any{"error": err}, "zone_block_parse_failed")
		return domain.ZoneConfig{}, err
	}
	m.logger.Debug(map[string]any{
		"zone":        cfg.Name,
		"type":        cfg.Type.String(),
		"raw_options": len(cfg.RawOptions),
	}, "zone_block_parsed")
	return cfg, nil
}
