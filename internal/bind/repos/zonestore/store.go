// Package zonestore records applied zone blocks in a bbolt database so the
// last change, and the ones before it, can be inspected after the fact.
package zonestore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-bindctl/internal/bind/common/clock"
	"github.com/haukened/rr-bindctl/internal/bind/common/utils"
)

var (
	bucketZones   = []byte("zones")
	bucketHistory = []byte("history")
)

var (
	// ErrEmptyZone is returned when a zone name canonicalizes to nothing.
	ErrEmptyZone = errors.New("zonestore: empty zone name")
	// ErrInvalidZone is returned for names that are not domain names.
	ErrInvalidZone = errors.New("zonestore: invalid zone name")
)

// Record is one applied zone block.
type Record struct {
	Zone      string
	Seq       uint64
	AppliedAt time.Time
	Block     string
}

// Store persists applied zone blocks. The zones bucket holds the latest
// block per canonical zone name; the history bucket holds every block keyed
// by zone, a NUL byte and a big-endian sequence number.
type Store struct {
	db    *bbolt.DB
	clock clock.Clock
}

// Open opens (or creates) the database at path and ensures buckets exist.
// A nil clk uses the system clock.
func Open(path string, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open zone store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketZones); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketHistory)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, clock: clk}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put records block as the latest for zone and appends it to the history.
func (s *Store) Put(zone, block string) (Record, error) {
	name := utils.CanonicalZoneName(zone)
	if name == "" {
		return Record{}, ErrEmptyZone
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidZone, zone)
	}
	rec := Record{Zone: name, AppliedAt: s.clock.Now(), Block: block}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		hist := tx.Bucket(bucketHistory)
		seq, err := hist.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq
		val := encodeRecord(rec)
		if err := hist.Put(historyKey(name, seq), val); err != nil {
			return err
		}
		return tx.Bucket(bucketZones).Put([]byte(name), val)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Latest returns the most recent block recorded for zone.
func (s *Store) Latest(zone string) (Record, bool, error) {
	name := utils.CanonicalZoneName(zone)
	var (
		rec   Record
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketZones).Get([]byte(name))
		if v == nil {
			return nil
		}
		r, err := decodeRecord(name, v)
		if err != nil {
			return err
		}
		rec, found = r, true
		return nil
	})
	return rec, found, err
}

// History returns up to limit records for zone, newest first. A limit of
// zero or less returns everything.
func (s *Store) History(zone string, limit int) ([]Record, error) {
	name := utils.CanonicalZoneName(zone)
	prefix := append([]byte(name), 0)
	// every key under prefix sorts before name+"\x01"
	upper := append([]byte(name), 1)

	var out []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		k, v := c.Seek(upper)
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			r, err := decodeRecord(name, v)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Delete removes zone and all of its history. Deleting an unknown zone is
// not an error.
func (s *Store) Delete(zone string) error {
	name := utils.CanonicalZoneName(zone)
	prefix := append([]byte(name), 0)
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketZones).Delete([]byte(name)); err != nil {
			return err
		}
		c := tx.Bucket(bucketHistory).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Zones lists every zone with a recorded block, in byte order.
func (s *Store) Zones() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketZones).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

func historyKey(zone string, seq uint64) []byte {
	key := make([]byte, 0, len(zone)+9)
	key = append(key, zone...)
	key = append(key, 0)
	return binary.BigEndian.AppendUint64(key, seq)
}

// Values are seq(8) | unix nanos(8) | block.
func encodeRecord(r Record) []byte {
	buf := make([]byte, 16, 16+len(r.Block))
	binary.BigEndian.PutUint64(buf[0:8], r.Seq)
	binary.BigEndian.PutUint64(buf[8:16], uint64(r.AppliedAt.UnixNano()))
	return append(buf, r.Block...)
}

func decodeRecord(zone string, v []byte) (Record, error) {
	if len(v) < 16 {
		return Record{}, fmt.Errorf("zonestore: corrupt record for %s", zone)
	}
	return Record{
		Zone:      zone,
		Seq:       binary.BigEndian.Uint64(v[0:8]),
		AppliedAt: time.Unix(0, int64(binary.BigEndian.Uint64(v[8:16]))).UTC(),
		Block:     string(v[16:]),
	}, nil
}
