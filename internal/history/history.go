// Package history keeps a local, append-only log of finished checks.
package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ppiankov/newsverdict/internal/model"
)

var checksBucket = []byte("checks")

const openTimeout = 2 * time.Second

// DefaultRecent is the page size when a caller asks for n <= 0
const DefaultRecent = 20

// ErrClosed is returned after Close
var ErrClosed = errors.New("history store is closed")

// Entry is one recorded check
type Entry struct {
	Seq    uint64            `json:"seq"`
	Result model.CheckResult `json:"result"`
}

// Stats counts recorded checks
type Stats struct {
	Total     int                   `json:"total"`
	ByOutcome map[model.Outcome]int `json:"by_outcome"`
	ByVerdict map[model.Verdict]int `json:"by_verdict"`
}

// Store is a bbolt-backed history. Keys are big-endian sequence numbers,
// so cursor order is chronological.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the history file at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(checksBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends a finished check. Extracted body text is dropped;
// the preview is kept.
func (s *Store) Record(ctx context.Context, result model.CheckResult) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if result.Extracted != nil {
		e := *result.Extracted
		e.Text = ""
		result.Extracted = &e
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode check: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(checksBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return b.Put(seqKey(seq), raw)
	})
}

// Recent returns up to n entries, newest first
func (s *Store) Recent(n int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		n = DefaultRecent
	}

	entries := make([]Entry, 0, n)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(checksBucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < n; k, v = c.Prev() {
			var r model.CheckResult
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode check %d: %w", binary.BigEndian.Uint64(k), err)
			}
			entries = append(entries, Entry{Seq: binary.BigEndian.Uint64(k), Result: r})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats counts every recorded check by outcome and verdict
func (s *Store) Stats() (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, ErrClosed
	}

	stats := Stats{
		ByOutcome: make(map[model.Outcome]int),
		ByVerdict: make(map[model.Verdict]int),
	}

	// Only the two counted fields are decoded
	var row struct {
		Outcome model.Outcome `json:"outcome"`
		Verdict model.Verdict `json:"verdict"`
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(checksBucket).ForEach(func(k, v []byte) error {
			row.Outcome, row.Verdict = "", ""
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("decode check %d: %w", binary.BigEndian.Uint64(k), err)
			}
			stats.Total++
			stats.ByOutcome[row.Outcome]++
			if row.Verdict != "" {
				stats.ByVerdict[row.Verdict]++
			}
			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Close closes the underlying file
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
