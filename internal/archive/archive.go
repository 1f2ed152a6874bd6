// Package archive keeps every inventory document in a local bbolt database.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	"github.com/yairfalse/stocktake/pkg/resource"
)

var bucketRuns = []byte("runs")

// ErrEmpty is returned by Latest when nothing has been archived.
var ErrEmpty = errors.New("archive is empty")

// Entry is the header of one archived run.
type Entry struct {
	Timestamp string                `json:"timestamp"`
	Region    string                `json:"region"`
	AccountID string                `json:"account_id"`
	Summary   map[resource.Type]int `json:"summary"`
}

// Total returns the number of records in the run.
func (e Entry) Total() int {
	total := 0
	for _, n := range e.Summary {
		total += n
	}
	return total
}

// Archive stores documents keyed by timestamp and region. Keys sort
// chronologically because timestamps are fixed-width UTC.
type Archive struct {
	mu sync.Mutex
	db *bbolt.DB
}

// Open opens or creates the archive at path.
func Open(path string) (*Archive, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}

	return &Archive{db: db}, nil
}

func runKey(doc resource.Document) []byte {
	return []byte(doc.Timestamp + "|" + doc.Region)
}

// Put stores the document, replacing a run with the same timestamp and region.
func (a *Archive) Put(doc resource.Document) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).Put(runKey(doc), value)
	})
}

// Emit archives the document.
func (a *Archive) Emit(ctx context.Context, doc resource.Document) error {
	if err := a.Put(doc); err != nil {
		return err
	}
	log.Debug().Ctx(ctx).Str("timestamp", doc.Timestamp).Msg("run archived")
	return nil
}

// List returns up to limit runs, newest first. A limit of zero or less returns all runs.
func (a *Archive) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := a.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Latest returns the newest run as raw JSON.
func (a *Archive) Latest() (Entry, []byte, error) {
	var (
		entry Entry
		raw   []byte
	)

	err := a.db.View(func(tx *bbolt.Tx) error {
		k, v := tx.Bucket(bucketRuns).Cursor().Last()
		if k == nil {
			return ErrEmpty
		}
		raw = append([]byte(nil), v...)
		return json.Unmarshal(raw, &entry)
	})
	if err != nil {
		return Entry{}, nil, err
	}

	return entry, raw, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}
