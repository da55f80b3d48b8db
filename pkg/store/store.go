// Package store persists finished assistant sessions so they can be reviewed
// later from the command line. Sessions are journaled into BadgerDB with
// msgpack-encoded values.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tablesight/tablesight/pkg/hud"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("store: session not found")

// SessionMeta describes one recorded session.
type SessionMeta struct {
	ID        string    `msgpack:"id"`
	Model     string    `msgpack:"model"`
	StartedAt time.Time `msgpack:"started_at"`
	EndedAt   time.Time `msgpack:"ended_at"`
	Entries   int       `msgpack:"entries"`
	Summary   string    `msgpack:"summary,omitempty"`
}

// SessionRecord is a full session: metadata, transcript and the final
// analysis state (nil if no tool call ever arrived).
type SessionRecord struct {
	Meta       SessionMeta `msgpack:"meta"`
	Transcript []hud.Entry `msgpack:"transcript"`
	State      *hud.State  `msgpack:"state"`
}

// Options configures the journal.
type Options struct {
	// Dir is the BadgerDB data directory. Required unless InMemory.
	Dir string

	// InMemory runs badger without disk persistence. Used in tests.
	InMemory bool
}

// Journal is a badger-backed session journal.
type Journal struct {
	db *badger.DB
}

// Open opens or creates the journal.
func Open(opts Options) (*Journal, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(quietLogger{})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Journal{db: db}, nil
}

// Key layout, one session spread over several keys so transcripts can grow
// without rewriting the whole record:
//
//	session:<id>:meta
//	session:<id>:tr:<seq, zero padded for lexicographic order>
//	session:<id>:state
func metaKey(id string) []byte  { return []byte("session:" + id + ":meta") }
func stateKey(id string) []byte { return []byte("session:" + id + ":state") }
func trKey(id string, seq int) []byte {
	return fmt.Appendf(nil, "session:%s:tr:%08d", id, seq)
}

// SaveSession writes a complete session atomically.
func (j *Journal) SaveSession(_ context.Context, rec *SessionRecord) error {
	if rec.Meta.ID == "" {
		return errors.New("store: session id is required")
	}
	rec.Meta.Entries = len(rec.Transcript)

	wb := j.db.NewWriteBatch()
	defer wb.Cancel()

	meta, err := msgpack.Marshal(&rec.Meta)
	if err != nil {
		return err
	}
	if err := wb.Set(metaKey(rec.Meta.ID), meta); err != nil {
		return err
	}
	for i, e := range rec.Transcript {
		b, err := msgpack.Marshal(&e)
		if err != nil {
			return err
		}
		if err := wb.Set(trKey(rec.Meta.ID, i), b); err != nil {
			return err
		}
	}
	if rec.State != nil {
		b, err := msgpack.Marshal(rec.State)
		if err != nil {
			return err
		}
		if err := wb.Set(stateKey(rec.Meta.ID), b); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// ListSessions returns metadata for every recorded session, most recent
// first.
func (j *Journal) ListSessions(_ context.Context) ([]*SessionMeta, error) {
	var out []*SessionMeta
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("session:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), ":meta") {
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var meta SessionMeta
			if err := msgpack.Unmarshal(val, &meta); err != nil {
				return err
			}
			out = append(out, &meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].StartedAt.After(out[k].StartedAt)
	})
	return out, nil
}

// LoadSession reads one full session back.
func (j *Journal) LoadSession(_ context.Context, id string) (*SessionRecord, error) {
	rec := &SessionRecord{}
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := msgpack.Unmarshal(val, &rec.Meta); err != nil {
			return err
		}

		prefix := []byte("session:" + id + ":tr:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var e hud.Entry
			if err := msgpack.Unmarshal(val, &e); err != nil {
				return err
			}
			rec.Transcript = append(rec.Transcript, e)
		}

		item, err = txn.Get(stateKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec.State = &hud.State{}
		return msgpack.Unmarshal(val, rec.State)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteSession removes a session and all its keys. Deleting an unknown id
// is not an error.
func (j *Journal) DeleteSession(_ context.Context, id string) error {
	var keys [][]byte
	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte("session:" + id + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	wb := j.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// quietLogger suppresses badger's info and debug chatter.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{}) { log.Printf("[badger] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) {
	log.Printf("[badger] WARN: "+f, v...)
}
func (quietLogger) Infof(string, ...interface{})  {}
func (quietLogger) Debugf(string, ...interface{}) {}
