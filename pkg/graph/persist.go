package graph

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/v2"
)

// opLog persists the latest state of every path in a PebbleDB store.
// Keys are record paths; values carry the merged record (nil for
// tombstones) plus the newest stamp seen for the path.
type opLog struct {
	db *pebble.DB
}

type storedRecord struct {
	Fields Record `json:"fields,omitempty"`
	Stamp  int64  `json:"stamp"`
}

func openOpLog(dir string) (*opLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &opLog{db: db}, nil
}

func (l *opLog) put(path string, rec Record, stamp int64) error {
	val, err := json.Marshal(storedRecord{Fields: rec, Stamp: stamp})
	if err != nil {
		return err
	}
	return l.db.Set([]byte(path), val, pebble.Sync)
}

// replay walks every persisted path. Tombstones are reported with a nil
// record so the caller can keep their stamps without resurrecting them.
func (l *opLog) replay(fn func(path string, rec Record, stamp int64)) {
	it, err := l.db.NewIter(nil)
	if err != nil {
		return
	}
	defer func() { _ = it.Close() }()
	for it.First(); it.Valid(); it.Next() {
		var sr storedRecord
		if err := json.Unmarshal(it.Value(), &sr); err != nil {
			continue
		}
		if sr.Fields == nil {
			continue
		}
		fn(string(it.Key()), sr.Fields, sr.Stamp)
	}
}

func (l *opLog) close() error {
	return l.db.Close()
}
