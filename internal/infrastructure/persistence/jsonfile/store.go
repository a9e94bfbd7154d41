// Package jsonfile implements the durable record store as a single flat
// JSON document on disk, mapping user ID to record. This is the primary
// persistence of the accrual engine: small, human-inspectable, and written
// atomically so a concurrent reader never observes a partial document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gca-hub/gca-staff-hub/internal/domain/shared"
	"github.com/gca-hub/gca-staff-hub/internal/domain/staff"
	"github.com/gca-hub/gca-staff-hub/pkg/logger"
)

// Store persists the full record set to one JSON file.
type Store struct {
	path string
	log  *logger.Logger
}

// New creates a store writing to the given file path.
func New(path string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		path: path,
		log:  log.With(logger.Component("jsonfile_store")),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full document. It fails softly by contract: a missing file
// or malformed content yields an empty mapping and a warning log, never a
// startup failure. Only the soft cases return a nil error; unexpected I/O
// errors are reported so the caller can log them (and still start empty).
func (s *Store) Load(ctx context.Context) (map[staff.UserID]*staff.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("no records document yet, starting empty", logger.String("path", s.path))
			return make(map[staff.UserID]*staff.Record), nil
		}
		return make(map[staff.UserID]*staff.Record),
			shared.WrapError("store", "Load", shared.ErrLoadFailure, "read failed", err)
	}

	var doc map[staff.UserID]*staff.Record
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("records document is malformed, starting empty",
			logger.String("path", s.path), logger.Err(err))
		return make(map[staff.UserID]*staff.Record), nil
	}
	if doc == nil {
		doc = make(map[staff.UserID]*staff.Record)
	}

	// Drop entries that violate record invariants instead of refusing the
	// whole document.
	for id, rec := range doc {
		if rec == nil || rec.Validate() != nil {
			s.log.Warn("dropping invalid record", logger.StaffID(string(id)))
			delete(doc, id)
		}
	}

	s.log.Info("records loaded", logger.Int("count", len(doc)))
	return doc, nil
}

// Save overwrites the whole document. The write goes to a temp file in the
// same directory followed by a rename, so readers see either the old or the
// new document, never a torn one. Idempotent.
func (s *Store) Save(ctx context.Context, records map[staff.UserID]*staff.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return shared.WrapError("store", "Save", shared.ErrSaveFailure, "mkdir failed", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return shared.WrapError("store", "Save", shared.ErrSaveFailure, "marshal failed", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return shared.WrapError("store", "Save", shared.ErrSaveFailure, "temp file failed", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return shared.WrapError("store", "Save", shared.ErrSaveFailure, "write failed", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return shared.WrapError("store", "Save", shared.ErrSaveFailure, "close failed", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return shared.WrapError("store", "Save", shared.ErrSaveFailure,
			fmt.Sprintf("rename to %s failed", s.path), err)
	}
	return nil
}
