// Package state persists which pack versions have been installed where.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "installed:"

var ErrNotInstalled = errors.New("no install record")

// Record describes one successful install of a manifest version.
type Record struct {
	ManifestURL string    `json:"manifestUrl"`
	VersionID   string    `json:"versionId"`
	InstallPath string    `json:"installPath"`
	Installer   string    `json:"installer,omitempty"`
	InstalledAt time.Time `json:"installedAt"`
}

// Store is a badger backed record store keyed by
// "installed:{manifestURL}::{versionID}".
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the store in dir.
func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir).WithLogger(nil))
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key returns the record key for a manifest version.
func Key(manifestURL, versionID string) string {
	return keyPrefix + manifestURL + "::" + versionID
}

// MarkInstalled stores rec, replacing any previous record for the same version.
func (s *Store) MarkInstalled(rec Record) error {
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal install record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key(rec.ManifestURL, rec.VersionID)), data)
	})
}

// Get returns the record for a manifest version or ErrNotInstalled.
func (s *Store) Get(manifestURL, versionID string) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(manifestURL, versionID)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotInstalled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read install record: %w", err)
	}
	return &rec, nil
}

// IsInstalled reports whether a record exists for the manifest version.
func (s *Store) IsInstalled(manifestURL, versionID string) bool {
	_, err := s.Get(manifestURL, versionID)
	return err == nil
}

// Forget removes a record.
func (s *Store) Forget(manifestURL, versionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(Key(manifestURL, versionID)))
	})
}

// List returns records, optionally restricted to one manifest URL.
func (s *Store) List(manifestURL string) ([]Record, error) {
	prefix := []byte(keyPrefix)
	if manifestURL != "" {
		prefix = []byte(keyPrefix + manifestURL + "::")
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			// A manifest URL that itself contains "::" could share a prefix.
			if manifestURL != "" && strings.Contains(strings.TrimPrefix(string(item.Key()), string(prefix)), "::") {
				continue
			}
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list install records: %w", err)
	}
	return out, nil
}
