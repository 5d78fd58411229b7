// Package cache implements the controller's local cache index (spec
// §4.4): a badger-backed key-value store scoped to a directory. It is
// adapted from the teacher's internal/keyValStore, which wraps
// dgraph-io/badger/v4 the same way and logs through logrus.
package cache

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// ManifestKeySuffix is appended to an address string to form the cache
// key recording "we have this database locally" (spec §4.4, §6).
const ManifestKeySuffix = "/_manifest"

// ManifestKey returns the cache key for addr's manifest-presence entry.
func ManifestKey(addr string) string {
	return addr + ManifestKeySuffix
}

// HeadsKeySuffix is appended to an address string to form the cache
// key recording a store's current log heads, so a store can be
// reopened (even within the same process) without losing entries that
// no peer is currently around to resupply (spec §4.4, §8 scenario 8).
const HeadsKeySuffix = "/_heads"

// HeadsKey returns the cache key for addr's persisted heads entry.
func HeadsKey(addr string) string {
	return addr + HeadsKeySuffix
}

// Store is a Cache backed by a badger database opened at a directory.
type Store struct {
	mu  sync.RWMutex
	db  *badger.DB
	log *logrus.Logger
	dir string
}

// Open opens (creating if absent) a badger database at dir.
func Open(dir string, log *logrus.Logger) (*Store, error) {
	if log == nil {
		log = logrus.New()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = false
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}
	return &Store{db: db, log: log, dir: dir}, nil
}

// Open is a no-op: the badger handle is already open once constructed.
// Present to satisfy interfaces.Cache.
func (s *Store) Open() error { return nil }

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, false, fmt.Errorf("cache: store at %s is closed", s.dir)
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			value = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (s *Store) Set(key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return fmt.Errorf("cache: store at %s is closed", s.dir)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Directories manages one Cache per caller-supplied directory, lazily
// acquired through a LocalStorageAdapter so repeated opens with the
// same directory reuse storage and every directory gets the same
// free-space enforcement (spec §4.4).
type Directories struct {
	mu      sync.Mutex
	log     *logrus.Logger
	adapter interfaces.LocalStorageAdapter
	byDir   map[string]interfaces.Cache
}

// NewDirectories returns an empty directory-to-cache map backed by
// adapter.
func NewDirectories(log *logrus.Logger, adapter interfaces.LocalStorageAdapter) *Directories {
	return &Directories{log: log, adapter: adapter, byDir: make(map[string]interfaces.Cache)}
}

// Get returns the cache for dir, opening and caching a new store via
// the adapter if this is the first request for dir.
func (d *Directories) Get(dir string) (interfaces.Cache, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.byDir[dir]; ok {
		return c, nil
	}
	c, err := d.adapter.CreateStore(dir)
	if err != nil {
		return nil, err
	}
	d.byDir[dir] = c
	return c, nil
}

// CloseAll closes every cache this map has ever handed out, in
// parallel (spec §4.9 "stop"). Errors are not joined: the first is
// returned, wrapped with a count of additional failures.
func (d *Directories) CloseAll() error {
	d.mu.Lock()
	caches := make([]interfaces.Cache, 0, len(d.byDir))
	for _, c := range d.byDir {
		caches = append(caches, c)
	}
	d.byDir = make(map[string]interfaces.Cache)
	d.mu.Unlock()

	errs := make(chan error, len(caches))
	var wg sync.WaitGroup
	for _, c := range caches {
		wg.Add(1)
		go func(c interfaces.Cache) {
			defer wg.Done()
			errs <- c.Close()
		}(c)
	}
	wg.Wait()
	close(errs)

	var first error
	extra := 0
	for err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		} else {
			extra++
		}
	}
	if first != nil && extra > 0 {
		return fmt.Errorf("cache: %w (and %d more errors)", first, extra)
	}
	return first
}
