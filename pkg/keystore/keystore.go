// Package keystore provides a reference Keystore/IdentityProvider pair
// (spec §6). Identities are ed25519 keypairs generated on first use and
// persisted under the keystore's directory; no pack library offers a
// minimal keypair-identity primitive the way blake3/cbor/badger cover
// hashing, encoding and storage, so this one component uses the
// standard library's crypto/ed25519 — see DESIGN.md.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Store is a directory-backed keystore holding one ed25519 keypair.
type Store struct {
	mu     sync.Mutex
	dir    string
	closed bool
}

// Open opens (creating if absent) a keystore rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// keyPath returns the on-disk path for id's private key.
func (s *Store) keyPath(id string) string {
	return filepath.Join(s.dir, id+".key")
}

// privateKeyFor loads id's private key, generating and persisting one
// on first use.
func (s *Store) privateKeyFor(id string) (ed25519.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("keystore: closed")
	}

	path := s.keyPath(id)
	if raw, err := os.ReadFile(path); err == nil {
		if len(raw) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("keystore: corrupt key file %s", path)
		}
		return ed25519.PrivateKey(raw), nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keystore: generate key: %w", err)
	}
	if err := os.WriteFile(path, priv, 0o600); err != nil {
		return nil, fmt.Errorf("keystore: persist key: %w", err)
	}
	return priv, nil
}

// identity is the reference interfaces.Identity: a stable string id
// derived from the ed25519 public key.
type identity struct {
	id string
}

func (i *identity) ID() string { return i.id }

// Provider is the default interfaces.IdentityProvider: it derives a
// stable identity id from the ed25519 public key held in opts.Keystore.
type Provider struct{}

func (Provider) CreateIdentity(opts interfaces.IdentityOptions) (interfaces.Identity, error) {
	ks, ok := opts.Keystore.(*Store)
	if !ok {
		return nil, fmt.Errorf("keystore: identity provider requires a *keystore.Store")
	}
	priv, err := ks.privateKeyFor(opts.ID)
	if err != nil {
		return nil, err
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &identity{id: hex.EncodeToString(pub)}, nil
}
