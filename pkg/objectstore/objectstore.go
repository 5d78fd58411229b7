// Package objectstore provides a reference implementation of the
// content-addressed object store external collaborator (spec §6). It
// is not part of the controller's hard problem — real deployments sit
// this behind IPFS, a DHT-backed blockstore, or similar — but the
// controller needs something to run its tests against, the way the
// teacher's CAS layer (pkg/cas) backs its own storage tests.
//
// Objects are cbor-encoded, compressed with zstd, and addressed by the
// blake3 hash of the compressed payload.
package objectstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Store is an in-process, in-memory object store keyed by content
// hash. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	peerID  string

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New constructs a Store. peerID is returned verbatim by ID; callers
// typically derive it once at controller construction time and reuse
// it across restarts.
func New(peerID string) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("objectstore: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("objectstore: new zstd decoder: %w", err)
	}
	return &Store{
		objects: make(map[string][]byte),
		peerID:  peerID,
		enc:     enc,
		dec:     dec,
	}, nil
}

func (s *Store) ID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.peerID, nil
}

func (s *Store) Write(ctx context.Context, codec interfaces.Codec, obj any, opts interfaces.WriteOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := encode(codec, obj)
	if err != nil {
		return "", err
	}
	compressed := s.enc.EncodeAll(raw, nil)
	hash := contentHash(compressed)

	if opts.OnlyHash {
		return hash, nil
	}

	s.mu.Lock()
	s.objects[hash] = compressed
	s.mu.Unlock()
	return hash, nil
}

func (s *Store) Read(ctx context.Context, hash string, codec interfaces.Codec, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	compressed, ok := s.objects[hash]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("objectstore: no object at hash %q", hash)
	}
	raw, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("objectstore: decompress %q: %w", hash, err)
	}
	return decode(codec, raw, out)
}

func contentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

func encode(codec interfaces.Codec, obj any) ([]byte, error) {
	switch codec {
	case interfaces.CodecDagCBOR, "":
		return cbor.Marshal(obj)
	default:
		return nil, fmt.Errorf("objectstore: unsupported codec %q", codec)
	}
}

func decode(codec interfaces.Codec, raw []byte, out any) error {
	switch codec {
	case interfaces.CodecDagCBOR, "":
		return cbor.Unmarshal(raw, out)
	default:
		return fmt.Errorf("objectstore: unsupported codec %q", codec)
	}
}
