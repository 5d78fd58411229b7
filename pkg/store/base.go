package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/orbit-go/orbitdb/pkg/address"
	"github.com/orbit-go/orbitdb/pkg/cache"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// base implements the common store capability set (spec §4.3's
// capability set, §4.7 steps 3-4): every concrete store type embeds
// base and adds its own domain API on top of the shared log.
type base struct {
	mu      sync.RWMutex
	addr    address.Address
	log     *Log
	cache   interfaces.Cache
	onWrite func(address.Address, []byte, interfaces.Heads)
	onPeer  func(string)
	onClose func(address.Address)
	closed  bool
}

// newBase constructs a store's shared log, rehydrating it from the
// caller's cache when a prior local session recorded heads for this
// address: a store reopened without any peer present to resupply its
// entries must still see what it wrote before (spec §8 scenario 8).
// Rehydration failures are non-fatal — a fresh, empty log is the worst
// case, matching a brand-new store.
func newBase(objectStore interfaces.ObjectStore, addr address.Address, opts interfaces.StoreOptions) *base {
	b := &base{
		addr:    addr,
		log:     NewLog(objectStore),
		cache:   opts.Cache,
		onClose: opts.OnClose,
	}
	if b.cache != nil {
		if raw, present, err := b.cache.Get(cache.HeadsKey(addr.String())); err == nil && present {
			var heads []string
			if err := json.Unmarshal(raw, &heads); err == nil {
				_ = b.log.Sync(context.Background(), heads)
			}
		}
	}
	return b
}

// saveHeads persists the log's current heads so a future newBase on
// the same address and cache can rehydrate it.
func (b *base) saveHeads() {
	if b.cache == nil {
		return
	}
	raw, err := json.Marshal(b.log.Heads())
	if err != nil {
		return
	}
	_ = b.cache.Set(cache.HeadsKey(b.addr.String()), raw)
}

func (b *base) Address() address.Address { return b.addr }

// Heads returns the store's current log heads, used by the pubsub
// coordinator's head-exchange handshake (spec §4.8).
func (b *base) Heads() interfaces.Heads {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.log.Heads()
}

func (b *base) OnWrite(fn func(address.Address, []byte, interfaces.Heads)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onWrite = fn
}

func (b *base) OnPeer(peer string) {
	b.mu.RLock()
	fn := b.onPeer
	b.mu.RUnlock()
	if fn != nil {
		fn(peer)
	}
}

// SetPeerHandler lets application code observe connectivity (spec
// §4.8 "emit a peer event on the store").
func (b *base) SetPeerHandler(fn func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPeer = fn
}

func (b *base) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.onClose != nil {
		b.onClose(b.addr)
	}
	return nil
}

func (b *base) Sync(ctx context.Context, heads interfaces.Heads) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(heads) == 0 {
		return nil
	}
	if err := b.log.Sync(ctx, heads); err != nil {
		return err
	}
	b.saveHeads()
	return nil
}

// append writes payload to the log and fires the write callback with
// the resulting heads (spec §4.7's _onWrite contract).
func (b *base) append(ctx context.Context, payload []byte) error {
	b.mu.Lock()
	_, heads, err := b.log.Append(ctx, payload)
	if err == nil {
		b.saveHeads()
	}
	fn := b.onWrite
	addr := b.addr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	if fn != nil {
		fn(addr, payload, heads)
	}
	return nil
}

func (b *base) collect(ctx context.Context, limit int) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.log.Collect(ctx, limit)
}

// encodeJSON/decodeJSON are small helpers shared by the per-type
// payload codecs below; the log itself is payload-agnostic.
func encodeJSON(v any) ([]byte, error) { return json.Marshal(v) }
func decodeJSON(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode entry: %w", err)
	}
	return nil
}
