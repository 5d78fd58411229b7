package store

import (
	"context"

	"github.com/orbit-go/orbitdb/pkg/address"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Type tags, matching spec §4.9's per-type convenience operations.
const (
	TypeFeed     = "feed"
	TypeEventLog = "eventlog"
	TypeKeyValue = "keyvalue"
	TypeCounter  = "counter"
	TypeDocStore = "docstore"
)

// --- feed -------------------------------------------------------------

// Feed is an append-only, iterable sequence of raw payloads.
type Feed struct{ *base }

// NewFeedConstructor is the interfaces.Constructor for TypeFeed.
func NewFeedConstructor(objectStore interfaces.ObjectStore, identity interfaces.Identity, addr address.Address, opts interfaces.StoreOptions) (interfaces.Store, error) {
	return &Feed{base: newBase(objectStore, addr, opts)}, nil
}

// Add appends payload to the feed.
func (f *Feed) Add(ctx context.Context, payload []byte) error { return f.append(ctx, payload) }

// Iterator returns up to limit payloads in insertion order; limit < 0
// means unbounded (spec §8 scenario 8).
func (f *Feed) Iterator(ctx context.Context, limit int) ([][]byte, error) {
	return f.collect(ctx, limit)
}

// --- eventlog -----------------------------------------------------------

// EventLog is identical in shape to Feed; OrbitDB distinguishes the two
// by iteration-order conventions at the application layer, not by the
// underlying log, so the store type is a thin alias here.
type EventLog struct{ *base }

func NewEventLogConstructor(objectStore interfaces.ObjectStore, identity interfaces.Identity, addr address.Address, opts interfaces.StoreOptions) (interfaces.Store, error) {
	return &EventLog{base: newBase(objectStore, addr, opts)}, nil
}

func (e *EventLog) Add(ctx context.Context, payload []byte) error { return e.append(ctx, payload) }

func (e *EventLog) Iterator(ctx context.Context, limit int) ([][]byte, error) {
	return e.collect(ctx, limit)
}

// --- keyvalue -------------------------------------------------------------

type kvOp struct {
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
	Del   bool   `json:"del,omitempty"`
}

// KeyValue is a last-write-wins map built by folding put/delete
// operations recorded in the log.
type KeyValue struct{ *base }

func NewKeyValueConstructor(objectStore interfaces.ObjectStore, identity interfaces.Identity, addr address.Address, opts interfaces.StoreOptions) (interfaces.Store, error) {
	return &KeyValue{base: newBase(objectStore, addr, opts)}, nil
}

func (kv *KeyValue) Put(ctx context.Context, key string, value []byte) error {
	payload, err := encodeJSON(kvOp{Key: key, Value: value})
	if err != nil {
		return err
	}
	return kv.append(ctx, payload)
}

func (kv *KeyValue) Delete(ctx context.Context, key string) error {
	payload, err := encodeJSON(kvOp{Key: key, Del: true})
	if err != nil {
		return err
	}
	return kv.append(ctx, payload)
}

// Get folds the full op history and returns the current value for key.
func (kv *KeyValue) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ops, err := kv.collect(ctx, -1)
	if err != nil {
		return nil, false, err
	}
	var value []byte
	found := false
	for _, raw := range ops {
		var op kvOp
		if err := decodeJSON(raw, &op); err != nil {
			return nil, false, err
		}
		if op.Key != key {
			continue
		}
		if op.Del {
			found = false
			value = nil
			continue
		}
		value = op.Value
		found = true
	}
	return value, found, nil
}

// --- counter -------------------------------------------------------------

type counterOp struct {
	Delta int64 `json:"delta"`
}

// Counter is a CRDT-style grow-only/positive-negative counter: Value
// is the sum of every recorded delta.
type Counter struct{ *base }

func NewCounterConstructor(objectStore interfaces.ObjectStore, identity interfaces.Identity, addr address.Address, opts interfaces.StoreOptions) (interfaces.Store, error) {
	return &Counter{base: newBase(objectStore, addr, opts)}, nil
}

func (c *Counter) Inc(ctx context.Context, delta int64) error {
	payload, err := encodeJSON(counterOp{Delta: delta})
	if err != nil {
		return err
	}
	return c.append(ctx, payload)
}

func (c *Counter) Value(ctx context.Context) (int64, error) {
	ops, err := c.collect(ctx, -1)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, raw := range ops {
		var op counterOp
		if err := decodeJSON(raw, &op); err != nil {
			return 0, err
		}
		total += op.Delta
	}
	return total, nil
}

// --- docstore -------------------------------------------------------------

type docOp struct {
	ID  string         `json:"id"`
	Doc map[string]any `json:"doc,omitempty"`
	Del bool           `json:"del,omitempty"`
}

// DocStore is a last-write-wins document store keyed by an id field
// within each document, folded the same way as KeyValue.
type DocStore struct{ *base }

func NewDocStoreConstructor(objectStore interfaces.ObjectStore, identity interfaces.Identity, addr address.Address, opts interfaces.StoreOptions) (interfaces.Store, error) {
	return &DocStore{base: newBase(objectStore, addr, opts)}, nil
}

func (d *DocStore) Put(ctx context.Context, id string, doc map[string]any) error {
	payload, err := encodeJSON(docOp{ID: id, Doc: doc})
	if err != nil {
		return err
	}
	return d.append(ctx, payload)
}

func (d *DocStore) Delete(ctx context.Context, id string) error {
	payload, err := encodeJSON(docOp{ID: id, Del: true})
	if err != nil {
		return err
	}
	return d.append(ctx, payload)
}

func (d *DocStore) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	ops, err := d.collect(ctx, -1)
	if err != nil {
		return nil, false, err
	}
	var doc map[string]any
	found := false
	for _, raw := range ops {
		var op docOp
		if err := decodeJSON(raw, &op); err != nil {
			return nil, false, err
		}
		if op.ID != id {
			continue
		}
		if op.Del {
			doc, found = nil, false
			continue
		}
		doc, found = op.Doc, true
	}
	return doc, found, nil
}
