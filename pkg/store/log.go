// Package store implements the registered store types (spec §4.3,
// §4.9's per-type convenience operations) on top of a shared,
// content-addressed append log. Store-internal log/CRDT semantics are
// explicitly out of scope for the controller (spec §1), but something
// real has to back the end-to-end scenarios in spec §8 — this one is
// grounded on the teacher's OuroborosDB.go content-addressed
// parent/children chain (StoreData's Parent/Children fields and
// resolveLatestEdit's DAG walk), generalized from a single edit-chain
// per object into a full multi-head append log per store.
package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// logEntry is the content-addressed unit persisted for every append.
type logEntry struct {
	Payload []byte   `cbor:"payload"`
	Prev    []string `cbor:"prev,omitempty"`
}

// Log is a content-addressed, multi-head append log: a directed
// acyclic graph of entries, each pointing at the heads it was appended
// after. Heads are entries with no known successor.
type Log struct {
	objectStore interfaces.ObjectStore
	heads       []string
	// cache of hashes known to exist locally (as either fetched or
	// authored), so Sync does not re-fetch entries it already has.
	known map[string]struct{}
}

// NewLog returns an empty log backed by objectStore.
func NewLog(objectStore interfaces.ObjectStore) *Log {
	return &Log{objectStore: objectStore, known: make(map[string]struct{})}
}

// Heads returns the log's current head hashes.
func (l *Log) Heads() interfaces.Heads {
	out := make(interfaces.Heads, len(l.heads))
	copy(out, l.heads)
	return out
}

// Append writes payload as a new entry whose parents are the current
// heads, replacing them with the new entry as the sole head (spec
// §4.7's "_onWrite(address, entry, heads)" contract: heads must never
// be empty after a successful append).
func (l *Log) Append(ctx context.Context, payload []byte) (entryHash string, heads interfaces.Heads, err error) {
	e := logEntry{Payload: payload, Prev: append([]string(nil), l.heads...)}
	hash, err := l.objectStore.Write(ctx, interfaces.CodecDagCBOR, e, interfaces.WriteOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("store: append entry: %w", err)
	}
	l.known[hash] = struct{}{}
	l.heads = []string{hash}
	return hash, l.Heads(), nil
}

// Sync merges remoteHeads into the log: every entry reachable from a
// remote head that is not already known is fetched and indexed, and
// the head set is recomputed as the entries with no known successor.
func (l *Log) Sync(ctx context.Context, remoteHeads interfaces.Heads) error {
	for _, h := range remoteHeads {
		if err := l.fetchChain(ctx, h); err != nil {
			return err
		}
	}
	l.recomputeHeads(ctx, remoteHeads)
	return nil
}

func (l *Log) fetchChain(ctx context.Context, hash string) error {
	if _, ok := l.known[hash]; ok {
		return nil
	}
	var e logEntry
	if err := l.objectStore.Read(ctx, hash, interfaces.CodecDagCBOR, &e); err != nil {
		return fmt.Errorf("store: sync fetch %s: %w", hash, err)
	}
	l.known[hash] = struct{}{}
	for _, p := range e.Prev {
		if err := l.fetchChain(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// recomputeHeads folds newHeads into the existing head set and drops
// any head that is now referenced as another known entry's parent.
func (l *Log) recomputeHeads(ctx context.Context, newHeads interfaces.Heads) {
	candidates := make(map[string]struct{})
	for _, h := range l.heads {
		candidates[h] = struct{}{}
	}
	for _, h := range newHeads {
		candidates[h] = struct{}{}
	}

	referenced := make(map[string]struct{})
	for hash := range l.known {
		var e logEntry
		if err := l.objectStore.Read(ctx, hash, interfaces.CodecDagCBOR, &e); err != nil {
			continue
		}
		for _, p := range e.Prev {
			referenced[p] = struct{}{}
		}
	}

	heads := make([]string, 0, len(candidates))
	for h := range candidates {
		if _, isRef := referenced[h]; !isRef {
			heads = append(heads, h)
		}
	}
	sort.Strings(heads)
	l.heads = heads
}

// Collect returns every entry payload reachable from the current heads
// in insertion order (a topological sort of the DAG), used by
// iterator-style reads (spec §8 scenario 8).
func (l *Log) Collect(ctx context.Context, limit int) ([][]byte, error) {
	entries := make(map[string]logEntry, len(l.known))
	for hash := range l.known {
		var e logEntry
		if err := l.objectStore.Read(ctx, hash, interfaces.CodecDagCBOR, &e); err != nil {
			return nil, fmt.Errorf("store: collect %s: %w", hash, err)
		}
		entries[hash] = e
	}

	order, err := topoSort(entries)
	if err != nil {
		return nil, err
	}

	if limit >= 0 && limit < len(order) {
		order = order[len(order)-limit:]
	}

	out := make([][]byte, 0, len(order))
	for _, hash := range order {
		out = append(out, entries[hash].Payload)
	}
	return out, nil
}

// topoSort orders entries so that every entry appears after all of its
// parents (Kahn's algorithm), breaking ties by hash for determinism.
func topoSort(entries map[string]logEntry) ([]string, error) {
	indegree := make(map[string]int, len(entries))
	children := make(map[string][]string, len(entries))
	for hash, e := range entries {
		if _, ok := indegree[hash]; !ok {
			indegree[hash] = 0
		}
		for _, p := range e.Prev {
			indegree[hash]++
			children[p] = append(children[p], hash)
		}
	}

	var ready []string
	for hash, deg := range indegree {
		if deg == 0 {
			ready = append(ready, hash)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, child := range children[next] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(order) != len(entries) {
		return nil, fmt.Errorf("store: log contains a cycle")
	}
	return order, nil
}
