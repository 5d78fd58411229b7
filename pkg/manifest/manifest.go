// Package manifest builds and persists the immutable manifest record
// that backs every OrbitDB address (spec §4.2). The manifest's content
// hash in the object store IS the root of every address referring to
// it; manifests are written exactly once and never mutated.
package manifest

import (
	"context"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// excludedKeys is the legacy "subtract the known option keys" set used
// when no explicit defaults object is supplied (spec §4.2). New callers
// should pass Options.Defaults explicitly instead.
var excludedKeys = map[string]struct{}{
	"write":            {},
	"accessController": {},
	"overwrite":        {},
	"replicate":        {},
	"localOnly":        {},
	"create":           {},
	"type":             {},
	"defaults":         {},
	"mergeDefaults":    {},
}

// Manifest is the wire shape persisted to the object store.
type Manifest struct {
	Name             string         `cbor:"name"`
	Type             string         `cbor:"type"`
	AccessController string         `cbor:"accessController"`
	Defaults         map[string]any `cbor:"defaults,omitempty"`
}

// Options parameterizes manifest creation.
type Options struct {
	// Defaults, when non-nil, is written verbatim as the manifest's
	// defaults field. This is the preferred, explicit-object form.
	Defaults map[string]any
	// LegacyOptionBag, when Defaults is nil and this is non-nil,
	// synthesizes Defaults by copying every key of LegacyOptionBag
	// except the excluded set. Legacy, read-compatibility only.
	LegacyOptionBag map[string]any
	// OnlyHash forwards to the object store write, computing the root
	// hash without persisting anything (used by DetermineAddress).
	OnlyHash bool
}

// Create builds a manifest record and persists it via store, returning
// its content hash (the address root).
func Create(ctx context.Context, store interfaces.ObjectStore, name, typeTag, accessControllerPath string, opts Options) (string, error) {
	m := Manifest{
		Name:             name,
		Type:             typeTag,
		AccessController: accessControllerPath,
	}

	if opts.Defaults != nil {
		m.Defaults = opts.Defaults
	} else if opts.LegacyOptionBag != nil {
		synthesized := make(map[string]any, len(opts.LegacyOptionBag))
		for k, v := range opts.LegacyOptionBag {
			if _, excluded := excludedKeys[k]; excluded {
				continue
			}
			synthesized[k] = v
		}
		if len(synthesized) > 0 {
			m.Defaults = synthesized
		}
	}

	return store.Write(ctx, interfaces.CodecDagCBOR, m, interfaces.WriteOptions{OnlyHash: opts.OnlyHash})
}

// Read loads a manifest back from the object store by its root hash.
func Read(ctx context.Context, store interfaces.ObjectStore, root string) (Manifest, error) {
	var m Manifest
	err := store.Read(ctx, root, interfaces.CodecDagCBOR, &m)
	return m, err
}
