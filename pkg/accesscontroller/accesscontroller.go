// Package accesscontroller implements the bridge to the external
// access-controllers factory (spec §4.6): creating and resolving
// access-controller descriptors persisted in the object store, and
// injecting the default-writer rule when a caller does not specify one.
//
// The shape mirrors the teacher's pkg/auth trust model (an identity's
// public id standing in for a write grant) generalized from the
// AdminCA/UserCA split to a flat writer list, since the spec has no
// notion of certificate authorities — only a write list and an
// optional, unconsulted read list.
package accesscontroller

import (
	"context"
	"fmt"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// simpleAC is the default AccessController: a flat writer list.
type simpleAC struct {
	write []string
}

func (a *simpleAC) Write() []string { return a.write }

// descriptor is the object-store record persisted for an access
// controller (path is "/ipfs/<hash>" per spec §6).
type descriptor struct {
	Type  string   `cbor:"type"`
	Write []string `cbor:"write"`
	Read  []string `cbor:"read,omitempty"`
}

// Bridge is the default interfaces.AccessControllers implementation.
type Bridge struct {
	Store interfaces.ObjectStore
}

// New returns a Bridge persisting descriptors through store.
func New(store interfaces.ObjectStore) *Bridge {
	return &Bridge{Store: store}
}

// WithDefaultWriter fills in spec.Write with identityID when the
// caller left it empty, per spec §4.6: "if the caller does not specify
// a write list, the controller injects the identity's public id as the
// single writer. If the caller specifies only a read list but no write
// list, the default writer rule still applies."
func WithDefaultWriter(spec interfaces.ACSpec, identityID string) interfaces.ACSpec {
	if len(spec.Write) == 0 {
		spec.Write = []string{identityID}
	}
	return spec
}

func (b *Bridge) Create(ctx context.Context, ctrl any, typeTag string, spec interfaces.ACSpec) (string, error) {
	d := descriptor{Type: typeTag, Write: spec.Write, Read: spec.Read}
	hash, err := b.Store.Write(ctx, interfaces.CodecDagCBOR, d, interfaces.WriteOptions{})
	if err != nil {
		return "", fmt.Errorf("accesscontroller: create: %w", err)
	}
	return "/ipfs/" + hash, nil
}

func (b *Bridge) Resolve(ctx context.Context, ctrl any, path string, spec interfaces.ACSpec) (interfaces.AccessController, error) {
	hash, err := stripIPFSPrefix(path)
	if err != nil {
		return nil, err
	}
	var d descriptor
	if err := b.Store.Read(ctx, hash, interfaces.CodecDagCBOR, &d); err != nil {
		return nil, fmt.Errorf("accesscontroller: resolve %s: %w", path, err)
	}
	return &simpleAC{write: d.Write}, nil
}

func stripIPFSPrefix(path string) (string, error) {
	const prefix = "/ipfs/"
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return "", fmt.Errorf("accesscontroller: malformed path %q", path)
	}
	return path[len(prefix):], nil
}
