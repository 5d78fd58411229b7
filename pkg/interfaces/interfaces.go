// Package interfaces defines the external collaborators the OrbitDB
// controller is built against: the content-addressed object store, the
// pubsub overlay, the local cache storage adapter, the keystore/identity
// provider and the access-controllers factory. None of these are
// implemented here — pkg/objectstore, pkg/keystore and pkg/localstore
// provide reference implementations; production deployments are free to
// substitute their own.
package interfaces

import (
	"context"

	"github.com/orbit-go/orbitdb/pkg/address"
)

// Codec names the encoding used to persist an object. dag-cbor is the
// default; implementations are free to support others.
type Codec string

const CodecDagCBOR Codec = "dag-cbor"

// WriteOptions configures an ObjectStore write.
type WriteOptions struct {
	// OnlyHash computes the content hash without persisting the object,
	// used by Controller.DetermineAddress.
	OnlyHash bool
}

// ObjectStore is the content-addressed object store client. It is an
// external collaborator: the controller never defines the hashing or
// wire format, only the shape of the calls it makes.
type ObjectStore interface {
	// Read decodes the object stored at hash using codec into out.
	Read(ctx context.Context, hash string, codec Codec, out any) error
	// Write encodes obj with codec and persists it, returning its
	// content hash. If opts.OnlyHash, the hash is computed but nothing
	// is persisted.
	Write(ctx context.Context, codec Codec, obj any, opts WriteOptions) (string, error)
	// ID returns the local peer id, derived from the object store's own
	// identity (e.g. the hash of its public key).
	ID(ctx context.Context) (string, error)
}

// HeadsHandler is invoked when a pubsub message carrying heads arrives
// for a topic.
type HeadsHandler func(topic string, heads []string)

// PeerHandler is invoked when a new peer is observed on a subscribed
// topic.
type PeerHandler func(topic string, peer string)

// PubSub is the publish/subscribe overlay. Subscribe/unsubscribe are
// keyed by topic, which the controller always sets to an address
// string.
type PubSub interface {
	Subscribe(ctx context.Context, topic string, onMessage HeadsHandler, onPeer PeerHandler) error
	Unsubscribe(topic string) error
	Publish(ctx context.Context, topic string, heads []string) error
	Disconnect() error
}

// DirectChannel is a bidirectional peer-to-peer channel opened during
// head exchange (spec §4.8). It is cached by peer id and closed when
// that peer disconnects or the controller stops.
type DirectChannel interface {
	Peer() string
	Send(ctx context.Context, heads []string) error
	Recv(ctx context.Context) ([]string, error)
	Close() error
}

// ChannelOpener opens a DirectChannel to a peer, used by the pubsub
// coordinator's head-exchange handshake.
type ChannelOpener interface {
	Open(ctx context.Context, peer string) (DirectChannel, error)
}

// Cache is a local key-value store scoped to a directory (spec §4.4).
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Open() error
	Close() error
}

// LocalStorageAdapter constructs a Cache rooted at path. The default
// implementation (pkg/localstore) backs it with badger.
type LocalStorageAdapter interface {
	CreateStore(path string) (Cache, error)
}

// Keystore holds key material for an identity. Close releases any
// underlying handle.
type Keystore interface {
	Close() error
}

// Identity is a stable, signable actor identity bound to a keystore.
type Identity interface {
	ID() string
}

// IdentityOptions parameterizes identity creation.
type IdentityOptions struct {
	ID       string
	Keystore Keystore
}

// IdentityProvider creates identities bound to a keystore.
type IdentityProvider interface {
	CreateIdentity(opts IdentityOptions) (Identity, error)
}

// AccessController is the policy object determining which identities
// may write to a store. Read-only keys are accepted but never
// consulted by the controller (spec §4.6).
type AccessController interface {
	Write() []string
}

// ACSpec is the caller-supplied (or controller-synthesized) access
// controller specification.
type ACSpec struct {
	Name  string
	Type  string
	Write []string
	Read  []string
}

// AccessControllers is the bridge to the external AC factory (spec
// §4.6). ctrl is passed through opaquely (the factory may need it to
// resolve identities or publish revocations).
type AccessControllers interface {
	Create(ctx context.Context, ctrl any, typeTag string, spec ACSpec) (string, error)
	Resolve(ctx context.Context, ctrl any, path string, spec ACSpec) (AccessController, error)
}

// Heads is the current tip set of a store's internal log.
type Heads []string

// Store is the capability set every registered store type must expose
// (spec §4.3, §4.7).
type Store interface {
	Address() address.Address
	Close() error
	// Sync merges remote heads into the local log. Errors are the
	// caller's to log; they must never panic.
	Sync(ctx context.Context, heads Heads) error
	// OnWrite registers a callback invoked after every local append,
	// with the new entry and the resulting head set.
	OnWrite(fn func(addr address.Address, entry []byte, heads Heads))
	// OnPeer is invoked by the pubsub coordinator after a successful
	// head exchange with a peer so application code can observe
	// connectivity.
	OnPeer(peer string)
}

// StoreOptions is the merged option bag passed to a store constructor
// (spec §4.7 step 3).
type StoreOptions struct {
	Replicate            bool
	AccessController     AccessController
	Keystore             Keystore
	Cache                Cache
	Identity             Identity
	OnClose              func(addr address.Address)
	Defaults             map[string]any
	AccessControllerAddr string
	Extra                map[string]any
}

// Constructor builds a live store instance for a registered type tag.
type Constructor func(objectStore ObjectStore, identity Identity, addr address.Address, opts StoreOptions) (Store, error)
