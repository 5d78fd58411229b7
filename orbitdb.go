// Package orbitdb implements the controller façade (spec §4.9): the
// object responsible for resolving a database name or address into an
// immutable manifest-backed address, instantiating the right store
// implementation for that manifest's declared type, binding each live
// store to the pubsub overlay, and keeping local cache state consistent
// with the manifest. This is the hardest engineering in the system —
// every other package here is an external collaborator or a leaf
// component the controller composes.
package orbitdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orbit-go/orbitdb/pkg/accesscontroller"
	"github.com/orbit-go/orbitdb/pkg/address"
	"github.com/orbit-go/orbitdb/pkg/cache"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
	"github.com/orbit-go/orbitdb/pkg/keystore"
	"github.com/orbit-go/orbitdb/pkg/localstore"
	"github.com/orbit-go/orbitdb/pkg/manifest"
	"github.com/orbit-go/orbitdb/pkg/migrate"
	"github.com/orbit-go/orbitdb/pkg/pubsub"
	"github.com/orbit-go/orbitdb/pkg/registry"
	"github.com/orbit-go/orbitdb/pkg/store"
)

// Controller is a live OrbitDB instance: one identity, one object
// store, at most one live store per address, and the cache/migration/
// access-controller/pubsub machinery that keeps them consistent (spec
// §3 "Controller state").
type Controller struct {
	config Config

	peerID      string
	objectStore interfaces.ObjectStore
	pubsub      interfaces.PubSub
	identity    interfaces.Identity
	keystore    interfaces.Keystore

	registry          *registry.Registry
	accessControllers interfaces.AccessControllers
	directories       *cache.Directories
	defaultCacheDir   string
	migrator          *migrate.Runner
	pubsubCoord       *pubsub.Coordinator

	liveMu sync.RWMutex
	live   map[string]interfaces.Store

	channelsMu sync.Mutex
	channels   map[string]interfaces.DirectChannel

	log          *slog.Logger
	componentLog *logrus.Logger
}

// CreateInstance constructs a Controller from cfg (spec §4.9): it
// derives a peer id from the object store, ensures the data directory,
// instantiates a default local storage adapter, keystore and identity
// if none were supplied, opens the default cache, and registers the
// built-in store types on the chosen registry.
func CreateInstance(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.ObjectStore == nil {
		return nil, fmt.Errorf("orbitdb: Config.ObjectStore is required")
	}

	peerID := cfg.PeerID
	if peerID == "" {
		id, err := cfg.ObjectStore.ID(ctx)
		if err != nil {
			return nil, fmt.Errorf("orbitdb: derive peer id: %w", err)
		}
		peerID = id
	}

	directory := cfg.Directory
	if directory == "" {
		directory = "."
	}
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, fmt.Errorf("orbitdb: ensure directory %s: %w", directory, err)
	}

	componentLog := cfg.ComponentLogger
	if componentLog == nil {
		componentLog = logrus.StandardLogger()
	}

	localStorage := cfg.LocalStorage
	if localStorage == nil {
		localStorage = localstore.New(cfg.MinimumFreeGB, componentLog)
	}

	ks := cfg.Keystore
	if ks == nil {
		dir := filepath.Join(directory, peerID, "keystore")
		opened, err := keystore.Open(dir)
		if err != nil {
			return nil, err
		}
		ks = opened
	}

	idProvider := cfg.IdentityProvider
	if idProvider == nil {
		idProvider = keystore.Provider{}
	}
	identity, err := idProvider.CreateIdentity(interfaces.IdentityOptions{ID: peerID, Keystore: ks})
	if err != nil {
		return nil, fmt.Errorf("orbitdb: create identity: %w", err)
	}

	directories := cache.NewDirectories(componentLog, localStorage)
	defaultCacheDir := filepath.Join(directory, peerID, "cache")
	if _, err := directories.Get(defaultCacheDir); err != nil {
		return nil, fmt.Errorf("orbitdb: open default cache: %w", err)
	}

	reg := cfg.TypeRegistry
	if reg == nil {
		reg = registry.Default()
	}
	// Best-effort: a process-wide default registry shared across
	// multiple controllers will already carry these tags after the
	// first call (spec §9 "Global type table").
	_ = store.RegisterDefaults(reg)

	acBridge := cfg.AccessControllers
	if acBridge == nil {
		acBridge = accesscontroller.New(cfg.ObjectStore)
	}

	c := &Controller{
		config:            cfg,
		peerID:            peerID,
		objectStore:       cfg.ObjectStore,
		pubsub:            cfg.PubSub,
		identity:          identity,
		keystore:          ks,
		registry:          reg,
		accessControllers: acBridge,
		directories:       directories,
		defaultCacheDir:   defaultCacheDir,
		migrator:          migrate.New(componentLog),
		live:              make(map[string]interfaces.Store),
		channels:          make(map[string]interfaces.DirectChannel),
		log:               cfg.Logger,
		componentLog:      componentLog,
	}

	if cfg.PubSub != nil {
		c.pubsubCoord = &pubsub.Coordinator{
			PubSub:           cfg.PubSub,
			Opener:           cfg.ChannelOpener,
			GetStore:         c.getLiveStore,
			GetDirectChannel: c.getDirectChannel,
			SetDirectChannel: c.setDirectChannel,
			OnMessage:        c._onMessage,
			Log:              componentLog,
		}
	}

	return c, nil
}

func (c *Controller) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return defaultLogger()
}

// PeerID returns the identity this controller derived or was given.
func (c *Controller) PeerID() string { return c.peerID }

// Identity returns the controller's default identity.
func (c *Controller) Identity() interfaces.Identity { return c.identity }

func (c *Controller) cacheFor(dir string) (interfaces.Cache, error) {
	if dir == "" {
		dir = c.defaultCacheDir
	}
	return c.directories.Get(dir)
}

// _determineAddress builds or reuses an access-controller spec,
// persists it via the bridge, writes the manifest (or merely hashes it,
// when onlyHash is set) and returns the resulting address (spec §4.9).
func (c *Controller) _determineAddress(ctx context.Context, name, typeTag string, opts Options, onlyHash bool) (address.Address, error) {
	if _, err := c.registry.Resolve(typeTag); err != nil {
		return address.Address{}, err
	}
	if address.IsValid(name) {
		return address.Address{}, ErrNameIsAddress
	}

	acSpec := opts.AccessController
	if acSpec.Name == "" {
		acSpec.Name = name
	}
	if acSpec.Type == "" {
		acSpec.Type = "ipfs"
	}
	acSpec = accesscontroller.WithDefaultWriter(acSpec, c.identity.ID())

	acPath, err := c.accessControllers.Create(ctx, c, typeTag, acSpec)
	if err != nil {
		return address.Address{}, fmt.Errorf("orbitdb: create access controller: %w", err)
	}

	manifestOpts := manifest.Options{OnlyHash: onlyHash, Defaults: opts.Defaults}
	root, err := manifest.Create(ctx, c.objectStore, name, typeTag, acPath, manifestOpts)
	if err != nil {
		return address.Address{}, fmt.Errorf("orbitdb: write manifest: %w", err)
	}

	return address.Parse("/orbitdb/" + root + "/" + name)
}

// DetermineAddress computes the address create(name, type, opts) would
// produce, without persisting the manifest (spec §4.9).
func (c *Controller) DetermineAddress(ctx context.Context, name, typeTag string, opts Options) (address.Address, error) {
	return c._determineAddress(ctx, name, typeTag, opts, true)
}

// Create resolves an address for name/typeTag, records it in the local
// cache index, runs migrations, and delegates to Open (spec §4.9).
func (c *Controller) Create(ctx context.Context, name, typeTag string, opts Options) (interfaces.Store, error) {
	addr, err := c._determineAddress(ctx, name, typeTag, opts, false)
	if err != nil {
		return nil, err
	}

	cacheStore, err := c.cacheFor(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("orbitdb: acquire cache: %w", err)
	}

	_, exists, err := cacheStore.Get(cache.ManifestKey(addr.String()))
	if err != nil {
		return nil, err
	}
	if exists && !boolOr(opts.Overwrite, false) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, addr)
	}

	if err := c.migrator.Run(ctx, migrate.Context{
		Directory: c.config.Directory,
		Address:   addr,
		Options:   opts.Extra,
	}); err != nil {
		return nil, err
	}

	if err := cacheStore.Set(cache.ManifestKey(addr.String()), []byte(addr.Root)); err != nil {
		return nil, fmt.Errorf("orbitdb: record cache entry: %w", err)
	}

	return c.Open(ctx, addr.String(), opts)
}

// Open resolves addressOrName to a live store (spec §4.9). A non-
// address name forwards to Create when opts.Create is set.
func (c *Controller) Open(ctx context.Context, addressOrName string, opts Options) (interfaces.Store, error) {
	if !address.IsValid(addressOrName) {
		if !opts.Create {
			return nil, ErrCreateNotSet
		}
		if opts.Type == "" {
			return nil, fmt.Errorf("%w: registered types: %s", ErrTypeMissing, strings.Join(c.registry.Tags(), ", "))
		}
		forwarded := opts
		if forwarded.Overwrite == nil {
			t := true
			forwarded.Overwrite = &t
		}
		return c.Create(ctx, addressOrName, opts.Type, forwarded)
	}

	addr, err := address.Parse(addressOrName)
	if err != nil {
		return nil, err
	}

	cacheStore, err := c.cacheFor(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("orbitdb: acquire cache: %w", err)
	}

	_, present, err := cacheStore.Get(cache.ManifestKey(addr.String()))
	if err != nil {
		return nil, err
	}
	if opts.LocalOnly && !present {
		return nil, fmt.Errorf("%w: %s", ErrNotFoundLocally, addr)
	}

	m, err := manifest.Read(ctx, c.objectStore, addr.Root)
	if err != nil {
		return nil, fmt.Errorf("orbitdb: read manifest %s: %w", addr.Root, err)
	}

	if opts.Type != "" && opts.Type != m.Type {
		return nil, fmt.Errorf("%w: manifest is %q, requested %q", ErrTypeMismatch, m.Type, opts.Type)
	}

	if err := cacheStore.Set(cache.ManifestKey(addr.String()), []byte(addr.Root)); err != nil {
		return nil, fmt.Errorf("orbitdb: record cache entry: %w", err)
	}

	merged := opts
	if opts.MergeDefaults && len(m.Defaults) > 0 {
		merged.Defaults = mergeDefaultsUnder(m.Defaults, opts.Defaults)
	} else {
		merged.Defaults = opts.Defaults
	}

	return c._createStore(ctx, m.Type, addr, merged, m.AccessController, cacheStore)
}

// _createStore resolves the type's constructor and access controller,
// builds the merged option bag, wires the write callback, registers
// the store under its address, and subscribes to pubsub when
// replication is enabled (spec §4.7).
func (c *Controller) _createStore(ctx context.Context, typeTag string, addr address.Address, opts Options, acAddr string, cacheStore interfaces.Cache) (interfaces.Store, error) {
	ctor, err := c.registry.Resolve(typeTag)
	if err != nil {
		return nil, err
	}

	var ac interfaces.AccessController
	if acAddr != "" {
		ac, err = c.accessControllers.Resolve(ctx, c, acAddr, opts.AccessController)
		if err != nil {
			return nil, fmt.Errorf("orbitdb: resolve access controller: %w", err)
		}
	}

	identity := opts.Identity
	if identity == nil {
		identity = c.identity
	}

	replicate := boolOr(opts.Replicate, true)
	storeOpts := interfaces.StoreOptions{
		Replicate:            replicate,
		AccessController:     ac,
		Keystore:             c.keystore,
		Cache:                cacheStore,
		Identity:             identity,
		OnClose:              c._onClose,
		Defaults:             opts.Defaults,
		AccessControllerAddr: acAddr,
		Extra:                opts.Extra,
	}

	s, err := ctor(c.objectStore, identity, addr, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("orbitdb: construct store: %w", err)
	}

	s.OnWrite(c._onWrite)

	c.liveMu.Lock()
	c.live[addr.String()] = s
	c.liveMu.Unlock()

	if replicate && c.pubsubCoord != nil {
		if err := c.pubsubCoord.Subscribe(ctx, addr.String()); err != nil {
			c.logger().Warn("subscribe failed", "address", addr.String(), "error", err)
		}
	}

	return s, nil
}

// _onWrite republishes a store's new heads on pubsub (spec §4.7).
func (c *Controller) _onWrite(addr address.Address, entry []byte, heads interfaces.Heads) {
	if len(heads) == 0 {
		c.logger().Error(ErrInvariantViolation.Error(), "address", addr.String(), "reason", "heads must not be empty on write")
		return
	}
	if c.pubsubCoord == nil {
		return
	}
	if err := c.pubsubCoord.Publish(context.Background(), addr.String(), heads); err != nil {
		c.logger().Warn("publish heads failed", "address", addr.String(), "error", err)
	}
}

// _onMessage merges inbound heads into the matching live store.
// Errors are logged and swallowed — remote messages must never crash
// the controller (spec §4.7, §7).
func (c *Controller) _onMessage(topic string, heads []string) {
	s, ok := c.getLiveStore(topic)
	if !ok || len(heads) == 0 {
		return
	}
	if err := s.Sync(context.Background(), heads); err != nil {
		c.logger().Warn("sync failed", "address", topic, "error", err)
	}
}

// _onClose removes addr from the live map and unsubscribes its topic.
// Idempotent (spec §4.7, §7).
func (c *Controller) _onClose(addr address.Address) {
	c.liveMu.Lock()
	delete(c.live, addr.String())
	c.liveMu.Unlock()
	if c.pubsubCoord != nil {
		_ = c.pubsubCoord.Unsubscribe(addr.String())
	}
}

func (c *Controller) getLiveStore(topic string) (interfaces.Store, bool) {
	c.liveMu.RLock()
	defer c.liveMu.RUnlock()
	s, ok := c.live[topic]
	return s, ok
}

func (c *Controller) getDirectChannel(peer string) (interfaces.DirectChannel, bool) {
	c.channelsMu.Lock()
	defer c.channelsMu.Unlock()
	ch, ok := c.channels[peer]
	return ch, ok
}

func (c *Controller) setDirectChannel(peer string, ch interfaces.DirectChannel) {
	c.channelsMu.Lock()
	defer c.channelsMu.Unlock()
	c.channels[peer] = ch
}

// Stop closes the keystore, every cache in parallel, every live store
// sequentially, every direct channel, and disconnects pubsub, in that
// order (spec §3 "Lifecycle", §4.9 "stop/disconnect"). Safe to call
// when nothing is open.
func (c *Controller) Stop(ctx context.Context) error {
	var errs []error

	if c.keystore != nil {
		if err := c.keystore.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := c.directories.CloseAll(); err != nil {
		errs = append(errs, err)
	}

	c.liveMu.Lock()
	stores := make([]interfaces.Store, 0, len(c.live))
	for _, s := range c.live {
		stores = append(stores, s)
	}
	c.live = make(map[string]interfaces.Store)
	c.liveMu.Unlock()
	for _, s := range stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	c.channelsMu.Lock()
	channels := make([]interfaces.DirectChannel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.channels = make(map[string]interfaces.DirectChannel)
	c.channelsMu.Unlock()
	for _, ch := range channels {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.pubsub != nil {
		if err := c.pubsub.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// --- per-type convenience wrappers (spec §4.9) -----------------------

func (c *Controller) openTyped(ctx context.Context, nameOrAddress, typeTag string, opts Options) (interfaces.Store, error) {
	opts.Create = true
	opts.Type = typeTag
	return c.Open(ctx, nameOrAddress, opts)
}

// Feed opens or creates a feed database.
func (c *Controller) Feed(ctx context.Context, nameOrAddress string, opts Options) (*store.Feed, error) {
	s, err := c.openTyped(ctx, nameOrAddress, store.TypeFeed, opts)
	if err != nil {
		return nil, err
	}
	f, ok := s.(*store.Feed)
	if !ok {
		return nil, fmt.Errorf("orbitdb: %s is not a feed", nameOrAddress)
	}
	return f, nil
}

// Log (alias EventLog) opens or creates an eventlog database.
func (c *Controller) Log(ctx context.Context, nameOrAddress string, opts Options) (*store.EventLog, error) {
	s, err := c.openTyped(ctx, nameOrAddress, store.TypeEventLog, opts)
	if err != nil {
		return nil, err
	}
	e, ok := s.(*store.EventLog)
	if !ok {
		return nil, fmt.Errorf("orbitdb: %s is not an eventlog", nameOrAddress)
	}
	return e, nil
}

// KeyValue (alias KVStore) opens or creates a keyvalue database.
func (c *Controller) KeyValue(ctx context.Context, nameOrAddress string, opts Options) (*store.KeyValue, error) {
	s, err := c.openTyped(ctx, nameOrAddress, store.TypeKeyValue, opts)
	if err != nil {
		return nil, err
	}
	kv, ok := s.(*store.KeyValue)
	if !ok {
		return nil, fmt.Errorf("orbitdb: %s is not a keyvalue store", nameOrAddress)
	}
	return kv, nil
}

// Counter opens or creates a counter database.
func (c *Controller) Counter(ctx context.Context, nameOrAddress string, opts Options) (*store.Counter, error) {
	s, err := c.openTyped(ctx, nameOrAddress, store.TypeCounter, opts)
	if err != nil {
		return nil, err
	}
	cnt, ok := s.(*store.Counter)
	if !ok {
		return nil, fmt.Errorf("orbitdb: %s is not a counter", nameOrAddress)
	}
	return cnt, nil
}

// DocStore (alias Docs) opens or creates a docstore database.
func (c *Controller) DocStore(ctx context.Context, nameOrAddress string, opts Options) (*store.DocStore, error) {
	s, err := c.openTyped(ctx, nameOrAddress, store.TypeDocStore, opts)
	if err != nil {
		return nil, err
	}
	d, ok := s.(*store.DocStore)
	if !ok {
		return nil, fmt.Errorf("orbitdb: %s is not a docstore", nameOrAddress)
	}
	return d, nil
}
