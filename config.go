package orbitdb

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/orbit-go/orbitdb/pkg/interfaces"
	"github.com/orbit-go/orbitdb/pkg/registry"
)

// Config configures a Controller (spec §4.9's createInstance), wired
// against the external collaborators it needs: an object store and,
// optionally, a pubsub overlay, local storage adapter, keystore,
// identity provider, access-controllers factory and channel opener.
// ObjectStore is required. PubSub and ChannelOpener stay nil when left
// unset; every other collaborator left nil gets the package's
// reference implementation.
type Config struct {
	// Directory is the root under which <peerId>/keystore,
	// <peerId>/cache and per-database data live (spec §6).
	Directory string
	// PeerID overrides the id CreateInstance would otherwise derive
	// from ObjectStore.ID, mainly so tests get a stable identity
	// across restarts.
	PeerID string

	ObjectStore interfaces.ObjectStore
	PubSub      interfaces.PubSub

	LocalStorage      interfaces.LocalStorageAdapter
	Keystore          interfaces.Keystore
	IdentityProvider  interfaces.IdentityProvider
	AccessControllers interfaces.AccessControllers
	ChannelOpener     interfaces.ChannelOpener

	// TypeRegistry holds this controller's own store-type registry
	// (spec §9: "expose the registry as a field of the controller's
	// options, falling back to a process-wide default only when
	// absent").
	TypeRegistry *registry.Registry

	// Logger is the façade-level structured logger (CreateInstance,
	// Create, Open, Stop). Defaults to a stderr text handler when nil.
	Logger *slog.Logger
	// ComponentLogger is threaded into components with their own
	// lifecycle: the cache index, the migration runner, the pubsub
	// coordinator. Defaults to logrus's standard logger when nil.
	ComponentLogger *logrus.Logger

	// MinimumFreeGB is enforced by the default LocalStorage adapter
	// before opening a cache directory. Zero disables the check.
	MinimumFreeGB uint
}

func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h)
}

// FileConfig is the on-disk shape an operator-provided YAML file takes
// (spec §2.3): data paths, a free-space threshold, and a UI port for
// deployments that front the controller with a web UI.
type FileConfig struct {
	Paths         []string `yaml:"paths"`
	MinimumFreeGB uint     `yaml:"minimumFreeGB"`
	UIPort        uint16   `yaml:"uiPort"`
}

// LoadConfigFile decodes the YAML document at path and merges it onto
// base: Directory from Paths[0] and MinimumFreeGB, leaving every other
// field of base untouched.
func LoadConfigFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("orbitdb: read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return base, fmt.Errorf("orbitdb: parse config %s: %w", path, err)
	}
	if len(fc.Paths) > 0 {
		base.Directory = fc.Paths[0]
	}
	if fc.MinimumFreeGB > 0 {
		base.MinimumFreeGB = fc.MinimumFreeGB
	}
	return base, nil
}
