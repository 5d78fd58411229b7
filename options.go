package orbitdb

import "github.com/orbit-go/orbitdb/pkg/interfaces"

// Options parameterizes Create/Open and the per-type convenience
// wrappers (spec §4.9). Overwrite and Replicate are pointers so the
// controller can tell "caller left this unset" apart from an explicit
// false, which matters when Open forwards to Create with its own
// default (spec: "overwrite: options.overwrite ?? true").
type Options struct {
	// Directory overrides which cache (and, by extension, which
	// caller-visible subtree) this open/create uses. Empty means the
	// controller's default cache under <directory>/<peerId>/cache.
	Directory string

	// Create and Type drive Open's non-address branch (spec §4.9).
	Create bool
	Type   string

	// Overwrite governs whether Create proceeds when a cache index
	// entry already exists for the resolved address. Nil means false
	// for a direct Create call; Open forwards true when the caller
	// left it unset.
	Overwrite *bool

	// Replicate governs whether the resulting store is subscribed to
	// pubsub. Nil means true, matching the merged option bag in spec
	// §4.7 step 3 ("{replicate: true, ...options}").
	Replicate *bool

	// LocalOnly fails Open with NotFoundLocally instead of waiting for
	// a manifest to appear over the object store.
	LocalOnly bool

	// MergeDefaults, when true, merges the manifest's stored defaults
	// underneath Defaults (caller-supplied values win).
	MergeDefaults bool
	Defaults      map[string]any

	// AccessController lets the caller shape the access-controller
	// spec synthesized by _determineAddress (name/type default when
	// left zero; Write defaults to the controller's identity when
	// empty).
	AccessController interfaces.ACSpec

	// Identity overrides the controller's default identity for the
	// resulting store.
	Identity interfaces.Identity

	// Extra is forwarded to the migration runner's Context.Options and
	// to the constructed store's StoreOptions.Extra, for store-type-
	// specific or migration-specific knobs outside this struct.
	Extra map[string]any
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func mergeDefaultsUnder(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
