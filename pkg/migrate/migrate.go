// Package migrate implements the migration runner (spec §4.5): an
// ordered, idempotent sequence of on-disk cache-layout upgrades applied
// before a store is opened. The shape — an ordered list of pure
// functions over a shared context, each safe to run when nothing needs
// doing — mirrors the teacher's wal.DeletionWAL/backup.BackupManager
// interfaces, generalized from WAL/backup operations to layout
// upgrades.
package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/orbit-go/orbitdb/pkg/address"
)

// Context is the shared state a Migration inspects and mutates.
type Context struct {
	// Directory is the cache/data root (Config.Directory or a
	// caller-supplied override).
	Directory string
	// Address is the database address being opened.
	Address address.Address
	// Options carries through caller-supplied open/create options that
	// a migration may need (e.g. legacy path hints).
	Options map[string]any
}

// Migration is a single ordered, idempotent upgrade step.
type Migration struct {
	Name string
	Run  func(ctx context.Context, mc Context) error
}

// Runner applies an ordered list of migrations.
type Runner struct {
	Migrations []Migration
	Log        *logrus.Logger
}

// New returns a Runner with the built-in migrations registered in
// order. Callers may append their own via Migrations.
func New(log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.New()
	}
	return &Runner{
		Log:        log,
		Migrations: []Migration{legacyCacheSchemaMigration},
	}
}

// Run applies every migration in order. The whole create/open call
// fails if any migration fails (spec §4.5).
func (r *Runner) Run(ctx context.Context, mc Context) error {
	for _, m := range r.Migrations {
		if err := m.Run(ctx, mc); err != nil {
			return fmt.Errorf("migrate: %s: %w", m.Name, err)
		}
		r.Log.WithFields(logrus.Fields{
			"migration": m.Name,
			"address":   mc.Address.String(),
		}).Debug("migration applied")
	}
	return nil
}

// legacyCacheSchemaMigration moves a database's data from the legacy
// layout "<directory>/<path>" used by older on-disk schemas into
// the current layout "<directory>/<address.root>/<address.path>" (spec
// §4.5, §6). It is a no-op when the legacy path does not exist, or when
// the current layout is already populated — safe to run unconditionally
// on every create/open (spec §8 scenario 6: migration idempotence).
var legacyCacheSchemaMigration = Migration{
	Name: "legacy-cache-schema",
	Run: func(ctx context.Context, mc Context) error {
		if mc.Directory == "" || mc.Address.IsZero() {
			return nil
		}
		current := filepath.Join(mc.Directory, mc.Address.Root, mc.Address.Path)
		legacy := filepath.Join(mc.Directory, mc.Address.Path)

		if _, err := os.Stat(legacy); os.IsNotExist(err) {
			return nil
		} else if err != nil {
			return err
		}
		if _, err := os.Stat(current); err == nil {
			// Current layout already populated; nothing to do.
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(current), 0o700); err != nil {
			return err
		}
		return os.Rename(legacy, current)
	},
}
