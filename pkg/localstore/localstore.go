// Package localstore provides the default local storage adapter (spec
// §6): CreateStore(path) builds a Cache rooted at that path. It creates
// the directory, then checks free disk space there before opening the
// cache, the same way the
// teacher's internal/keyValStore.displayDiskUsage does, via
// github.com/shirou/gopsutil.
package localstore

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"

	"github.com/orbit-go/orbitdb/pkg/cache"
	"github.com/orbit-go/orbitdb/pkg/interfaces"
)

// Adapter is the default interfaces.LocalStorageAdapter.
type Adapter struct {
	MinimumFreeGB uint
	Log           *logrus.Logger
}

// New returns an Adapter enforcing minimumFreeGB of free space on
// every CreateStore call. A zero threshold disables the check.
func New(minimumFreeGB uint, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.New()
	}
	return &Adapter{MinimumFreeGB: minimumFreeGB, Log: log}
}

func (a *Adapter) CreateStore(path string) (interfaces.Cache, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("localstore: mkdir %s: %w", path, err)
	}
	if a.MinimumFreeGB > 0 {
		if err := checkFreeSpace(path, a.MinimumFreeGB); err != nil {
			return nil, err
		}
	}
	return cache.Open(path, a.Log)
}

func checkFreeSpace(path string, minimumFreeGB uint) error {
	usage, err := disk.Usage(path)
	if err != nil {
		// Free-space reporting is best-effort; an unsupported
		// platform must not block store creation.
		return nil
	}
	freeGB := usage.Free / (1 << 30)
	if freeGB < uint64(minimumFreeGB) {
		return fmt.Errorf("localstore: only %dGB free at %s, need %dGB", freeGB, path, minimumFreeGB)
	}
	return nil
}
