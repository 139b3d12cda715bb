package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
)

// MinDiskSpaceBytes is the floor on free space under the data directory,
// whatever the size of the existing index.
const MinDiskSpaceBytes = 100 * 1024 * 1024

// CheckDiskSpace compares free space on the volume holding dataDir with
// what a full reindex needs. A reindex writes a fresh copy of every entry
// before the old one is compacted away, so twice the current index size
// must fit; below that the check fails, below twice that it warns.
func (c *Checker) CheckDiskSpace(dataDir string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	free, err := freeBytes(dataDir)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	used := indexBytes(dataDir)
	need := requiredFreeBytes(used)
	result.Message = fmt.Sprintf("%s free, index %s (need %s)",
		humanize.IBytes(free), humanize.IBytes(used), humanize.IBytes(need))

	switch {
	case free < need:
		result.Status = StatusFail
		result.Details = "Free space on this volume or point data_dir elsewhere"
	case free < 2*need:
		result.Status = StatusWarn
		result.Details = "A reindex may run the volume close to full"
	default:
		result.Status = StatusPass
	}
	return result
}

func requiredFreeBytes(indexSize uint64) uint64 {
	return max(MinDiskSpaceBytes, 2*indexSize)
}

// freeBytes statfs's the nearest existing ancestor, so a data directory
// that has not been created yet still reports its volume.
func freeBytes(path string) (uint64, error) {
	dir := filepath.Clean(path)
	for {
		var stat syscall.Statfs_t
		err := syscall.Statfs(dir, &stat)
		if err == nil {
			return stat.Bavail * uint64(stat.Bsize), nil
		}
		parent := filepath.Dir(dir)
		if !errors.Is(err, fs.ErrNotExist) || parent == dir {
			return 0, err
		}
		dir = parent
	}
}

// indexBytes sums regular files under dataDir. Unreadable entries count as
// zero; a missing directory is an empty index.
func indexBytes(dataDir string) uint64 {
	var total uint64
	_ = filepath.WalkDir(dataDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return total
}
