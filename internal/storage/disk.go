package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to a database in WAL mode.
var sqliteSidecars = []string{"-wal", "-shm"}

// DiskUsage returns the bytes used by the SQLite database at dbPath, its WAL sidecars and
// every path in others. Directories are summed recursively; missing or empty paths count as 0.
func DiskUsage(dbPath string, others ...string) (int64, error) {
	paths := make([]string, 0, 1+len(sqliteSidecars)+len(others))
	if dbPath != "" {
		paths = append(paths, dbPath)
		for _, suffix := range sqliteSidecars {
			paths = append(paths, dbPath+suffix)
		}
	}
	paths = append(paths, others...)

	var total int64
	for _, p := range paths {
		n, err := pathSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
