package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/khanhnv2901/site-inspector/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/site-inspector/internal/shared/errors"
	"github.com/khanhnv2901/site-inspector/internal/shared/security"
	"go.uber.org/zap"
)

// diskEntry is the on-disk envelope of one cached value.
type diskEntry struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
	Value    []byte    `json:"value"`
}

// Disk persists entries as one file per key inside a directory, fronted by an
// in-memory layer so a key is read from disk at most once per run.
type Disk struct {
	dir     string
	replace bool
	logger  *zap.Logger

	mu     sync.RWMutex
	memory map[string][]byte
}

// NewDisk creates the cache directory if needed. With replace set, files left
// by previous runs are ignored and removed on first access.
func NewDisk(dir string, replace bool, logger *zap.Logger) (*Disk, error) {
	if dir == "" {
		return nil, sharedErrors.ErrCacheDirRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	return &Disk{
		dir:     abs,
		replace: replace,
		logger:  logger,
		memory:  make(map[string][]byte),
	}, nil
}

func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.RLock()
	v, ok := d.memory[key]
	d.mu.RUnlock()
	if ok {
		return v, true
	}

	path, err := security.KeyFile(d.dir, key)
	if err != nil {
		d.logger.Warn("rejecting cache key", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn("cache read failed", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	if d.replace {
		d.remove(path)
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		d.logger.Warn("discarding corrupt cache entry", zap.String("path", path))
		d.remove(path)
		return nil, false
	}

	d.mu.Lock()
	d.memory[key] = entry.Value
	d.mu.Unlock()
	return entry.Value, true
}

func (d *Disk) Set(key string, value []byte) error {
	path, err := security.KeyFile(d.dir, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(diskEntry{Key: key, StoredAt: time.Now().UTC(), Value: value})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Write to a temp file first so a concurrent reader never sees a partial entry.
	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Chmod(tmp.Name(), constants.DefaultFilePerm); err != nil {
		d.logger.Debug("chmod cache entry", zap.Error(err))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}

	d.mu.Lock()
	d.memory[key] = value
	d.mu.Unlock()
	return nil
}

// Dir returns the absolute cache directory.
func (d *Disk) Dir() string {
	return d.dir
}

func (d *Disk) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("failed to remove cache entry", zap.String("path", path), zap.Error(err))
	}
}
