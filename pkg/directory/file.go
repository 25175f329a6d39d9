package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
)

// Medium reads and atomically replaces files. file.OSMedium satisfies it.
type Medium interface {
	MkdirAll(dir string) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

type savedDirectory struct {
	Players []Player          `json:"players"`
	Links   map[string]string `json:"links,omitempty"`
}

// File is a Memory directory kept in a JSON file next to the ledger
type File struct {
	*Memory

	path   string
	medium Medium
	logger *logging.Logger

	saveMu       sync.Mutex
	savedVersion uint64
}

// NewFile creates an empty directory saved at path
func NewFile(path string, medium Medium, logger *logging.Logger) *File {
	if logger == nil {
		logger = logging.Default
	}
	return &File{
		Memory: NewMemory(),
		path:   path,
		medium: medium,
		logger: logger.Named("directory"),
	}
}

// Path returns where the directory is saved
func (f *File) Path() string {
	return f.path
}

// Load merges the saved players and links into the directory.
// A missing or empty file leaves it unchanged.
func (f *File) Load(ctx context.Context) error {
	data, err := f.medium.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Info("No player directory at %s yet", f.path)
		return nil
	}
	if err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to read player directory", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var saved savedDirectory
	if err := json.Unmarshal(data, &saved); err != nil {
		return types.WrapError(types.ErrCorruptSnapshot, "player directory "+f.path+" cannot be decoded", err)
	}

	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	for _, p := range saved.Players {
		f.Register(p)
	}
	for account, id := range saved.Links {
		f.Link(account, id)
	}
	f.savedVersion = f.Version()

	f.logger.Info("Loaded %d players and %d links from %s", len(saved.Players), len(saved.Links), f.path)
	return nil
}

// SaveIfDirty writes the directory when it changed since the last save
func (f *File) SaveIfDirty(ctx context.Context) error {
	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	version := f.Version()
	if version == f.savedVersion {
		return nil
	}

	data, err := json.MarshalIndent(savedDirectory{Players: f.Players(), Links: f.Links()}, "", "  ")
	if err != nil {
		return types.WrapError(types.ErrInternalError, "failed to encode player directory", err)
	}
	if err := f.medium.MkdirAll(filepath.Dir(f.path)); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to create directory for players file", err)
	}
	if err := f.medium.WriteFile(f.path, data); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to write player directory", err)
	}

	f.savedVersion = version
	f.logger.Debug("Saved %d players to %s", f.Len(), f.path)
	return nil
}
