package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/fadedpez/scrapstats/pkg/storage"
	"github.com/google/uuid"
)

const (
	// DefaultBackupCount is how many backups are retained
	DefaultBackupCount = 5

	backupDirName   = "backups"
	timestampLayout = "2006-01-02_15-04-05"
	backupIDLength  = 8
)

// Options represents file storage configuration options
type Options struct {
	DataDir      string
	InstanceName string
	BackupCount  int
	Medium       Medium
	Now          func() time.Time
	Logger       *logging.Logger
}

// NewOptions creates a new Options with default values
func NewOptions() *Options {
	return &Options{
		DataDir:      "data",
		InstanceName: "GamblingStats",
		BackupCount:  DefaultBackupCount,
		Medium:       OSMedium{},
		Now:          time.Now,
		Logger:       logging.Default,
	}
}

// Storage keeps the ledger in a single JSON snapshot file and rotates
// copies of the previous snapshot into a backup directory.
type Storage struct {
	options   *Options
	primary   string
	backupDir string
}

var _ storage.Backend = (*Storage)(nil)

// New creates a new file storage instance
func New(options *Options) (*Storage, error) {
	defaults := NewOptions()
	if options == nil {
		options = defaults
	}
	if options.DataDir == "" {
		options.DataDir = defaults.DataDir
	}
	if options.InstanceName == "" {
		options.InstanceName = defaults.InstanceName
	}
	if strings.ContainsAny(options.InstanceName, `/\`) {
		return nil, fmt.Errorf("instance name %q must not contain path separators", options.InstanceName)
	}
	if options.BackupCount <= 0 {
		options.BackupCount = defaults.BackupCount
	}
	if options.Medium == nil {
		options.Medium = defaults.Medium
	}
	if options.Now == nil {
		options.Now = defaults.Now
	}
	if options.Logger == nil {
		options.Logger = defaults.Logger
	}
	options.Logger = options.Logger.Named("file")

	return &Storage{
		options:   options,
		primary:   filepath.Join(options.DataDir, options.InstanceName+".json"),
		backupDir: filepath.Join(options.DataDir, backupDirName),
	}, nil
}

// Name implements storage.Backend
func (s *Storage) Name() string {
	return storage.MethodInternal
}

// Path returns the primary snapshot path
func (s *Storage) Path() string {
	return s.primary
}

// BackupDir returns the directory holding backups
func (s *Storage) BackupDir() string {
	return s.backupDir
}

// InitSchema creates the data and backup directories
func (s *Storage) InitSchema(ctx context.Context) error {
	if err := s.options.Medium.MkdirAll(s.backupDir); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to create data directory", err)
	}
	return nil
}

// Load reads the primary snapshot. A missing or empty file is an empty ledger.
// An undecodable file is copied aside and reported as CORRUPT_SNAPSHOT with an empty result.
func (s *Storage) Load(ctx context.Context) ([]ledger.Entry, error) {
	data, err := s.options.Medium.ReadFile(s.primary)
	if errors.Is(err, fs.ErrNotExist) {
		s.options.Logger.Info("No snapshot at %s, starting with an empty ledger", s.primary)
		return []ledger.Entry{}, nil
	}
	if err != nil {
		return nil, types.WrapError(types.ErrPersistenceConnect, "failed to read snapshot", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []ledger.Entry{}, nil
	}

	var players map[string]entities.PlayerStats
	if err := json.Unmarshal(data, &players); err != nil {
		quarantined := s.quarantine()
		return []ledger.Entry{}, types.WrapError(types.ErrCorruptSnapshot,
			fmt.Sprintf("snapshot %s cannot be decoded (original kept at %s)", s.primary, quarantined), err)
	}

	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]ledger.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, ledger.Entry{PlayerID: id, Stats: players[id]})
	}

	s.options.Logger.Info("Loaded %d players from %s", len(entries), s.primary)
	return entries, nil
}

// Flush backs up the previous snapshot, overwrites the primary with the
// full ledger, then prunes backups beyond the retention count.
func (s *Storage) Flush(ctx context.Context, snapshot ledger.Snapshot) error {
	if err := s.backupPrimary(); err != nil {
		s.options.Logger.Warn("Failed to back up %s: %v", s.primary, err)
	}

	players := make(map[string]entities.PlayerStats, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		players[e.PlayerID] = e.Stats
	}
	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return types.WrapError(types.ErrInternalError, "failed to encode snapshot", err)
	}

	if err := s.options.Medium.MkdirAll(s.options.DataDir); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to create data directory", err)
	}
	if err := s.options.Medium.WriteFile(s.primary, data); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "failed to write snapshot", err)
	}

	if err := s.prune(); err != nil {
		s.options.Logger.Warn("Failed to prune backups in %s: %v", s.backupDir, err)
	}
	return nil
}

// Close implements storage.Backend
func (s *Storage) Close() error {
	return nil
}

// ListBackups returns this instance's backups, newest first
func (s *Storage) ListBackups() ([]Backup, error) {
	files, err := s.options.Medium.List(s.backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Backup{}, nil
	}
	if err != nil {
		return nil, err
	}

	backups := make([]Backup, 0, len(files))
	for _, f := range files {
		if s.isBackupName(f.Name) {
			backups = append(backups, f)
		}
	}
	SortNewestFirst(backups)
	return backups, nil
}

// Helper functions

// isBackupName matches <instance>_<timestamp>_<8 hex>.json so another
// instance sharing the directory, such as GamblingStats_eu, is left alone
func (s *Storage) isBackupName(name string) bool {
	rest, ok := strings.CutPrefix(name, s.options.InstanceName+"_")
	if !ok {
		return false
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok || len(rest) != len(timestampLayout)+1+backupIDLength || rest[len(timestampLayout)] != '_' {
		return false
	}
	if _, err := time.Parse(timestampLayout, rest[:len(timestampLayout)]); err != nil {
		return false
	}
	for _, c := range rest[len(timestampLayout)+1:] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

func (s *Storage) backupPrimary() error {
	exists, err := s.options.Medium.Exists(s.primary)
	if err != nil {
		return err
	}
	if !exists {
		s.options.Logger.Debug("No snapshot to back up yet")
		return nil
	}

	if err := s.options.Medium.MkdirAll(s.backupDir); err != nil {
		return err
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		s.options.InstanceName,
		s.options.Now().Format(timestampLayout),
		uuid.NewString()[:backupIDLength],
	)
	return s.options.Medium.CopyFile(s.primary, filepath.Join(s.backupDir, name))
}

func (s *Storage) prune() error {
	backups, err := s.ListBackups()
	if err != nil {
		return err
	}

	var errs []error
	for _, b := range Expired(backups, s.options.BackupCount) {
		if err := s.options.Medium.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		s.options.Logger.Debug("Removed expired backup %s", b.Name)
	}
	return errors.Join(errs...)
}

func (s *Storage) quarantine() string {
	dst := filepath.Join(s.options.DataDir,
		fmt.Sprintf("%s.corrupt-%s.json", s.options.InstanceName, s.options.Now().Format(timestampLayout)))
	if err := s.options.Medium.CopyFile(s.primary, dst); err != nil {
		s.options.Logger.Error("Failed to preserve corrupt snapshot %s: %v", s.primary, err)
		return s.primary
	}
	return dst
}
