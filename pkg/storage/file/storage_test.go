package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/stretchr/testify/suite"
)

type StorageTestSuite struct {
	suite.Suite
	tempDir string
	clock   time.Time
	storage *Storage
}

func TestStorage(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (s *StorageTestSuite) SetupTest() {
	// Create temp directory for test files
	s.tempDir = s.T().TempDir()
	s.clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	storage, err := New(&Options{
		DataDir:      s.tempDir,
		InstanceName: "GamblingStats",
		BackupCount:  5,
		Now:          s.now,
		Logger:       logging.NewLoggerTo(&strings.Builder{}, logging.ERROR),
	})
	s.Require().NoError(err)
	s.Require().NoError(storage.InitSchema(context.Background()))
	s.storage = storage
}

func (s *StorageTestSuite) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *StorageTestSuite) snapshot(entries ...ledger.Entry) ledger.Snapshot {
	return ledger.Snapshot{Entries: entries}
}

func (s *StorageTestSuite) TestLoadMissingFileIsEmpty() {
	// Execute
	entries, err := s.storage.Load(context.Background())

	// Assert
	s.Require().NoError(err)
	s.Empty(entries, "Missing snapshot should load as an empty ledger")
}

func (s *StorageTestSuite) TestLoadEmptyFileIsEmpty() {
	// Setup
	s.Require().NoError(os.WriteFile(s.storage.Path(), []byte("  \n"), 0644))

	// Execute
	entries, err := s.storage.Load(context.Background())

	// Assert
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StorageTestSuite) TestFlushAndLoadRoundTrip() {
	// Setup
	ctx := context.Background()
	snap := s.snapshot(
		ledger.Entry{PlayerID: "76561198000000002", Stats: entities.PlayerStats{ScrapSpent: 100, ScrapLost: 40, ScrapEarned: 250}},
		ledger.Entry{PlayerID: "76561198000000001", Stats: entities.PlayerStats{ScrapSpent: 5}},
	)

	// Execute
	s.Require().NoError(s.storage.Flush(ctx, snap))
	entries, err := s.storage.Load(ctx)

	// Assert
	s.Require().NoError(err)
	s.Equal([]ledger.Entry{
		{PlayerID: "76561198000000001", Stats: entities.PlayerStats{ScrapSpent: 5}},
		{PlayerID: "76561198000000002", Stats: entities.PlayerStats{ScrapSpent: 100, ScrapLost: 40, ScrapEarned: 250}},
	}, entries, "Loaded entries should be sorted by player id")
}

func (s *StorageTestSuite) TestSnapshotFormat() {
	// Setup
	snap := s.snapshot(ledger.Entry{PlayerID: "1", Stats: entities.PlayerStats{ScrapSpent: 1, ScrapLost: 2, ScrapEarned: 3}})

	// Execute
	s.Require().NoError(s.storage.Flush(context.Background(), snap))

	// Assert
	data, err := os.ReadFile(s.storage.Path())
	s.Require().NoError(err)
	var raw map[string]map[string]int64
	s.Require().NoError(json.Unmarshal(data, &raw))
	s.Equal(map[string]int64{"ScrapSpent": 1, "ScrapLost": 2, "ScrapEarned": 3}, raw["1"])
	s.Contains(string(data), "\n  ", "Snapshot should be indented")
}

func (s *StorageTestSuite) TestFirstFlushCreatesNoBackup() {
	// Execute
	s.Require().NoError(s.storage.Flush(context.Background(), s.snapshot()))

	// Assert
	backups, err := s.storage.ListBackups()
	s.Require().NoError(err)
	s.Empty(backups)
}

func (s *StorageTestSuite) TestFlushBacksUpPreviousSnapshot() {
	// Setup
	ctx := context.Background()
	first := s.snapshot(ledger.Entry{PlayerID: "1", Stats: entities.PlayerStats{ScrapSpent: 10}})
	second := s.snapshot(ledger.Entry{PlayerID: "1", Stats: entities.PlayerStats{ScrapSpent: 20}})
	s.Require().NoError(s.storage.Flush(ctx, first))

	// Execute
	s.Require().NoError(s.storage.Flush(ctx, second))

	// Assert
	backups, err := s.storage.ListBackups()
	s.Require().NoError(err)
	s.Require().Len(backups, 1)
	s.True(strings.HasPrefix(backups[0].Name, "GamblingStats_2024-03-01_12-00-"), "unexpected backup name %s", backups[0].Name)
	s.Equal(filepath.Join(s.tempDir, "backups"), filepath.Dir(backups[0].Path))

	data, err := os.ReadFile(backups[0].Path)
	s.Require().NoError(err)
	var raw map[string]entities.PlayerStats
	s.Require().NoError(json.Unmarshal(data, &raw))
	s.Equal(int64(10), raw["1"].ScrapSpent, "Backup should hold the previous snapshot")
}

func (s *StorageTestSuite) TestCorruptSnapshotIsQuarantined() {
	// Setup
	s.Require().NoError(os.WriteFile(s.storage.Path(), []byte("{not json"), 0644))

	// Execute
	entries, err := s.storage.Load(context.Background())

	// Assert
	s.Require().Error(err)
	s.True(types.IsStatsError(err, types.ErrCorruptSnapshot), "expected CORRUPT_SNAPSHOT, got %v", err)
	s.Empty(entries)

	matches, globErr := filepath.Glob(filepath.Join(s.tempDir, "GamblingStats.corrupt-*.json"))
	s.Require().NoError(globErr)
	s.Len(matches, 1, "Corrupt file should be preserved")

	_, statErr := os.Stat(s.storage.Path())
	s.NoError(statErr, "Original file should be left in place")
}

func (s *StorageTestSuite) TestRemovedPlayerIsAbsentAfterFlush() {
	// Setup
	ctx := context.Background()
	s.Require().NoError(s.storage.Flush(ctx, s.snapshot(
		ledger.Entry{PlayerID: "1"},
		ledger.Entry{PlayerID: "2"},
	)))

	// Execute
	s.Require().NoError(s.storage.Flush(ctx, ledger.Snapshot{
		Entries: []ledger.Entry{{PlayerID: "2"}},
		Removed: []string{"1"},
	}))

	// Assert
	entries, err := s.storage.Load(ctx)
	s.Require().NoError(err)
	s.Equal([]ledger.Entry{{PlayerID: "2"}}, entries)
}

func (s *StorageTestSuite) TestNewRejectsPathInInstanceName() {
	_, err := New(&Options{DataDir: s.tempDir, InstanceName: "../escape"})
	s.Error(err)
}

// memMedium keeps files in memory and stamps each write with the fake clock
type memMedium struct {
	now   func() time.Time
	files map[string]memFile
}

type memFile struct {
	data    []byte
	created time.Time
}

func newMemMedium(now func() time.Time) *memMedium {
	return &memMedium{now: now, files: make(map[string]memFile)}
}

func (m *memMedium) MkdirAll(dir string) error { return nil }

func (m *memMedium) Exists(path string) (bool, error) {
	_, ok := m.files[path]
	return ok, nil
}

func (m *memMedium) ReadFile(path string) ([]byte, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return f.data, nil
}

func (m *memMedium) WriteFile(path string, data []byte) error {
	m.files[path] = memFile{data: append([]byte(nil), data...), created: m.now()}
	return nil
}

func (m *memMedium) CopyFile(src, dst string) error {
	f, ok := m.files[src]
	if !ok {
		return &os.PathError{Op: "open", Path: src, Err: os.ErrNotExist}
	}
	if _, exists := m.files[dst]; exists {
		return &os.PathError{Op: "open", Path: dst, Err: os.ErrExist}
	}
	m.files[dst] = memFile{data: f.data, created: m.now()}
	return nil
}

func (m *memMedium) List(dir string) ([]Backup, error) {
	var out []Backup
	for path, f := range m.files {
		if filepath.Dir(path) == dir {
			out = append(out, Backup{Name: filepath.Base(path), Path: path, CreatedAt: f.created})
		}
	}
	return out, nil
}

func (m *memMedium) Remove(path string) error {
	delete(m.files, path)
	return nil
}

func TestFlushKeepsNewestBackups(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	medium := newMemMedium(now)

	storage, err := New(&Options{
		DataDir:      "/data",
		InstanceName: "GamblingStats",
		BackupCount:  5,
		Medium:       medium,
		Now:          now,
		Logger:       logging.NewLoggerTo(&strings.Builder{}, logging.ERROR),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	var created []string
	for i := 0; i < 12; i++ {
		before, _ := storage.ListBackups()
		seen := make(map[string]bool, len(before))
		for _, b := range before {
			seen[b.Name] = true
		}

		snap := ledger.Snapshot{Entries: []ledger.Entry{{PlayerID: "1", Stats: entities.PlayerStats{ScrapSpent: int64(i)}}}}
		if err := storage.Flush(ctx, snap); err != nil {
			t.Fatalf("flush %d: %v", i, err)
		}

		after, _ := storage.ListBackups()
		for _, b := range after {
			if !seen[b.Name] {
				created = append(created, b.Name)
			}
		}
	}

	backups, err := storage.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 5 {
		t.Fatalf("expected 5 backups, got %d", len(backups))
	}
	if len(created) != 11 {
		t.Fatalf("expected 11 backups to have been created, got %d", len(created))
	}

	want := created[len(created)-5:]
	for i, b := range backups {
		if b.Name != want[len(want)-1-i] {
			t.Errorf("backup %d: expected %s, got %s", i, want[len(want)-1-i], b.Name)
		}
	}
}

func TestPruneLeavesOtherInstancesAlone(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	medium := newMemMedium(now)

	// Another instance shares the backup directory and its name extends ours
	foreign := []string{
		"/data/backups/GamblingStats_eu_2023-12-01_00-00-00_0a1b2c3d.json",
		"/data/backups/GamblingStats_eu_2023-12-02_00-00-00_0a1b2c3e.json",
		"/data/backups/GamblingStats_notes.json",
		"/data/backups/GamblingStats_2023-12-03_00-00-00_NOTHEX!!.json",
	}
	for _, path := range foreign {
		medium.files[path] = memFile{data: []byte("{}"), created: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	}

	storage, err := New(&Options{
		DataDir:      "/data",
		InstanceName: "GamblingStats",
		BackupCount:  1,
		Medium:       medium,
		Now:          now,
		Logger:       logging.NewLoggerTo(&strings.Builder{}, logging.ERROR),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		snap := ledger.Snapshot{Entries: []ledger.Entry{{PlayerID: "1", Stats: entities.PlayerStats{ScrapSpent: int64(i)}}}}
		if err := storage.Flush(ctx, snap); err != nil {
			t.Fatalf("flush %d: %v", i, err)
		}
	}

	for _, path := range foreign {
		if _, ok := medium.files[path]; !ok {
			t.Errorf("%s was pruned but does not belong to this instance", path)
		}
	}

	backups, err := storage.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup of our own, got %d: %v", len(backups), backups)
	}
	if !strings.HasPrefix(backups[0].Name, "GamblingStats_2024-01-01_") {
		t.Errorf("unexpected backup %s", backups[0].Name)
	}
}
