package directory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/storage/file"
	"github.com/stretchr/testify/suite"
)

type FileTestSuite struct {
	suite.Suite
	path   string
	logger *logging.Logger
	ctx    context.Context
}

func TestFileSuite(t *testing.T) {
	suite.Run(t, new(FileTestSuite))
}

func (s *FileTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "data", "GamblingStats_players.json")
	s.logger = logging.NewLoggerTo(&strings.Builder{}, logging.ERROR)
	s.ctx = context.Background()
}

func (s *FileTestSuite) open() *File {
	f := NewFile(s.path, file.OSMedium{}, s.logger)
	s.Require().NoError(f.Load(s.ctx))
	return f
}

func (s *FileTestSuite) TestMissingFileIsEmpty() {
	f := s.open()

	s.Equal(0, f.Len())
	s.NoError(f.SaveIfDirty(s.ctx))
	s.NoFileExists(s.path, "Nothing to save yet")
}

func (s *FileTestSuite) TestSurvivesRestart() {
	// Setup
	f := s.open()
	f.Register(Player{ID: "76561198000000001", Name: "Rusty"})
	f.Register(Player{ID: "76561198000000002"})
	f.Link("111", "76561198000000001")

	// Execute
	s.Require().NoError(f.SaveIfDirty(s.ctx))
	reopened := s.open()

	// Assert
	p, ok := reopened.FindByNameOrID("rusty")
	s.True(ok)
	s.Equal("76561198000000001", p.ID)
	_, ok = reopened.FindByID("76561198000000002")
	s.True(ok)
	id, ok := reopened.LinkedPlayer("111")
	s.True(ok)
	s.Equal("76561198000000001", id)
}

func (s *FileTestSuite) TestSaveOnlyWhenChanged() {
	f := s.open()
	f.Register(Player{ID: "1", Name: "Alice"})
	s.Require().NoError(f.SaveIfDirty(s.ctx))

	s.Require().NoError(os.Remove(s.path))
	s.NoError(f.SaveIfDirty(s.ctx))
	s.NoFileExists(s.path, "An unchanged directory is not rewritten")

	f.Register(Player{ID: "1", Name: "Alicia"})
	s.NoError(f.SaveIfDirty(s.ctx))
	s.FileExists(s.path)
}

func (s *FileTestSuite) TestLoadedStateIsClean() {
	f := s.open()
	f.Register(Player{ID: "1", Name: "Alice"})
	s.Require().NoError(f.SaveIfDirty(s.ctx))

	reopened := s.open()
	s.Require().NoError(os.Remove(s.path))
	s.NoError(reopened.SaveIfDirty(s.ctx))

	s.NoFileExists(s.path)
}

func (s *FileTestSuite) TestUndecodableFile() {
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.path), 0755))
	s.Require().NoError(os.WriteFile(s.path, []byte("{not json"), 0644))

	err := NewFile(s.path, file.OSMedium{}, s.logger).Load(s.ctx)

	s.True(types.IsStatsError(err, types.ErrCorruptSnapshot))
}
