package main

import (
	"context"
	"io"
	"testing"

	"github.com/fadedpez/scrapstats/internal/config"
	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/fadedpez/scrapstats/pkg/storage/file"
	storagemock "github.com/fadedpez/scrapstats/pkg/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFileBackend(t *testing.T) *file.Storage {
	opts := file.NewOptions()
	opts.DataDir = t.TempDir()
	opts.Logger = logging.NewLoggerTo(io.Discard, logging.ERROR)
	fs, err := file.New(opts)
	require.NoError(t, err)
	return fs
}

func TestCopyBackend(t *testing.T) {
	ctx := context.Background()
	src := newFileBackend(t)
	dst := newFileBackend(t)

	seed := ledger.New()
	seed.Add("b", entities.FlowSpent, 20)
	seed.Add("a", entities.FlowEarned, 5)
	require.NoError(t, src.InitSchema(ctx))
	require.NoError(t, src.Flush(ctx, seed.Snapshot()))

	n, err := copyBackend(ctx, src, dst)

	require.NoError(t, err)
	assert.Equal(t, 2, n)

	copied, err := dst.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Entry{
		{PlayerID: "a", Stats: entities.PlayerStats{ScrapEarned: 5}},
		{PlayerID: "b", Stats: entities.PlayerStats{ScrapSpent: 20}},
	}, copied)
}

func TestCopyBackendTargetFailure(t *testing.T) {
	ctx := context.Background()
	src := newFileBackend(t)
	dst := storagemock.New()
	dst.On("Name").Return("mysql")
	dst.On("InitSchema", mock.Anything).Return(assert.AnError)

	_, err := copyBackend(ctx, src, dst)

	assert.ErrorIs(t, err, assert.AnError)
	dst.AssertNotCalled(t, "Flush", mock.Anything, mock.Anything)
}

func TestCopyStatsRejectsSameMethod(t *testing.T) {
	_, err := copyStats(context.Background(), config.New(), "internal", "JSON", nil)

	assert.Error(t, err)
}
