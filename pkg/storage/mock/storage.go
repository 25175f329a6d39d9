package mock

import (
	"context"

	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/stretchr/testify/mock"
)

// Backend is a mock implementation of storage.Backend
type Backend struct {
	mock.Mock
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	args := b.Called()
	return args.String(0)
}

func (b *Backend) InitSchema(ctx context.Context) error {
	args := b.Called(ctx)
	return args.Error(0)
}

func (b *Backend) Load(ctx context.Context) ([]ledger.Entry, error) {
	args := b.Called(ctx)
	if entries, ok := args.Get(0).([]ledger.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (b *Backend) Flush(ctx context.Context, snapshot ledger.Snapshot) error {
	args := b.Called(ctx, snapshot)
	return args.Error(0)
}

func (b *Backend) Close() error {
	args := b.Called()
	return args.Error(0)
}
