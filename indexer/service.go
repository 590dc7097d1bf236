package indexer

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// SyncerService runs a BlockSyncer under the process runtime: it starts the
// sync and blocks until cancellation or a fatal syncer error. Close is safe
// to call more than once, the underlying syncer guards that.
type SyncerService struct {
	name   string
	syncer BlockSyncer
	logger hclog.Logger
}

func NewSyncerService(name string, syncer BlockSyncer, logger hclog.Logger) *SyncerService {
	return &SyncerService{
		name:   name,
		syncer: syncer,
		logger: logger,
	}
}

func (s *SyncerService) Name() string {
	return s.name
}

func (s *SyncerService) Start(ctx context.Context) error {
	if err := s.syncer.Sync(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		s.logger.Info("Syncer service cancelled", "name", s.name)

		return nil
	case err := <-s.syncer.ErrorCh():
		return err
	}
}

func (s *SyncerService) Close() error {
	return s.syncer.Close()
}
