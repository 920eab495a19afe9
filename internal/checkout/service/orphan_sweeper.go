package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/infrastructure/blob"
)

const sweepBatchSize = 100

type OrphanRepository interface {
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.OrphanBlob, error)
	Remove(ctx context.Context, id string) error
}

type ScreenshotReferences interface {
	ExistsByScreenshotKey(ctx context.Context, key string) (bool, error)
}

type BlobDeleter interface {
	Delete(ctx context.Context, bucket, key string) error
}

// OrphanSweeper removes uploaded screenshots that never made it into an
// order, once they are old enough that no submission can still claim them.
type OrphanSweeper struct {
	orphans OrphanRepository
	refs    ScreenshotReferences
	blobs   BlobDeleter
	minAge  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewOrphanSweeper(
	orphans OrphanRepository,
	refs ScreenshotReferences,
	blobs BlobDeleter,
	minAge time.Duration,
	logger *zap.Logger,
) *OrphanSweeper {
	return &OrphanSweeper{
		orphans: orphans,
		refs:    refs,
		blobs:   blobs,
		minAge:  minAge,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Sweep handles one batch and returns how many objects it deleted. An
// object that an order still references only loses its orphan record.
func (s *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	candidates, err := s.orphans.ListOlderThan(ctx, s.now().Add(-s.minAge), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, o := range candidates {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		logger := s.logger.With(zap.String("bucket", o.Bucket), zap.String("key", o.Key))

		if o.Bucket == blob.BucketPaymentScreenshots {
			referenced, err := s.refs.ExistsByScreenshotKey(ctx, o.Key)
			if err != nil {
				logger.Warn("failed to check screenshot reference", zap.Error(err))
				continue
			}
			if referenced {
				logger.Info("orphan candidate is referenced by an order, keeping it")
				if err := s.orphans.Remove(ctx, o.ID); err != nil {
					logger.Warn("failed to drop orphan record", zap.Error(err))
				}
				continue
			}
		}

		if err := s.blobs.Delete(ctx, o.Bucket, o.Key); err != nil {
			logger.Warn("failed to delete orphan blob", zap.Error(err))
			continue
		}
		if err := s.orphans.Remove(ctx, o.ID); err != nil {
			logger.Warn("failed to drop orphan record", zap.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("orphan sweep finished", zap.Int("deleted", deleted), zap.Int("candidates", len(candidates)))
	}
	return deleted, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *OrphanSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("orphan sweep failed", zap.Error(err))
			}
		}
	}
}
