package mergeops

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scottgpt/career-cli/internal/merge"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/resilience"
)

// PositionStore is the slice of position persistence a merge needs.
type PositionStore interface {
	merge.Lookup
	UpdatePosition(ctx context.Context, p model.Position, mergeSourceID string) error
	DeletePosition(ctx context.Context, id string) error
}

// Service previews merges and applies confirmed ones asynchronously.
type Service struct {
	engine    *merge.Engine
	positions PositionStore
	statuses  StatusStore
	retry     resilience.RetryConfig
	now       func() time.Time
	sem       chan struct{}
	wg        sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for operation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetry sets the retry policy for store writes.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// NewService creates a Service running at most workers merges at once.
func NewService(engine *merge.Engine, positions PositionStore, statuses StatusStore, workers int, opts ...Option) *Service {
	if workers <= 0 {
		workers = 1
	}
	s := &Service{
		engine:    engine,
		positions: positions,
		statuses:  statuses,
		retry:     resilience.DefaultRetryConfig(),
		now:       func() time.Time { return time.Now().UTC() },
		sem:       make(chan struct{}, workers),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview computes the merge of the requested records without persisting anything.
func (s *Service) Preview(ctx context.Context, req merge.Request) (*merge.MergeResult, error) {
	return s.engine.MergeByID(ctx, s.positions, req)
}

// Start validates the request, records a pending operation and applies the
// merge in the background. Validation and missing-record errors are returned
// before any operation exists.
func (s *Service) Start(ctx context.Context, req merge.Request) (*Operation, error) {
	if _, err := s.engine.MergeByID(ctx, s.positions, req); err != nil {
		return nil, err
	}

	now := s.now()
	op := Operation{
		ID:        uuid.New().String(),
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		Status:    StatusPending,
		Confirmed: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.statuses.SaveMergeOperation(ctx, op); err != nil {
		return nil, eris.Wrap(err, "mergeops: save operation")
	}

	zap.L().Info("merge operation queued",
		zap.String("merge_id", op.ID),
		zap.String("source_id", op.SourceID),
		zap.String("target_id", op.TargetID),
	)

	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), op, req)

	return &op, nil
}

func (s *Service) run(ctx context.Context, op Operation, req merge.Request) {
	defer s.wg.Done()

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	log := zap.L().With(zap.String("merge_id", op.ID))

	op.Status = StatusRunning
	op.UpdatedAt = s.now()
	if err := s.statuses.SaveMergeOperation(ctx, op); err != nil {
		log.Error("mergeops: mark running", zap.Error(err))
	}

	res, err := s.apply(ctx, req)
	op.UpdatedAt = s.now()
	if err != nil {
		op.Status = StatusFailed
		op.Error = err.Error()
		log.Error("merge operation failed", zap.Error(err))
	} else {
		op.Status = StatusCompleted
		op.Result = res
		log.Info("merge operation completed",
			zap.String("grade", string(res.Quality.Grade)),
			zap.Float64("quality", res.Quality.Score),
		)
	}

	if err := s.statuses.SaveMergeOperation(ctx, op); err != nil {
		log.Error("mergeops: record outcome", zap.Error(err))
	}
}

// apply recomputes the merge against current store contents, writes the merged
// record onto the target and removes the source.
func (s *Service) apply(ctx context.Context, req merge.Request) (*merge.MergeResult, error) {
	res, err := s.engine.MergeByID(ctx, s.positions, req)
	if err != nil {
		return nil, err
	}

	retry := s.retry
	retry.OnRetry = resilience.RetryLogger("mergeops", "update target")
	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		return s.positions.UpdatePosition(ctx, res.MergedData.Position, res.MergedData.MergeSourceID)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "mergeops: update target %s", res.TargetID)
	}

	retry.OnRetry = resilience.RetryLogger("mergeops", "delete source")
	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		return s.positions.DeletePosition(ctx, res.SourceID)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "mergeops: delete source %s", res.SourceID)
	}
	return res, nil
}

// Status returns the operation with the given id.
func (s *Service) Status(ctx context.Context, id string) (*Operation, error) {
	op, err := s.statuses.GetMergeOperation(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "mergeops: get operation %s", id)
	}
	if op == nil {
		return nil, model.NewNotFoundError("merge operation", id)
	}
	return op, nil
}

// Forget removes a finished or abandoned operation record.
func (s *Service) Forget(ctx context.Context, id string) error {
	ok, err := s.statuses.DeleteMergeOperation(ctx, id)
	if err != nil {
		return eris.Wrapf(err, "mergeops: delete operation %s", id)
	}
	if !ok {
		return model.NewNotFoundError("merge operation", id)
	}
	return nil
}

// Wait blocks until every started operation has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
