package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/internal/authz"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/metrics"
	"github.com/freightline/freightline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the job status machine and exposes its history.
type Service interface {
	Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error)
	History(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error)
}

// AdvanceInput captures one requested status transition.
type AdvanceInput struct {
	JobID      uuid.UUID
	Target     enums.JobStatus
	ActorID    uuid.UUID
	Note       *string
	Coordinate *types.GeoPoint
}

// AdvanceResult returns the job after the transition plus its full ordered
// history.
type AdvanceResult struct {
	Job     *models.Job
	History []models.JobStatusEvent
}

type service struct {
	repo    Repository
	tx      txRunner
	guard   authz.Guard
	metrics *metrics.LifecycleMetrics
}

// NewService builds a lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, guard authz.Guard, m *metrics.LifecycleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lifecycle repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("authorization guard required")
	}
	return &service{repo: repo, tx: tx, guard: guard, metrics: m}, nil
}

func (s *service) Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error) {
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", input.Target))
	}

	job, err := s.repo.FindJob(ctx, input.JobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	if err := s.guard.CanAct(ctx, input.ActorID, job, enums.ActionTransition); err != nil {
		return nil, err
	}

	observed := job.CurrentStatus
	if !CanTransition(observed, input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", observed, input.Target)).
			WithDetails(map[string]any{
				"from":    observed,
				"to":      input.Target,
				"allowed": AllowedNext(observed),
			})
	}

	now := time.Now().UTC()
	var history []models.JobStatusEvent
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.UpdateJobStatusCAS(ctx, job.ID, observed, input.Target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update job status")
		}
		if rows == 0 {
			// The job existed moments ago, so zero rows means another
			// transition landed between our read and this write.
			s.metrics.IncConflict()
			return pkgerrors.New(pkgerrors.CodeConcurrentModify,
				fmt.Sprintf("job is no longer in status %s", observed))
		}

		event := &models.JobStatusEvent{
			JobID:      job.ID,
			Status:     input.Target,
			OccurredAt: now,
			ActorID:    input.ActorID,
			Note:       input.Note,
			Coordinate: input.Coordinate,
		}
		if err := repo.CreateStatusEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status event")
		}

		history, err = repo.ListStatusEvents(ctx, job.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(input.Target.String())
	job.CurrentStatus = input.Target
	job.UpdatedAt = now
	return &AdvanceResult{Job: job, History: history}, nil
}

func (s *service) History(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}

	if _, err := s.repo.FindJob(ctx, jobID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	events, err := s.repo.ListStatusEvents(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	return events, nil
}
