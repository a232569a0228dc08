package pod

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
	"github.com/freightline/freightline-backend/pkg/redis"
	"github.com/freightline/freightline-backend/pkg/storage"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service generates and serves proof-of-delivery documents.
type Service interface {
	Generate(ctx context.Context, jobID uuid.UUID, actorID uuid.UUID) (*models.PodDocument, error)
	Latest(ctx context.Context, jobID uuid.UUID, actorID uuid.UUID) (*LatestResult, error)
}

// LatestResult pairs the newest document row with a time-limited download
// URL for its artifact.
type LatestResult struct {
	Document    *models.PodDocument `json:"document"`
	DownloadURL string              `json:"download_url"`
}

// Config carries the generation tunables.
type Config struct {
	GenerateLockTTL   time.Duration
	DownloadURLExpiry time.Duration
}

type service struct {
	repo    Repository
	tx      txRunner
	guard   authz.Guard
	store   storage.ObjectStore
	locker  redis.Locker
	metrics *metrics.LifecycleMetrics
	cfg     Config
}

// NewService builds a pod service with the required dependencies.
func NewService(repo Repository, tx txRunner, guard authz.Guard, store storage.ObjectStore, locker redis.Locker, m *metrics.LifecycleMetrics, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pod repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("authorization guard required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if cfg.GenerateLockTTL <= 0 {
		cfg.GenerateLockTTL = 30 * time.Second
	}
	if cfg.DownloadURLExpiry <= 0 {
		cfg.DownloadURLExpiry = 15 * time.Minute
	}
	return &service{repo: repo, tx: tx, guard: guard, store: store, locker: locker, metrics: m, cfg: cfg}, nil
}

func (s *service) Generate(ctx context.Context, jobID uuid.UUID, actorID uuid.UUID) (*models.PodDocument, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	started := time.Now()

	job, err := s.repo.FindJob(ctx, jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	if err := s.guard.CanAct(ctx, actorID, job, enums.ActionGeneratePOD); err != nil {
		return nil, err
	}

	count, err := s.repo.CountActiveEvidence(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count evidence")
	}
	if count == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoEvidence, "job has no active evidence")
	}

	// One generation per job at a time. Losers fail fast and may retry.
	lockScope := "pod:generate:" + jobID.String()
	acquired, err := s.locker.TryLock(ctx, lockScope, s.cfg.GenerateLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire generation lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModify, "a generation for this job is already running")
	}
	defer func() { _ = s.locker.Unlock(context.WithoutCancel(ctx), lockScope) }()

	doc, err := s.generateLocked(ctx, job)
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePodGeneration(time.Since(started))
	return doc, nil
}

func (s *service) generateLocked(ctx context.Context, job *models.Job) (*models.PodDocument, error) {
	company, err := s.repo.FindCompany(ctx, job.PostingCompanyID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load posting company")
	}

	events, err := s.repo.ListStatusEvents(ctx, job.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}

	items, err := s.repo.ListActiveEvidence(ctx, job.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load evidence")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoEvidence, "job has no active evidence")
	}

	files := make(map[string][]byte)
	for _, item := range items {
		if item.Kind == enums.EvidenceKindNote || item.MediaType == "application/pdf" {
			continue
		}
		data, _, err := s.store.Get(ctx, item.ObjectKey)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch evidence file")
		}
		files[item.ObjectKey] = data
	}

	maxVersion, err := s.repo.MaxDocumentVersion(ctx, job.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read document version")
	}
	version := maxVersion + 1
	generatedAt := time.Now().UTC()

	artifact, pageCount, err := render(renderInput{
		Job:         job,
		Company:     company,
		Events:      events,
		Evidence:    items,
		Files:       files,
		Version:     version,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		return nil, err
	}

	doc := &models.PodDocument{
		ID:          uuid.New(),
		JobID:       job.ID,
		Version:     version,
		ObjectKey:   fmt.Sprintf("jobs/%s/pod/%s-v%d.html", job.ID, job.ReferenceNumber, version),
		PageCount:   pageCount,
		GeneratedAt: generatedAt,
		IsLatest:    true,
	}

	if err := s.store.Put(ctx, doc.ObjectKey, "text/html; charset=utf-8", artifact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload document")
	}

	// Demotion and insert share one transaction so at most one row per job
	// carries is_latest. The partial unique index backstops the redis lock:
	// if another writer slips through, its insert collides here.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DemoteLatestDocument(ctx, job.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "demote previous latest")
		}
		if err := repo.CreateDocument(ctx, doc); err != nil {
			if pkgerrors.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConcurrentModify, "another generation finished first")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist document")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) Latest(ctx context.Context, jobID uuid.UUID, actorID uuid.UUID) (*LatestResult, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}

	job, err := s.repo.FindJob(ctx, jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	if err := s.guard.CanAct(ctx, actorID, job, enums.ActionDownloadPOD); err != nil {
		return nil, err
	}

	doc, err := s.repo.FindLatestDocument(ctx, jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no document generated yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest document")
	}

	url, err := s.store.SignedURL(ctx, doc.ObjectKey, s.cfg.DownloadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return &LatestResult{Document: doc, DownloadURL: url}, nil
}
