package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/internal/authz"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/pagination"
	"github.com/freightline/freightline-backend/pkg/storage"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service stores, lists, and soft-deletes evidence items.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.EvidenceItem, error)
	List(ctx context.Context, jobID uuid.UUID, filters Filters, page pagination.Params) (*List, error)
	SoftDelete(ctx context.Context, itemID uuid.UUID, actorID uuid.UUID) error
}

// SubmitInput captures one evidence submission. Exactly one of Data or
// FileRef carries the file: Data for server-side uploads (the signature
// producer), FileRef when the client already placed the object in the
// store. Both are empty for kind=note.
type SubmitInput struct {
	JobID        uuid.UUID
	Kind         enums.EvidenceKind
	Phase        enums.EvidencePhase
	FileName     string
	Data         []byte
	FileRef      string
	FileSize     int64
	MediaType    string
	ActorID      uuid.UUID
	ReceiverName *string
	// ReceiverSignatureRef is the object key of a signature artifact the
	// client uploaded alongside this item.
	ReceiverSignatureRef *string
	Note                 *string
}

// List groups one page of a job's active items. NextCursor is empty on the
// final page.
type List struct {
	Items      []models.EvidenceItem                         `json:"items"`
	ByPhase    map[enums.EvidencePhase][]models.EvidenceItem `json:"by_phase"`
	NextCursor string                                        `json:"next_cursor,omitempty"`
}

type service struct {
	repo     Repository
	tx       txRunner
	guard    authz.Guard
	store    storage.ObjectStore
	maxBytes int64
}

// NewService builds an evidence service with the required dependencies.
func NewService(repo Repository, tx txRunner, guard authz.Guard, store storage.ObjectStore, maxBytes int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("evidence repository required")
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
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &service{repo: repo, tx: tx, guard: guard, store: store, maxBytes: maxBytes}, nil
}

var extensionByMediaType = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.EvidenceItem, error) {
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown evidence kind %q", input.Kind))
	}
	if !input.Phase.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown evidence phase %q", input.Phase))
	}

	job, err := s.repo.FindJob(ctx, input.JobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	if err := s.guard.CanAct(ctx, input.ActorID, job, enums.ActionUploadEvidence); err != nil {
		return nil, err
	}

	if !PhaseOpen(job.CurrentStatus, input.Phase) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPhase,
			fmt.Sprintf("phase %s is not open while the job is %s", input.Phase, job.CurrentStatus)).
			WithDetails(map[string]any{"phase": input.Phase, "status": job.CurrentStatus})
	}

	item := &models.EvidenceItem{
		ID:           uuid.New(),
		JobID:        job.ID,
		Kind:         input.Kind,
		Phase:        input.Phase,
		UploaderID:   &input.ActorID,
		ReceiverName: input.ReceiverName,
		Note:         input.Note,
	}
	if input.ReceiverSignatureRef != nil && strings.TrimSpace(*input.ReceiverSignatureRef) != "" {
		item.ReceiverSignatureKey = input.ReceiverSignatureRef
	}

	switch {
	case input.Kind == enums.EvidenceKindNote:
		if input.Note == nil || strings.TrimSpace(*input.Note) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "note text required")
		}
		item.MediaType = "text/plain"

	case len(input.Data) > 0:
		mediaType, err := validateFile(input.FileName, input.Data, s.maxBytes)
		if err != nil {
			return nil, err
		}

		item.FileName = input.FileName
		item.SizeBytes = int64(len(input.Data))
		item.MediaType = mediaType
		item.ObjectKey = fmt.Sprintf("jobs/%s/evidence/%s%s", job.ID, item.ID, extensionByMediaType[mediaType])

		// Upload before the metadata write. If the write below fails the
		// object stays orphaned and unlisted, which is acceptable.
		if err := s.store.Put(ctx, item.ObjectKey, mediaType, input.Data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload evidence file")
		}

	case input.FileRef != "":
		mediaType, err := validateDeclared(input.FileName, input.MediaType, input.FileSize, s.maxBytes)
		if err != nil {
			return nil, err
		}

		item.FileName = input.FileName
		item.SizeBytes = input.FileSize
		item.MediaType = mediaType
		item.ObjectKey = input.FileRef

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content or file_ref required")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateEvidenceItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist evidence item")
		}
		if column, flip := flagToFlip(job, input.Phase); flip {
			if err := repo.SetJobEvidenceFlag(ctx, job.ID, column); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flip evidence flag")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	item.CreatedAt = time.Now().UTC()
	return item, nil
}

func flagToFlip(job *models.Job, phase enums.EvidencePhase) (string, bool) {
	switch {
	case phase == enums.EvidencePhasePickup && !job.HasPickupEvidence:
		return ColumnHasPickupEvidence, true
	case phase == enums.EvidencePhaseDelivery && !job.HasDeliveryEvidence:
		return ColumnHasDeliveryEvidence, true
	default:
		return "", false
	}
}

func (s *service) List(ctx context.Context, jobID uuid.UUID, filters Filters, page pagination.Params) (*List, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	if filters.Phase != nil && !filters.Phase.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown evidence phase %q", *filters.Phase))
	}
	if filters.Kind != nil && !filters.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown evidence kind %q", *filters.Kind))
	}
	if _, err := pagination.Decode(page.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	if _, err := s.repo.FindJob(ctx, jobID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	items, next, err := s.repo.ListActiveEvidence(ctx, jobID, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list evidence")
	}

	byPhase := make(map[enums.EvidencePhase][]models.EvidenceItem)
	for _, item := range items {
		byPhase[item.Phase] = append(byPhase[item.Phase], item)
	}
	list := &List{Items: items, ByPhase: byPhase}
	if next != nil {
		list.NextCursor = next.Encode()
	}
	return list, nil
}

func (s *service) SoftDelete(ctx context.Context, itemID uuid.UUID, actorID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "evidence item id required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	item, err := s.repo.FindEvidenceItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "evidence item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load evidence item")
	}
	if item.DeletedAt != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "evidence item not found")
	}

	job, err := s.repo.FindJob(ctx, item.JobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	// The uploader may always remove their own item; everyone else goes
	// through the resolver.
	if item.UploaderID == nil || *item.UploaderID != actorID {
		if err := s.guard.CanAct(ctx, actorID, job, enums.ActionDeleteEvidence); err != nil {
			return err
		}
	}

	// The file object is left in place for audit; only the row is marked.
	if err := s.repo.MarkEvidenceDeleted(ctx, itemID, actorID, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete evidence item")
	}
	return nil
}
