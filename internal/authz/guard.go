// Package authz holds the single authorization resolver every job-scoped
// operation consults. Role logic lives here and nowhere else.
package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

// Guard resolves whether an actor may perform an action on a job.
type Guard interface {
	// CanAct returns nil when the action is permitted. It returns an
	// UNAUTHORIZED error for unknown actors and FORBIDDEN for known actors
	// without sufficient rights.
	CanAct(ctx context.Context, actorID uuid.UUID, job *models.Job, action enums.GuardedAction) error
}

type guard struct {
	repo Repository
}

// NewGuard builds the resolver with the required lookups.
func NewGuard(repo Repository) (Guard, error) {
	if repo == nil {
		return nil, fmt.Errorf("authz repository required")
	}
	return &guard{repo: repo}, nil
}

// CanAct applies the resolution order: platform administrator, then the
// job's assigned operator, then the posting company's administrator. The
// company administrator may not drive the status machine, which is the
// operator's act, and may not delete evidence: removal is reserved for the
// uploader, the operator and platform administrators.
func (g *guard) CanAct(ctx context.Context, actorID uuid.UUID, job *models.Job, action enums.GuardedAction) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if job == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "job required")
	}
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", action))
	}

	actor, err := g.repo.FindUserAccount(ctx, actorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor")
	}

	if actor.PlatformRole == enums.PlatformRoleAdmin {
		return nil
	}

	if job.AssignedOperatorID != nil && *job.AssignedOperatorID == actorID {
		return nil
	}

	adminID, err := g.repo.FindCompanyAdminID(ctx, job.PostingCompanyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeForbidden, "actor may not act on this job")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load posting company")
	}
	if adminID == actorID {
		switch action {
		case enums.ActionTransition:
			return pkgerrors.New(pkgerrors.CodeForbidden, "status transitions are reserved for the assigned operator")
		case enums.ActionDeleteEvidence:
			return pkgerrors.New(pkgerrors.CodeForbidden, "evidence removal is reserved for the uploader, the assigned operator or a platform administrator")
		}
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeForbidden, "actor may not act on this job")
}
