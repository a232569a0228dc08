package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

type stubAuthzRepo struct {
	accounts     map[uuid.UUID]*models.UserAccount
	companyAdmin map[uuid.UUID]uuid.UUID
}

func (s *stubAuthzRepo) FindUserAccount(_ context.Context, id uuid.UUID) (*models.UserAccount, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (s *stubAuthzRepo) FindCompanyAdminID(_ context.Context, companyID uuid.UUID) (uuid.UUID, error) {
	adminID, ok := s.companyAdmin[companyID]
	if !ok {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return adminID, nil
}

func TestCanActResolutionMatrix(t *testing.T) {
	platformAdmin := uuid.New()
	operator := uuid.New()
	companyAdmin := uuid.New()
	stranger := uuid.New()
	companyID := uuid.New()

	repo := &stubAuthzRepo{
		accounts: map[uuid.UUID]*models.UserAccount{
			platformAdmin: {ID: platformAdmin, PlatformRole: enums.PlatformRoleAdmin},
			operator:      {ID: operator, PlatformRole: enums.PlatformRoleMember},
			companyAdmin:  {ID: companyAdmin, PlatformRole: enums.PlatformRoleMember},
			stranger:      {ID: stranger, PlatformRole: enums.PlatformRoleMember},
		},
		companyAdmin: map[uuid.UUID]uuid.UUID{companyID: companyAdmin},
	}

	guard, err := NewGuard(repo)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	job := &models.Job{
		ID:                 uuid.New(),
		PostingCompanyID:   companyID,
		AssignedOperatorID: &operator,
	}

	cases := []struct {
		name     string
		actor    uuid.UUID
		action   enums.GuardedAction
		wantCode pkgerrors.Code
		allowed  bool
	}{
		{name: "platform admin transitions", actor: platformAdmin, action: enums.ActionTransition, allowed: true},
		{name: "platform admin deletes evidence", actor: platformAdmin, action: enums.ActionDeleteEvidence, allowed: true},
		{name: "operator transitions own job", actor: operator, action: enums.ActionTransition, allowed: true},
		{name: "operator uploads evidence", actor: operator, action: enums.ActionUploadEvidence, allowed: true},
		{name: "operator deletes evidence", actor: operator, action: enums.ActionDeleteEvidence, allowed: true},
		{name: "company admin downloads pod", actor: companyAdmin, action: enums.ActionDownloadPOD, allowed: true},
		{name: "company admin uploads evidence", actor: companyAdmin, action: enums.ActionUploadEvidence, allowed: true},
		{name: "company admin cannot transition", actor: companyAdmin, action: enums.ActionTransition, wantCode: pkgerrors.CodeForbidden},
		{name: "company admin cannot delete evidence", actor: companyAdmin, action: enums.ActionDeleteEvidence, wantCode: pkgerrors.CodeForbidden},
		{name: "stranger denied", actor: stranger, action: enums.ActionUploadEvidence, wantCode: pkgerrors.CodeForbidden},
		{name: "unknown actor unauthorized", actor: uuid.New(), action: enums.ActionTransition, wantCode: pkgerrors.CodeUnauthorized},
		{name: "nil actor unauthorized", actor: uuid.Nil, action: enums.ActionTransition, wantCode: pkgerrors.CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := guard.CanAct(context.Background(), tc.actor, job, tc.action)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, tc.wantCode) {
				t.Fatalf("expected code %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestCanActUnassignedJob(t *testing.T) {
	member := uuid.New()
	companyID := uuid.New()
	repo := &stubAuthzRepo{
		accounts: map[uuid.UUID]*models.UserAccount{
			member: {ID: member, PlatformRole: enums.PlatformRoleMember},
		},
		companyAdmin: map[uuid.UUID]uuid.UUID{companyID: uuid.New()},
	}

	guard, err := NewGuard(repo)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	job := &models.Job{ID: uuid.New(), PostingCompanyID: companyID}
	if err := guard.CanAct(context.Background(), member, job, enums.ActionTransition); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for unassigned job, got %v", err)
	}
}

func TestCanActRejectsUnknownAction(t *testing.T) {
	actorID := uuid.New()
	repo := &stubAuthzRepo{
		accounts: map[uuid.UUID]*models.UserAccount{
			actorID: {ID: actorID, PlatformRole: enums.PlatformRoleAdmin},
		},
	}
	guard, err := NewGuard(repo)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	job := &models.Job{ID: uuid.New(), PostingCompanyID: uuid.New()}
	if err := guard.CanAct(context.Background(), actorID, job, "everything"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
