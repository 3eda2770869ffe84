package actors

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
)

type fakeRepository struct {
	managers  map[uuid.UUID]*models.Manager
	companies map[uuid.UUID]*models.Company
}

func (f *fakeRepository) FindManagerByID(ctx context.Context, id uuid.UUID) (*models.Manager, error) {
	if m, ok := f.managers[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if c, ok := f.companies[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestService_ResolveReturnsManagerAndCompany(t *testing.T) {
	companyID := uuid.New()
	managerID := uuid.New()
	repo := &fakeRepository{
		managers: map[uuid.UUID]*models.Manager{
			managerID: {ID: managerID, Email: "boss@akera.test", CompanyID: &companyID},
		},
		companies: map[uuid.UUID]*models.Company{
			companyID: {ID: companyID, Name: "Akera Gold"},
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	actor, err := svc.Resolve(context.Background(), managerID)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if actor.Manager.ID != managerID {
		t.Fatalf("unexpected manager: %v", actor.Manager.ID)
	}
	if actor.Company.ID != companyID {
		t.Fatalf("unexpected company: %v", actor.Company.ID)
	}
}

func TestService_ResolveFailsClosed(t *testing.T) {
	orphanID := uuid.New()
	repo := &fakeRepository{
		managers: map[uuid.UUID]*models.Manager{
			orphanID: {ID: orphanID, Email: "orphan@akera.test"},
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name      string
		managerID uuid.UUID
	}{
		{name: "nil manager id", managerID: uuid.Nil},
		{name: "unknown manager", managerID: uuid.New()},
		{name: "manager without company", managerID: orphanID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), tc.managerID)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr := pkgerrors.As(err)
			if appErr == nil {
				t.Fatalf("expected typed error, got %v", err)
			}
			if appErr.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %s", appErr.Code())
			}
		})
	}
}
