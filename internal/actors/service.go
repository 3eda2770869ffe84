package actors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
)

// Actor is the resolved request context every mutating operation runs under.
// Downstream code consumes this pair, never the raw token claims, so a
// request can only ever touch its own company's ledger.
type Actor struct {
	Manager *models.Manager
	Company *models.Company
}

// Service resolves authenticated identities into ledger actors.
type Service interface {
	Resolve(ctx context.Context, managerID uuid.UUID) (*Actor, error)
}

type service struct {
	repo Repository
}

// NewService wires an actor resolver with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("actors repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Resolve(ctx context.Context, managerID uuid.UUID) (*Actor, error) {
	if managerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "manager identity missing")
	}

	manager, err := s.repo.FindManagerByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown manager")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager")
	}
	if manager.CompanyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "manager has no linked company")
	}

	company, err := s.repo.FindCompanyByID(ctx, *manager.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "linked company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}

	return &Actor{Manager: manager, Company: company}, nil
}
