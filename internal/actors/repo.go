package actors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
)

// Repository loads the identities behind authenticated requests.
type Repository interface {
	FindManagerByID(ctx context.Context, id uuid.UUID) (*models.Manager, error)
	FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an actor repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindManagerByID(ctx context.Context, id uuid.UUID) (*models.Manager, error) {
	var manager models.Manager
	if err := r.db.WithContext(ctx).First(&manager, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &manager, nil
}

func (r *repository) FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
