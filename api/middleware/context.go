package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxManagerID contextKey = "manager_id"
	ctxCompanyID contextKey = "company_id"
	ctxRole      contextKey = "actor_role"
)

func ManagerIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxManagerID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func CompanyIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxCompanyID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithManagerID injects the manager identifier into the context.
func WithManagerID(ctx context.Context, managerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxManagerID, managerID)
}

// WithCompanyID injects the company identifier into the context for
// downstream handlers.
func WithCompanyID(ctx context.Context, companyID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCompanyID, companyID)
}
