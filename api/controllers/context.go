package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Bbt3-alx/akera-backend/api/middleware"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	pkgpagination "github.com/Bbt3-alx/akera-backend/pkg/pagination"
)

// actor is the (manager, company) pair every ledger endpoint operates as.
type actor struct {
	ManagerID uuid.UUID
	CompanyID uuid.UUID
}

func actorFromRequest(r *http.Request) (actor, error) {
	managerID := middleware.ManagerIDFromContext(r.Context())
	if managerID == uuid.Nil {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "manager context missing")
	}
	companyID := middleware.CompanyIDFromContext(r.Context())
	if companyID == uuid.Nil {
		return actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	return actor{ManagerID: managerID, CompanyID: companyID}, nil
}

func paginationFromRequest(r *http.Request) (pkgpagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pkgpagination.MaxLimit)
	if err != nil {
		return pkgpagination.Params{}, err
	}
	return pkgpagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}
