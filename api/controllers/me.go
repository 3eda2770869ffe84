package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/middleware"
	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/internal/actors"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type meManagerResponse struct {
	ID        uuid.UUID         `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name,omitempty"`
	Role      enums.ManagerRole `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
}

type meCompanyResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Currency             string          `json:"currency"`
	CashBalance          decimal.Decimal `json:"cash_balance"`
	UsdBalance           decimal.Decimal `json:"usd_balance"`
	RemainWeight         decimal.Decimal `json:"remain_weight"`
	TotalWeightExpedited decimal.Decimal `json:"total_weight_expedited"`
}

type meResponse struct {
	Manager meManagerResponse `json:"manager"`
	Company meCompanyResponse `json:"company"`
}

// Me resolves the caller's manager record and company balance snapshot.
func Me(svc actors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		managerID := middleware.ManagerIDFromContext(r.Context())
		if managerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "manager context missing"))
			return
		}

		act, err := svc.Resolve(r.Context(), managerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, meResponse{
			Manager: meManagerResponse{
				ID:        act.Manager.ID,
				Email:     act.Manager.Email,
				Name:      act.Manager.Name,
				Role:      act.Manager.Role,
				CreatedAt: act.Manager.CreatedAt,
			},
			Company: meCompanyResponse{
				ID:                   act.Company.ID,
				Name:                 act.Company.Name,
				Currency:             act.Company.Currency,
				CashBalance:          act.Company.CashBalance,
				UsdBalance:           act.Company.UsdBalance,
				RemainWeight:         act.Company.RemainWeight,
				TotalWeightExpedited: act.Company.TotalWeightExpedited,
			},
		})
	}
}
