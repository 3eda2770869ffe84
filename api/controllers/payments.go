package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	"github.com/Bbt3-alx/akera-backend/internal/payments"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type paymentCreateRequest struct {
	OperationID string `json:"operation_id" validate:"required,uuid"`
	Amount      string `json:"amount" validate:"required"`
	Method      string `json:"method" validate:"required"`
}

type paymentResponse struct {
	ID          uuid.UUID           `json:"id"`
	OperationID uuid.UUID           `json:"operation_id"`
	PartnerID   uuid.UUID           `json:"partner_id"`
	Amount      decimal.Decimal     `json:"amount"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Remain      decimal.Decimal     `json:"remain"`
	Method      enums.PaymentMethod `json:"method"`
	CreatedAt   time.Time           `json:"created_at"`
}

func paymentResponseFromModel(m *models.Payment) paymentResponse {
	return paymentResponse{
		ID:          m.ID,
		OperationID: m.OperationID,
		PartnerID:   m.PartnerID,
		Amount:      m.Amount,
		TotalAmount: m.TotalAmount,
		Remain:      m.Remain,
		Method:      m.Method,
		CreatedAt:   m.CreatedAt,
	}
}

func PaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operationID, err := uuid.Parse(payload.OperationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseDecimalField(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		created, err := svc.Create(r.Context(), payments.CreateInput{
			CompanyID:   act.CompanyID,
			ManagerID:   act.ManagerID,
			OperationID: operationID,
			Amount:      amount,
			Method:      method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponseFromModel(created))
	}
}

func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operationID, err := validators.ParseQueryUUID(r, "operation_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), payments.ListParams{
			CompanyID:   act.CompanyID,
			OperationID: operationID,
			Params:      page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]paymentResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, paymentResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func PaymentCancel(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Cancel(r.Context(), payments.CancelInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			PaymentID: paymentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}
