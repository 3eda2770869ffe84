package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	"github.com/Bbt3-alx/akera-backend/internal/shipping"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type shipmentCreateRequest struct {
	BuyOperationID string `json:"buy_operation_id" validate:"required,uuid"`
	TransportRate  string `json:"transport_rate" validate:"omitempty"`
}

type shipmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type shipmentResponse struct {
	ID             uuid.UUID            `json:"id"`
	BuyOperationID uuid.UUID            `json:"buy_operation_id"`
	TotalWeight    decimal.Decimal      `json:"total_weight"`
	TransportRate  decimal.Decimal      `json:"transport_rate"`
	TotalFees      decimal.Decimal      `json:"total_fees"`
	Status         enums.ShippingStatus `json:"status"`
	CanceledAt     *time.Time           `json:"canceled_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func shipmentResponseFromModel(m *models.ShippingOperation) shipmentResponse {
	return shipmentResponse{
		ID:             m.ID,
		BuyOperationID: m.BuyOperationID,
		TotalWeight:    m.TotalWeight,
		TransportRate:  m.TransportRate,
		TotalFees:      m.TotalFees,
		Status:         m.Status,
		CanceledAt:     m.CanceledAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ShipmentCreate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shipmentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyOpID, err := uuid.Parse(payload.BuyOperationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := shipping.CreateInput{
			CompanyID:      act.CompanyID,
			ManagerID:      act.ManagerID,
			BuyOperationID: buyOpID,
		}
		if payload.TransportRate != "" {
			rate, err := validators.ParseDecimalField(payload.TransportRate, "transport_rate")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.TransportRate = &rate
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shipmentResponseFromModel(created))
	}
}

func ShipmentGet(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID, err := validators.ParseUUIDParam(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Get(r.Context(), act.CompanyID, shipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipmentResponseFromModel(shipment))
	}
}

func ShipmentList(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.List(r.Context(), shipping.ListParams{CompanyID: act.CompanyID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]shipmentResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, shipmentResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func ShipmentUpdateStatus(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID, err := validators.ParseUUIDParam(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shipmentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseShippingStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), shipping.UpdateStatusInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			ShipmentID: shipmentID,
			Status:     status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipmentResponseFromModel(updated))
	}
}

func ShipmentCancel(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID, err := validators.ParseUUIDParam(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Cancel(r.Context(), shipping.CancelInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			ShipmentID: shipmentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}
