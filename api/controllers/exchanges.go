package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	"github.com/Bbt3-alx/akera-backend/internal/exchanges"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type exchangeCreateRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Rate       string `json:"rate" validate:"required"`
	AmountUSD  string `json:"amount_usd" validate:"required"`
}

type exchangeUpdateRequest struct {
	Version    int64   `json:"version" validate:"required,min=1"`
	CustomerID *string `json:"customer_id" validate:"omitempty,uuid"`
	Rate       *string `json:"rate"`
	AmountUSD  *string `json:"amount_usd"`
}

type exchangeVersionRequest struct {
	Version int64 `json:"version" validate:"required,min=1"`
}

type exchangeResponse struct {
	ID             uuid.UUID             `json:"id"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	Rate           decimal.Decimal       `json:"rate"`
	AmountUSD      decimal.Decimal       `json:"amount_usd"`
	AmountCFA      decimal.Decimal       `json:"amount_cfa"`
	Status         enums.ExchangeStatus  `json:"status"`
	PreviousStatus *enums.ExchangeStatus `json:"previous_status,omitempty"`
	Version        int64                 `json:"version"`
	Deleted        bool                  `json:"deleted"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func exchangeResponseFromModel(m *models.DollarExchange) exchangeResponse {
	return exchangeResponse{
		ID:             m.ID,
		CustomerID:     m.UsdCustomerID,
		Rate:           m.Rate,
		AmountUSD:      m.AmountUSD,
		AmountCFA:      m.AmountCFA,
		Status:         m.Status,
		PreviousStatus: m.PreviousStatus,
		Version:        m.Version,
		Deleted:        m.IsDeleted(),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ExchangeCreate(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload exchangeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := uuid.Parse(payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := validators.ParseDecimalField(payload.Rate, "rate")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amountUSD, err := validators.ParseDecimalField(payload.AmountUSD, "amount_usd")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateExchange(r.Context(), exchanges.CreateExchangeInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			CustomerID: customerID,
			Rate:       rate,
			AmountUSD:  amountUSD,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, exchangeResponseFromModel(created))
	}
}

func ExchangeGet(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exchangeID, err := validators.ParseUUIDParam(r, "exchangeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		exchange, err := svc.GetExchange(r.Context(), act.CompanyID, exchangeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, exchangeResponseFromModel(exchange))
	}
}

func ExchangeList(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
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
		customerID, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListExchanges(r.Context(), exchanges.ListExchangesParams{
			CompanyID:  act.CompanyID,
			CustomerID: customerID,
			Params:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]exchangeResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, exchangeResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func ExchangeUpdate(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exchangeID, err := validators.ParseUUIDParam(r, "exchangeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload exchangeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := exchanges.UpdateExchangeInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			ExchangeID: exchangeID,
			Version:    payload.Version,
		}
		if payload.CustomerID != nil {
			customerID, err := uuid.Parse(*payload.CustomerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CustomerID = &customerID
		}
		if payload.Rate != nil {
			rate, err := validators.ParseDecimalField(*payload.Rate, "rate")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Rate = &rate
		}
		if payload.AmountUSD != nil {
			amountUSD, err := validators.ParseDecimalField(*payload.AmountUSD, "amount_usd")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.AmountUSD = &amountUSD
		}

		updated, err := svc.UpdateExchange(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, exchangeResponseFromModel(updated))
	}
}

func ExchangeDelete(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exchangeID, err := validators.ParseUUIDParam(r, "exchangeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload exchangeVersionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SoftDeleteExchange(r.Context(), exchanges.DeleteExchangeInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			ExchangeID: exchangeID,
			Version:    payload.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ExchangeRestore(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exchangeID, err := validators.ParseUUIDParam(r, "exchangeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload exchangeVersionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restored, err := svc.RestoreExchange(r.Context(), exchanges.RestoreExchangeInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			ExchangeID: exchangeID,
			Version:    payload.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, exchangeResponseFromModel(restored))
	}
}
