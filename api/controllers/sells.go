package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	"github.com/Bbt3-alx/akera-backend/internal/sells"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type sellCreateRequest struct {
	Weight string `json:"weight" validate:"required"`
	Unit   string `json:"unit" validate:"required"`
	Rate   string `json:"rate" validate:"required"`
}

type sellUpdateRequest struct {
	Weight *string `json:"weight"`
	Unit   *string `json:"unit"`
	Rate   *string `json:"rate"`
}

type sellResponse struct {
	ID          uuid.UUID        `json:"id"`
	Weight      decimal.Decimal  `json:"weight"`
	Unit        enums.WeightUnit `json:"unit"`
	WeightGrams decimal.Decimal  `json:"weight_grams"`
	TroyOunces  decimal.Decimal  `json:"troy_ounces"`
	Rate        decimal.Decimal  `json:"rate"`
	Amount      decimal.Decimal  `json:"amount"`
	Deleted     bool             `json:"deleted"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func sellResponseFromModel(m *models.SellOperation) sellResponse {
	return sellResponse{
		ID:          m.ID,
		Weight:      m.Weight,
		Unit:        m.Unit,
		WeightGrams: m.WeightGrams,
		TroyOunces:  m.TroyOunces,
		Rate:        m.Rate,
		Amount:      m.Amount,
		Deleted:     m.IsDeleted(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func SellCreate(svc sells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sellCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		weight, err := validators.ParseDecimalField(payload.Weight, "weight")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := validators.ParseDecimalField(payload.Rate, "rate")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unit, err := enums.ParseWeightUnit(payload.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight unit"))
			return
		}

		created, err := svc.Create(r.Context(), sells.CreateInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			Weight:    weight,
			Unit:      unit,
			Rate:      rate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sellResponseFromModel(created))
	}
}

func SellGet(svc sells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellID, err := validators.ParseUUIDParam(r, "sellID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Get(r.Context(), act.CompanyID, sellID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellResponseFromModel(sale))
	}
}

func SellList(svc sells.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.List(r.Context(), sells.ListParams{CompanyID: act.CompanyID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]sellResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, sellResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func SellUpdate(svc sells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellID, err := validators.ParseUUIDParam(r, "sellID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sellUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sells.UpdateInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			SellID:    sellID,
		}
		if payload.Weight != nil {
			weight, err := validators.ParseDecimalField(*payload.Weight, "weight")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Weight = &weight
		}
		if payload.Unit != nil {
			unit, err := enums.ParseWeightUnit(*payload.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight unit"))
				return
			}
			input.Unit = &unit
		}
		if payload.Rate != nil {
			rate, err := validators.ParseDecimalField(*payload.Rate, "rate")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Rate = &rate
		}

		updated, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellResponseFromModel(updated))
	}
}

func SellDelete(svc sells.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellID, err := validators.ParseUUIDParam(r, "sellID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SoftDelete(r.Context(), sells.DeleteInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			SellID:    sellID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
