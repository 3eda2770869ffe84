package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	"github.com/Bbt3-alx/akera-backend/internal/buyops"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type goldLineRequest struct {
	Base         string `json:"base" validate:"max=64"`
	Weight       string `json:"weight" validate:"required"`
	WaterWeight  string `json:"water_weight" validate:"required"`
	PricePerGram string `json:"price_per_gram" validate:"required"`
}

func (g goldLineRequest) toInput() (buyops.GoldLineInput, error) {
	weight, err := validators.ParseDecimalField(g.Weight, "weight")
	if err != nil {
		return buyops.GoldLineInput{}, err
	}
	waterWeight, err := validators.ParseDecimalField(g.WaterWeight, "water_weight")
	if err != nil {
		return buyops.GoldLineInput{}, err
	}
	pricePerGram, err := validators.ParseDecimalField(g.PricePerGram, "price_per_gram")
	if err != nil {
		return buyops.GoldLineInput{}, err
	}
	return buyops.GoldLineInput{
		Base:         g.Base,
		Weight:       weight,
		WaterWeight:  waterWeight,
		PricePerGram: pricePerGram,
	}, nil
}

type buyOperationCreateRequest struct {
	PartnerID string            `json:"partner_id" validate:"required,uuid"`
	Currency  string            `json:"currency" validate:"required,oneof=FCFA GNF USD"`
	Golds     []goldLineRequest `json:"golds" validate:"required,min=1,dive"`
}

type buyOperationUpdateRequest struct {
	Currency string            `json:"currency" validate:"omitempty,oneof=FCFA GNF USD"`
	Golds    []goldLineRequest `json:"golds" validate:"omitempty,min=1,dive"`
}

type goldItemResponse struct {
	ID        uuid.UUID           `json:"id"`
	Base      string              `json:"base,omitempty"`
	Weight    decimal.Decimal     `json:"weight"`
	Density   decimal.Decimal     `json:"density"`
	Karat     decimal.Decimal     `json:"karat"`
	Value     decimal.Decimal     `json:"value"`
	Situation enums.GoldSituation `json:"situation"`
}

type buyOperationResponse struct {
	ID            uuid.UUID                `json:"id"`
	PartnerID     uuid.UUID                `json:"partner_id"`
	Currency      enums.Currency           `json:"currency"`
	Amount        decimal.Decimal          `json:"amount"`
	AmountPaid    decimal.Decimal          `json:"amount_paid"`
	PaymentStatus enums.PaymentStatus      `json:"payment_status"`
	Status        enums.BuyOperationStatus `json:"status"`
	Golds         []goldItemResponse       `json:"golds,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func buyOperationResponseFromModel(m *models.BuyOperation) buyOperationResponse {
	resp := buyOperationResponse{
		ID:            m.ID,
		PartnerID:     m.PartnerID,
		Currency:      m.Currency,
		Amount:        m.Amount,
		AmountPaid:    m.AmountPaid,
		PaymentStatus: m.PaymentStatus,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, g := range m.Golds {
		resp.Golds = append(resp.Golds, goldItemResponse{
			ID:        g.ID,
			Base:      g.Base,
			Weight:    g.Weight,
			Density:   g.Density,
			Karat:     g.Karat,
			Value:     g.Value,
			Situation: g.Situation,
		})
	}
	return resp
}

func goldLinesFromRequest(lines []goldLineRequest) ([]buyops.GoldLineInput, error) {
	inputs := make([]buyops.GoldLineInput, 0, len(lines))
	for _, line := range lines {
		input, err := line.toInput()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

func BuyOperationCreate(svc buyops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload buyOperationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := uuid.Parse(payload.PartnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := goldLinesFromRequest(payload.Golds)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), buyops.CreateInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			PartnerID: partnerID,
			Currency:  enums.Currency(payload.Currency),
			Golds:     lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, buyOperationResponseFromModel(created))
	}
}

func BuyOperationGet(svc buyops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opID, err := validators.ParseUUIDParam(r, "operationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		op, err := svc.Get(r.Context(), act.CompanyID, opID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyOperationResponseFromModel(op))
	}
}

func BuyOperationList(svc buyops.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.List(r.Context(), buyops.ListParams{CompanyID: act.CompanyID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]buyOperationResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, buyOperationResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func BuyOperationUpdate(svc buyops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opID, err := validators.ParseUUIDParam(r, "operationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload buyOperationUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var lines []buyops.GoldLineInput
		if len(payload.Golds) > 0 {
			lines, err = goldLinesFromRequest(payload.Golds)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		updated, err := svc.Update(r.Context(), buyops.UpdateInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			OpID:      opID,
			Currency:  enums.Currency(payload.Currency),
			Golds:     lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyOperationResponseFromModel(updated))
	}
}

func BuyOperationDelete(svc buyops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opID, err := validators.ParseUUIDParam(r, "operationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Delete(r.Context(), buyops.DeleteInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			OpID:      opID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
