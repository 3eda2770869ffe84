package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/api/responses"
	"github.com/Bbt3-alx/akera-backend/api/validators"
	"github.com/Bbt3-alx/akera-backend/internal/partners"
	"github.com/Bbt3-alx/akera-backend/pkg/db/models"
	"github.com/Bbt3-alx/akera-backend/pkg/enums"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
)

type partnerCreateRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"max=32"`
	Currency string `json:"currency" validate:"omitempty,oneof=FCFA GNF USD"`
}

type partnerUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

type partnerResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Currency  enums.Currency  `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Deleted   bool            `json:"deleted"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func partnerResponseFromModel(m *models.Partner) partnerResponse {
	return partnerResponse{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Currency:  m.Currency,
		Balance:   m.Balance,
		Deleted:   m.IsDeleted(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func PartnerCreate(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload partnerCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), partners.CreateInput{
			CompanyID: act.CompanyID,
			Name:      validators.SanitizeString(payload.Name, 120),
			Phone:     validators.SanitizeString(payload.Phone, 32),
			Currency:  enums.Currency(payload.Currency),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, partnerResponseFromModel(created))
	}
}

func PartnerGet(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := validators.ParseUUIDParam(r, "partnerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := svc.Get(r.Context(), act.CompanyID, partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partnerResponseFromModel(partner))
	}
}

func PartnerList(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.List(r.Context(), partners.ListParams{CompanyID: act.CompanyID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]partnerResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, partnerResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func PartnerUpdate(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := validators.ParseUUIDParam(r, "partnerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload partnerUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), partners.UpdateInput{
			CompanyID: act.CompanyID,
			PartnerID: partnerID,
			Name:      payload.Name,
			Phone:     payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partnerResponseFromModel(updated))
	}
}

func PartnerDelete(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := validators.ParseUUIDParam(r, "partnerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SoftDelete(r.Context(), partners.DeleteInput{
			CompanyID: act.CompanyID,
			PartnerID: partnerID,
			ManagerID: act.ManagerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func PartnerRestore(svc partners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := validators.ParseUUIDParam(r, "partnerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restored, err := svc.Restore(r.Context(), partners.RestoreInput{
			CompanyID: act.CompanyID,
			PartnerID: partnerID,
			ManagerID: act.ManagerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partnerResponseFromModel(restored))
	}
}
