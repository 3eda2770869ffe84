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

type customerCreateRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type customerUpdateRequest struct {
	Version int64   `json:"version" validate:"required,min=1"`
	Name    *string `json:"name" validate:"omitempty,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
}

type customerVersionRequest struct {
	Version int64 `json:"version" validate:"required,min=1"`
}

type customerResponse struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	Phone     string               `json:"phone,omitempty"`
	ToPaid    decimal.Decimal      `json:"to_paid"`
	Status    enums.CustomerStatus `json:"status"`
	Version   int64                `json:"version"`
	Deleted   bool                 `json:"deleted"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func customerResponseFromModel(m *models.UsdCustomer) customerResponse {
	return customerResponse{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		ToPaid:    m.ToPaid,
		Status:    m.Status,
		Version:   m.Version,
		Deleted:   m.IsDeleted(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func CustomerCreate(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateCustomer(r.Context(), exchanges.CreateCustomerInput{
			CompanyID: act.CompanyID,
			ManagerID: act.ManagerID,
			Name:      validators.SanitizeString(payload.Name, 120),
			Phone:     validators.SanitizeString(payload.Phone, 32),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customerResponseFromModel(created))
	}
}

func CustomerGet(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.GetCustomer(r.Context(), act.CompanyID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customerResponseFromModel(customer))
	}
}

func CustomerList(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.ListCustomers(r.Context(), exchanges.ListCustomersParams{CompanyID: act.CompanyID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]customerResponse, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, customerResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "cursor": result.Cursor})
	}
}

func CustomerUpdate(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateCustomer(r.Context(), exchanges.UpdateCustomerInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			CustomerID: customerID,
			Version:    payload.Version,
			Name:       payload.Name,
			Phone:      payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customerResponseFromModel(updated))
	}
}

func CustomerDelete(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerVersionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SoftDeleteCustomer(r.Context(), exchanges.DeleteCustomerInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			CustomerID: customerID,
			Version:    payload.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func CustomerRestore(svc exchanges.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerVersionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restored, err := svc.RestoreCustomer(r.Context(), exchanges.RestoreCustomerInput{
			CompanyID:  act.CompanyID,
			ManagerID:  act.ManagerID,
			CustomerID: customerID,
			Version:    payload.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customerResponseFromModel(restored))
	}
}
