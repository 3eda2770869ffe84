package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ManagerID uuid.UUID
	CompanyID *uuid.UUID
	Role      enums.ManagerRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT the identity provider issues.
// The ledger only consumes the (manager, company, role) triple.
type AccessTokenClaims struct {
	ManagerID uuid.UUID         `json:"manager_id"`
	CompanyID *uuid.UUID        `json:"company_id,omitempty"`
	Role      enums.ManagerRole `json:"role"`
	jwt.RegisteredClaims
}
