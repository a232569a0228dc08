package auth

import (
	"github.com/freightline/freightline-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	CompanyID    *uuid.UUID
	PlatformRole enums.PlatformRole
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID       uuid.UUID          `json:"user_id"`
	CompanyID    *uuid.UUID         `json:"company_id,omitempty"`
	PlatformRole enums.PlatformRole `json:"platform_role"`
	jwt.RegisteredClaims
}
