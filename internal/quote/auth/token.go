// Package auth bridges the external authentication subsystem to the
// core: it validates bearer tokens and materializes the authenticated
// identity they carry. Token issuance and password handling live
// elsewhere.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/quote/models"
)

// GenerateToken signs a token carrying the identity's claims. Intended
// for development and tests; production tokens come from the
// authentication service.
func GenerateToken(identity models.Identity, secret string, ttl time.Duration) (string, error) {
	perms := make([]string, len(identity.Permissions))
	for i, p := range identity.Permissions {
		perms[i] = string(p)
	}
	claims := jwt.MapClaims{
		"sub":         identity.ID.String(),
		"email":       identity.Email,
		"role":        string(identity.Role),
		"permissions": perms,
		"status":      string(identity.Status),
		"exp":         time.Now().Add(ttl).Unix(),
	}
	if identity.CompanyID != nil {
		claims["company_id"] = identity.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// IdentityFromToken validates the token signature and maps its claims to
// the authenticated identity the core consumes.
func IdentityFromToken(tokenString, secret string) (*models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return identityFromClaims(claims)
}

func identityFromClaims(claims jwt.MapClaims) (*models.Identity, error) {
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return nil, fmt.Errorf("missing role claim")
	}

	identity := &models.Identity{
		ID:     id,
		Role:   models.Role(role),
		Status: models.AccountActive,
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if status, ok := claims["status"].(string); ok && status != "" {
		identity.Status = models.AccountStatus(status)
	}
	if companyID, ok := claims["company_id"].(string); ok && companyID != "" {
		cid, err := uuid.Parse(companyID)
		if err != nil {
			return nil, fmt.Errorf("invalid company_id claim: %w", err)
		}
		identity.CompanyID = &cid
	}
	if rawPerms, ok := claims["permissions"].([]interface{}); ok {
		for _, raw := range rawPerms {
			if p, ok := raw.(string); ok {
				identity.Permissions = append(identity.Permissions, models.Permission(p))
			}
		}
	}
	return identity, nil
}
