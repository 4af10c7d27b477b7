package jwttoken

import (
	"reclamacidade/internal/platform/middleware"
)

// MiddlewareAdapter adapts JWTService to the middleware.JWTValidator interface
// so the middleware package does not depend on JWT internals.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		Identity: claims.Email,
		JTI:      claims.ID,
	}, nil
}
