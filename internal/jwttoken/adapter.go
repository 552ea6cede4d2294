package jwttoken

import "registrar/internal/platform/middleware"

// MiddlewareAdapter adapts Service to the middleware.TokenValidator
// interface so the HTTP layer stays decoupled from JWT specifics.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{Subject: claims.Subject}, nil
}
