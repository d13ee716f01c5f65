package auth

import (
	"context"
	"errors"
	"strings"

	"lab-service/internal/domain/principal"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PrincipalResolver returns the current directory entry for a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*principal.Principal, error)
}

type Middleware struct {
	jwtService *JWTService
	resolver   PrincipalResolver
	logger     *zap.Logger
}

func NewMiddleware(jwtService *JWTService, resolver PrincipalResolver, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{jwtService: jwtService, resolver: resolver, logger: logger}
}

// RequirePrincipal authenticates the bearer token and puts the caller's
// current directory entry on the context. Inactive principals pass; the
// policy denies them.
func (m *Middleware) RequirePrincipal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return apperrors.Unauthorized(msgMissingAuthorization)
			}

			claims, err := m.jwtService.Verify(token)
			if err != nil {
				return apperrors.Unauthorized(msgInvalidOrExpiredToken)
			}

			p, err := m.resolver.Resolve(c.Request().Context(), claims.PrincipalID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return apperrors.Unauthorized(msgInvalidOrExpiredToken)
				}
				return err
			}
			if p.Role != claims.Role {
				m.logger.Info("rejecting token issued for previous role",
					zap.String("principal_id", p.ID.String()),
					zap.String("token_role", string(claims.Role)),
					zap.String("role", string(p.Role)),
				)
				return apperrors.Unauthorized(msgSessionRoleChanged)
			}

			c.Set(ContextKeyPrincipal, p)
			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

// GetPrincipal returns the authenticated caller.
func GetPrincipal(c echo.Context) (*principal.Principal, error) {
	value := c.Get(ContextKeyPrincipal)
	if value == nil {
		return nil, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	p, ok := value.(*principal.Principal)
	if !ok || p == nil {
		return nil, apperrors.Unauthorized(msgInvalidPrincipalCtx)
	}

	return p, nil
}
