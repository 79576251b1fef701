package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/infra/security"
	"github.com/ggontijo/campus-market/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the Authorization header, parses the bearer token,
// and resolves the live identity into the request context. Resolution is
// per request so status or membership changes take effect immediately.
func RequireAuth(tokens *security.TokenManager, identities *usecase.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c, tokens, identities)
		if !ok {
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// OptionalAuth resolves the identity when a bearer token is present but lets
// anonymous requests through. A malformed or expired token is still rejected.
func OptionalAuth(tokens *security.TokenManager, identities *usecase.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		identity, ok := authenticate(c, tokens, identities)
		if !ok {
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireAdmin allows only identities holding the administrative tier. Must
// run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient permissions"))
			return
		}

		c.Next()
	}
}

// CurrentIdentity retrieves the authenticated identity from context (helper
// for handlers). Nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *domain.Identity {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil
	}
	if identity, ok := value.(*domain.Identity); ok {
		return identity
	}
	return nil
}

func authenticate(c *gin.Context, tokens *security.TokenManager, identities *usecase.IdentityService) (*domain.Identity, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "missing authorization header"))
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
		return nil, false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "missing access token"))
		return nil, false
	}

	claims, err := tokens.Parse(token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "access token expired"))
		case errors.Is(err, security.ErrTokenInvalid):
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid access token"))
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authentication failed"))
		}
		return nil, false
	}

	identity, err := identities.Resolve(c.Request.Context(), claims.IdentityID)
	if err != nil {
		if errors.Is(err, usecase.ErrIdentityNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid access token"))
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authentication failed"))
		}
		return nil, false
	}

	if identity.Status == domain.IdentityStatusBlocked {
		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "account is blocked"))
		return nil, false
	}

	return identity, true
}
