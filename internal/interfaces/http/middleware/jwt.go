package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/infrastructure/auth"
	"github.com/smartinvoice/backend/internal/infrastructure/logger"
	"github.com/smartinvoice/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys and headers
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// DevUserHeader identifies the owner when token checks are disabled
	DevUserHeader = "X-User-ID"
)

// JWTMiddlewareConfig holds configuration for the owner authentication middleware
type JWTMiddlewareConfig struct {
	// JWTService validates bearer tokens. Required unless Disabled.
	JWTService *auth.JWTService
	// Disabled trusts DevUserHeader instead of a token. Development only.
	Disabled bool
	// SkipPaths are full paths served without an owner
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/api/v1/health"},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig resolves the owner of the request and stores it
// in both the gin context and the request context.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		var (
			owner uuid.UUID
			err   error
		)
		if cfg.Disabled {
			owner, err = uuid.Parse(c.GetHeader(DevUserHeader))
			if err != nil {
				err = auth.ErrMissingUserID
			}
		} else {
			var claims *auth.Claims
			claims, err = bearerClaims(c, cfg.JWTService)
			if err == nil {
				owner, err = claims.OwnerID()
				c.Set(JWTClaimsKey, claims)
			}
		}
		if err != nil {
			log.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(logger.GinRequestIDKey)),
			)
			abortUnauthorized(c, err)
			return
		}

		c.Set(logger.GinOwnerIDKey, owner.String())
		c.Request = c.Request.WithContext(logger.WithOwnerID(c.Request.Context(), owner.String()))
		c.Next()
	}
}

func bearerClaims(c *gin.Context, svc *auth.JWTService) (*auth.Claims, error) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return svc.ValidateAccessToken(token)
}

func abortUnauthorized(c *gin.Context, err error) {
	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		code, message, c.GetString(logger.GinRequestIDKey),
	))
}

// GetJWTClaims retrieves JWT claims from gin.Context. Nil when auth is disabled.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetOwnerID returns the authenticated owner of the request
func GetOwnerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(logger.GinOwnerIDKey)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
