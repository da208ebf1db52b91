package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsKey = "auth.claims"

// Middleware holds the gin middlewares guarding the admin API. With Disabled
// set, every request passes with an implicit admin identity; meant for local
// development only.
type Middleware struct {
	Verifier *Verifier
	Logger   *zap.Logger
	Disabled bool
}

func NewMiddleware(verifier *Verifier, logger *zap.Logger, disabled bool) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{Verifier: verifier, Logger: logger, Disabled: disabled}
}

func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.Disabled {
			c.Set(claimsKey, &Claims{Subject: "local", Role: RoleAdmin})
			c.Next()
			return
		}
		raw, err := FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "authentication required"})
			return
		}
		claims, err := m.Verifier.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "admin role required"})
			return
		}
		c.Next()
	}
}

// Audit logs every mutating admin request with its caller.
func (m *Middleware) Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		subject := "anonymous"
		if claims := ClaimsFrom(c); claims != nil {
			subject = claims.Subject
		}
		m.Logger.Info("admin action",
			zap.String("subject", subject),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
