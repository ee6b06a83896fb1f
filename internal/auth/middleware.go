package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/product-catalog/internal/httpx"
)

const claimsKey = "auth.claims"

// Authenticate requires a valid "Authorization: Bearer <token>" header.
func Authenticate(v *Verifier, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			httpx.Fail(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		claims, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			rid, _ := c.Get("rid")
			log.WithError(err).WithField("rid", rid).Debug("token rejected")
			httpx.Fail(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
// It must run after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok {
			httpx.Fail(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		if !claims.HasAnyRole(roles...) {
			httpx.Fail(c, http.StatusForbidden, "Access denied: requires "+strings.Join(roles, " or "), nil)
			return
		}
		c.Next()
	}
}

func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
