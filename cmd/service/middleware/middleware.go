package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/app/response"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

const (
	TENANT_HEADER_KEY = "X-Tenant-ID"
	USER_HEADER_KEY   = "X-User-ID"
)

func Cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, "+TENANT_HEADER_KEY+", "+USER_HEADER_KEY)
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// Authorization trusts the identity headers set by the upstream
// gateway. Identity itself is out of scope here, the engine only
// requires that every request arrives with a resolved scope.
func Authorization(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := types.NewTenantScope(
			c.Request.Header.Get(TENANT_HEADER_KEY),
			c.Request.Header.Get(USER_HEADER_KEY),
		)
		if !scope.Valid() {
			response.APIError(c, errors.New("middleware.Authorization.scope", i18n.ERROR_PERMISSION_DENIED, nil).
				Code(http.StatusUnauthorized))
			return
		}

		c.Request = c.Request.WithContext(types.InjectTenantScope(c.Request.Context(), scope))
		c.Next()
	}
}

// Observe records per route latency and error counts.
func Observe(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := appCore.Metrics().ApiResponseTimer(c.FullPath())
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			appCore.Metrics().ApiErrorInc(c.Request.Method, c.FullPath(), status)
		}
	}
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

// UseLimit throttles an operation by a caller derived key.
func UseLimit(appCore *core.Core, operation string, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(genKeyFunc(c), opts...).Allow() {
			response.APIError(c, errors.New("middleware.limiter."+operation, i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}
