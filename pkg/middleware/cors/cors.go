package cors

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// MethodSource reports the HTTP methods the API serves. It is read once, on the first request,
// so it may inspect routes registered after the middleware was installed.
type MethodSource func() []string

// RouteMethods derives the method list from the routes registered on r.
func RouteMethods(r *gin.Engine) MethodSource {
	return func() []string {
		methods := make([]string, 0, len(r.Routes()))
		for _, route := range r.Routes() {
			methods = append(methods, route.Method)
		}
		return methods
	}
}

// New returns a CORS middleware honoring a list of allowed origins.
// An empty list allows every origin. A nil source allows GET and OPTIONS only.
func New(allowedOrigins []string, methods MethodSource) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	var (
		once         sync.Once
		allowMethods string
	)

	return func(c *gin.Context) {
		once.Do(func() {
			var served []string
			if methods != nil {
				served = methods()
			}
			allowMethods = joinMethods(served)
		})

		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAll || hasOrigin(originSet, origin) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			}
		} else if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", allowMethods)
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// joinMethods dedupes and sorts methods, always including GET and OPTIONS.
func joinMethods(methods []string) string {
	set := map[string]struct{}{http.MethodGet: {}, http.MethodOptions: {}}
	for _, m := range methods {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			set[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

func hasOrigin(originSet map[string]struct{}, origin string) bool {
	if len(originSet) == 0 {
		return true
	}

	origin = strings.TrimRight(origin, "/")
	_, ok := originSet[origin]
	return ok
}
