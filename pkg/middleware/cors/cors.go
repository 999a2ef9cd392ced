package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

// matcher decides whether an Origin header is allowed. Entries may be exact
// origins or a single leading wildcard label such as "https://*.sch.id".
type matcher struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

func newMatcher(origins []string) matcher {
	m := matcher{exact: map[string]struct{}{}}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "":
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			m.suffixes = append(m.suffixes, scheme+"://|"+host)
		default:
			m.exact[o] = struct{}{}
		}
	}
	if len(m.exact) == 0 && len(m.suffixes) == 0 {
		m.any = true
	}
	return m
}

func (m matcher) allows(origin string) bool {
	if m.any {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, s := range m.suffixes {
		scheme, host, _ := strings.Cut(s, "|")
		if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, host) && len(origin) > len(scheme)+len(host) {
			return true
		}
	}
	return false
}

// New answers preflights and sets CORS headers for allowed origins. An empty
// list allows every origin. Paths under skipPrefixes are left to their
// handlers, which answer their own preflight.
func New(allowedOrigins []string, skipPrefixes ...string) gin.HandlerFunc {
	m := newMatcher(allowedOrigins)
	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && m.allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && m.any:
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
