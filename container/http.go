package container

import (
	"github.com/gin-gonic/gin"

	"anvil/scope"
)

// RequestScopeMiddleware attaches a fresh per-request instance bag to the
// incoming request's context, the prerequisite scope.Request needs to
// cache a request-scoped binding. Grounded on the teacher's
// guard.CreateGuardMiddleware shape (construct a context-derived value,
// call c.Next()), generalized from building an auth context to attaching
// the request-scope bag every request-scoped resolution during this
// request will share.
//
// c is accepted (rather than leaving this a free function) so the
// generalisation to other per-request setup the container eventually
// needs — install-time-registered static per-request hooks, for instance
// — has somewhere to live without changing the middleware's signature.
func RequestScopeMiddleware(c *Container) gin.HandlerFunc {
	return func(gc *gin.Context) {
		gc.Request = gc.Request.WithContext(scope.NewRequestContext(gc.Request.Context()))
		gc.Next()
	}
}
