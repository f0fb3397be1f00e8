// Package sandbox is a self-contained local backend implementing the
// payment API contract the console talks to: bearer-token login, merchant
// CRUD with server-side pagination and sorting, and transaction
// submission. It exists for local development and integration tests; role
// checks are enforced here on every request regardless of what any client
// decided from its own token.
package sandbox

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/internal/sandbox/store"
)

// Server holds the sandbox's dependencies.
type Server struct {
	store  *store.Store
	secret []byte
	ttl    time.Duration
}

// New constructs a sandbox server over the given store. The secret signs
// issued tokens; ttl bounds their lifetime.
func New(st *store.Store, secret []byte, ttl time.Duration) *Server {
	return &Server{store: st, secret: secret, ttl: ttl}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router(env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.POST("/token", s.handleToken)

	authd := r.Group("/", s.auth())
	{
		admin := authd.Group("/", requireRole(models.RoleAdmin))
		{
			admin.GET("/merchant", s.listMerchants)
			admin.POST("/merchant", s.createMerchant)
			admin.PATCH("/merchant/:id", s.updateMerchant)
			admin.DELETE("/merchant/:id", s.deleteMerchant)
		}

		// One route serves both the admin's per-merchant view and the
		// merchant's own view ("current"); the handler branches on the
		// caller's role.
		authd.GET("/transaction/merchant/:id", s.listMerchantTransactions)
		authd.POST("/transaction", requireRole(models.RoleMerchant), s.createTransaction)
	}

	return r
}
