// api/router/router.go

package router

import (
	"time"

	"github.com/dev-mohitbeniwal/argus/api/controller"
	"github.com/dev-mohitbeniwal/argus/api/middleware"
	"github.com/gin-gonic/gin"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))
	router.Use(middleware.Identity())

	api := router.Group("/api/v1")

	controllers.Audit.RegisterRoutes(api)
	controllers.RBAC.RegisterRoutes(api)
	controllers.Activity.RegisterRoutes(api)

	return router
}
