// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"escpos-emulator/internal/billing"
	"escpos-emulator/internal/config"
	"escpos-emulator/internal/database"
	"escpos-emulator/internal/handler"
	"escpos-emulator/internal/middleware"
	"escpos-emulator/internal/repository"
	"escpos-emulator/internal/session"
	"escpos-emulator/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config    *config.Config
	logger    *zap.Logger
	db        *database.DB
	registry  *session.Registry
	sessions  repository.SessionRepository
	history   repository.CommandHistoryRepository
	estimator *billing.Estimator
	eventBus  *handler.EventBus
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *database.DB,
	registry *session.Registry,
	sessions repository.SessionRepository,
	history repository.CommandHistoryRepository,
	estimator *billing.Estimator,
	eventBus *handler.EventBus,
) *Router {
	return &Router{
		config:    cfg,
		logger:    logger,
		db:        db,
		registry:  registry,
		sessions:  sessions,
		history:   history,
		estimator: estimator,
		eventBus:  eventBus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.config, r.logger)
	sessionHandler := handler.NewSessionHandler(r.registry, r.sessions, r.history, r.estimator, r.config.Emulator, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.registry, r.eventBus, r.logger)

	r.addHealthRoutes(router, healthHandler)

	apiV1 := router.Group("/api/v1")
	sessionHandler.RegisterRoutes(apiV1)

	r.addWebSocketRoutes(router, wsHandler)
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, h *handler.HealthHandler) {
	h.RegisterRoutes(router.Group(""))
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, h *handler.WebSocketHandler) {
	h.RegisterRoutes(router.Group("/ws"))
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
