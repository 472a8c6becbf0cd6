package handlers

import (
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/metrics"
	"irrigation_panel/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options configure the HTTP layer.
type Options struct {
	// Auth requires a bearer token or basic credentials on /macros and /api.
	Auth    bool
	Metrics *metrics.Collector
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Collector
	auth     bool
	macros   map[string]macroFunc
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	h := &Handler{
		services: services,
		log:      log,
		metrics:  opts.Metrics,
		auth:     opts.Auth,
	}
	h.macros = h.macroTable()
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.metrics.GinMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAuthRoutes(router)

	// WebIOPi macro convention: POST /macros/<name>/<arg1>,<arg2>
	router.POST("/macros/*path", h.authMiddleware, h.callMacro)

	h.registerAPIRoutes(router)

	router.GET("/ws", h.authMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authMiddleware)
	{
		api.GET("/state", h.getState)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
