// Package api serves the tracker as a local JSON API with an event stream
// and Prometheus metrics.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aazoaer/health-manager/internal/logging"
	"github.com/aazoaer/health-manager/internal/service"
)

type Router struct {
	engine   *gin.Engine
	tracker  *service.Tracker
	finder   *service.FoodFinder
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

type Option func(*Router)

// WithFoodFinder enables the /api/foods endpoints.
func WithFoodFinder(f *service.FoodFinder) Option {
	return func(r *Router) { r.finder = f }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Router) { r.registry = reg }
}

func NewRouter(tracker *service.Tracker, opts ...Option) *Router {
	gin.SetMode(gin.ReleaseMode)
	r := &Router{tracker: tracker}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}
	r.metrics = newMetrics(r.registry)

	r.engine = gin.New()
	r.engine.Use(gin.Recovery(), r.observe())
	r.routes()
	return r
}

func (r *Router) Handler() http.Handler { return r.engine }

func (r *Router) routes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api")
	{
		api.GET("/user-data", r.getUserData)
		api.GET("/profile", r.getProfile)
		api.PUT("/profile", r.putProfile)
		api.GET("/settings", r.getSettings)
		api.PUT("/settings/:key", r.putSetting)

		api.GET("/water", r.getWater)
		api.POST("/water", r.addWater)
		api.POST("/water/subtract", r.subtractWater)
		api.DELETE("/water", r.resetWater)

		api.GET("/meals", r.getMeals)
		api.POST("/meals", r.addMeal)
		api.DELETE("/meals/:id", r.deleteMeal)

		api.GET("/sleep", r.getSleep)
		api.POST("/sleep", r.addSleep)
		api.DELETE("/sleep/:id", r.deleteSleep)

		api.GET("/exercises", r.getExercises)
		api.POST("/exercises", r.addExercise)
		api.DELETE("/exercises/:id", r.deleteExercise)

		api.GET("/today", r.getToday)
		api.GET("/goals", r.getGoals)
		api.GET("/summary/:date", r.getSummary)
		api.GET("/history/:year/:month", r.getMonth)
		api.GET("/reminder", r.getReminder)

		api.GET("/foods/barcode/:code", r.lookupBarcode)
		api.GET("/foods/search", r.searchFoods)

		api.GET("/events", r.streamEvents)
	}
}

// observe logs each request and records it in the request metrics.
func (r *Router) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		r.metrics.observeRequest(c.Request.Method, route, status, elapsed)
		r.logger.Debug("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed)
	}
}

// fail maps service sentinels onto HTTP status codes.
func (r *Router) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		r.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
