package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mileshq/miles-brain/internal/database"
	"github.com/mileshq/miles-brain/internal/errors"
	"github.com/mileshq/miles-brain/internal/middleware"
	"github.com/mileshq/miles-brain/internal/monitoring"
	"github.com/mileshq/miles-brain/internal/ratelimit"
	"github.com/mileshq/miles-brain/internal/service"
	"github.com/mileshq/miles-brain/internal/types"
)

// feedbackLimitPerMin caps feedback submissions per IP. Feedback drives
// model updates, so it gets a tighter limit than the global IP limit.
const feedbackLimitPerMin = 60

type server struct {
	svc     *service.Service
	db      *database.DB
	limiter *ratelimit.RateLimiter
	redis   *ratelimit.RedisClient
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	started time.Time
}

func newServer(svc *service.Service, db *database.DB, limiter *ratelimit.RateLimiter, redis *ratelimit.RedisClient, metrics *monitoring.Metrics, logger *monitoring.Logger) *server {
	return &server{
		svc:     svc,
		db:      db,
		limiter: limiter,
		redis:   redis,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

func (s *server) router() *gin.Engine {
	r := gin.New()

	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())
	r.Use(cors.Default())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RequestTimeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.RequireJSON())
	r.Use(s.metrics.GinMiddleware())
	if s.limiter != nil {
		r.Use(s.limiter.IPRateLimitMiddleware())
	}

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/tasks/:id/suggestions", s.suggestTask)
		api.POST("/tasks/:id/assign", s.assignTask)

		feedback := api.Group("")
		if s.limiter != nil {
			feedback.Use(s.limiter.EndpointRateLimitMiddleware("feedback", feedbackLimitPerMin))
		}
		feedback.POST("/assignments/:id/feedback", s.submitFeedback)

		api.GET("/bandit/stats", s.banditStats)
		api.POST("/bandit/reset", s.resetModels)
	}

	r.GET("/pools/database", s.databasePoolStats)
	r.GET("/pools/ratelimit", s.rateLimitStats)

	return r
}

func (s *server) suggestTask(c *gin.Context) {
	resp, err := s.svc.SuggestForTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) assignTask(c *gin.Context) {
	resp, err := s.svc.AssignTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *server) submitFeedback(c *gin.Context) {
	var req types.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewValidationError("invalid feedback payload: "+err.Error()))
		return
	}

	resp, err := s.svc.SubmitFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) banditStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.BanditStats())
}

func (s *server) resetModels(c *gin.Context) {
	if err := s.svc.ResetModels(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bandit models reset"})
}

func (s *server) health(c *gin.Context) {
	redisEnabled := s.redis != nil && s.redis.IsEnabled()
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		RedisEnabled:  redisEnabled,
	})
}

func (s *server) databasePoolStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pool":  "database",
		"stats": s.db.GetPoolStats(),
	})
}

func (s *server) rateLimitStats(c *gin.Context) {
	if s.limiter == nil {
		c.JSON(http.StatusOK, gin.H{"pool": "ratelimit", "stats": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pool":  "ratelimit",
		"stats": s.limiter.GetStats(),
	})
}

func (s *server) respondError(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}
