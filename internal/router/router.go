package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/happypaws/happypaws/internal/handler"
	adminHandler "github.com/happypaws/happypaws/internal/handler/admin"
	bookingHandler "github.com/happypaws/happypaws/internal/handler/booking"
	chatHandler "github.com/happypaws/happypaws/internal/handler/chat"
	contentHandler "github.com/happypaws/happypaws/internal/handler/content"
	enquiryHandler "github.com/happypaws/happypaws/internal/handler/enquiry"
	trackHandler "github.com/happypaws/happypaws/internal/handler/track"
	"github.com/happypaws/happypaws/internal/middleware"
	"github.com/happypaws/happypaws/internal/repository"
	"github.com/happypaws/happypaws/internal/service/settings"
	"github.com/happypaws/happypaws/pkg/auth"
)

type Router struct {
	engine   *gin.Engine
	authn    *auth.Authenticator
	settings *settings.Service
	ips      repository.IPRepository

	h        *handler.Handler
	bookingH *bookingHandler.Handler
	chatH    *chatHandler.Handler
	enquiryH *enquiryHandler.Handler
	trackH   *trackHandler.Handler
	contentH *contentHandler.Handler
	adminH   *adminHandler.Handler

	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
}

func New(
	authn *auth.Authenticator,
	settingsSvc *settings.Service,
	ips repository.IPRepository,
	h *handler.Handler,
	bookingH *bookingHandler.Handler,
	chatH *chatHandler.Handler,
	enquiryH *enquiryHandler.Handler,
	trackH *trackHandler.Handler,
	contentH *contentHandler.Handler,
	adminH *adminHandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	engine := gin.New()

	r := &Router{
		engine:   engine,
		authn:    authn,
		settings: settingsSvc,
		ips:      ips,
		h:        h,
		bookingH: bookingH,
		chatH:    chatH,
		enquiryH: enquiryH,
		trackH:   trackH,
		contentH: contentH,
		adminH:   adminH,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	// Admin routes bypass the IP block and maintenance gates so staff can
	// always reach the dashboard.
	admin := api.Group("/admin")
	r.adminH.RegisterLoginRoute(admin)
	protected := admin.Group("")
	protected.Use(middleware.AdminAuth(r.authn))
	{
		r.adminH.RegisterAdminRoutes(protected)
		r.bookingH.RegisterAdminRoutes(protected)
		r.chatH.RegisterAdminRoutes(protected)
		r.enquiryH.RegisterAdminRoutes(protected)
		r.contentH.RegisterAdminRoutes(protected)
	}

	// Public site routes.
	public := api.Group("")
	public.Use(
		middleware.IPBlock(r.ips),
		middleware.Maintenance(r.settings),
		middleware.OptionalAdmin(r.authn),
	)
	{
		r.bookingH.RegisterPublicRoutes(public)
		r.chatH.RegisterPublicRoutes(public)
		r.enquiryH.RegisterPublicRoutes(public)
		r.trackH.RegisterPublicRoutes(public)
		r.contentH.RegisterPublicRoutes(public)
	}
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
