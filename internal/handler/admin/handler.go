package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/happypaws/happypaws/internal/handler"
	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/service/autopilot"
	"github.com/happypaws/happypaws/internal/service/notification"
	"github.com/happypaws/happypaws/internal/service/settings"
	visitorService "github.com/happypaws/happypaws/internal/service/visitor"
	"github.com/happypaws/happypaws/pkg/auth"
)

type Handler struct {
	authn    *auth.Authenticator
	settings *settings.Service
	notifier *notification.Service
	visitors *visitorService.Service
	pilot    *autopilot.Service
}

func NewHandler(authn *auth.Authenticator, settingsSvc *settings.Service, notifier *notification.Service, visitors *visitorService.Service, pilot *autopilot.Service) *Handler {
	return &Handler{
		authn:    authn,
		settings: settingsSvc,
		notifier: notifier,
		visitors: visitors,
		pilot:    pilot,
	}
}

// RegisterLoginRoute mounts the one admin endpoint that is reachable
// without credentials.
func (h *Handler) RegisterLoginRoute(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Dashboard)
	r.GET("/notifications/next", h.NextNotifications)

	settingsGroup := r.Group("/settings")
	{
		settingsGroup.GET("/:key", h.GetSetting)
		settingsGroup.PUT("/:key", h.SetSetting)
	}

	r.POST("/ai/test", h.TestAI)

	visitors := r.Group("/visitors")
	{
		visitors.GET("", h.ListVisitors)
		visitors.GET("/stats", h.VisitorStats)
		visitors.GET("/:sid/events", h.SessionEvents)
		visitors.GET("/:sid/insight", h.GetInsight)
		visitors.PUT("/:sid/insight", h.SaveInsight)
		visitors.DELETE("/:sid", h.DeleteSession)
	}

	ips := r.Group("/ips")
	{
		ips.GET("", h.ListIPs)
		ips.PUT("/:ip/block", h.SetIPBlocked)
		ips.DELETE("/:ip", h.DeleteIP)
	}
}

type loginRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Login verifies the password or static token and mints a short-lived
// JWT for the dashboard's polling calls.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	authorized := false
	if req.Password != "" && h.authn.VerifyPassword(req.Password) == nil {
		authorized = true
	}
	if !authorized && req.Token != "" && h.authn.VerifyStaticToken(req.Token) == nil {
		authorized = true
	}
	if !authorized {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid credentials"))
		return
	}

	token, err := h.authn.GenerateToken()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"token": token}))
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.notifier.DashboardStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) NextNotifications(c *gin.Context) {
	notifications, err := h.notifier.NextUnseen(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(notifications))
}

func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	value, err := h.settings.Get(c.Request.Context(), key)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.SiteSetting{Key: key, Value: value}))
}

type setSettingRequest struct {
	Value string `json:"value"`
}

func (h *Handler) SetSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	key := c.Param("key")
	if err := h.settings.Set(c.Request.Context(), key, req.Value); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.SiteSetting{Key: key, Value: req.Value}))
}

type testAIRequest struct {
	Prompt string `json:"prompt"`
}

// TestAI runs one prompt through the provider chain so the admin can
// check credentials. The outcome is stored for the settings page.
func (h *Handler) TestAI(c *gin.Context) {
	var req testAIRequest
	_ = c.ShouldBindJSON(&req)
	if req.Prompt == "" {
		req.Prompt = "Say hello to a dog owner in one sentence."
	}

	ctx := c.Request.Context()
	cfg := h.settings.ProviderConfig(ctx)
	provider, reply, err := h.pilot.GenerateOnce(ctx, cfg, req.Prompt)
	if err != nil {
		_ = h.settings.Set(ctx, model.SettingAITestResult, "failed: "+err.Error())
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}
	_ = h.settings.Set(ctx, model.SettingAITestResult, "ok via "+provider)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"provider": provider,
		"reply":    reply,
	}))
}

func (h *Handler) ListVisitors(c *gin.Context) {
	visitors, err := h.visitors.Visitors(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visitors))
}

func (h *Handler) VisitorStats(c *gin.Context) {
	stats, err := h.visitors.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) SessionEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.visitors.SessionEvents(c.Request.Context(), c.Param("sid"), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}

func (h *Handler) GetInsight(c *gin.Context) {
	summary, err := h.visitors.Insight(c.Request.Context(), c.Param("sid"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"summary": summary}))
}

type saveInsightRequest struct {
	Summary string `json:"summary"`
}

func (h *Handler) SaveInsight(c *gin.Context) {
	var req saveInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.visitors.SaveInsight(c.Request.Context(), c.Param("sid"), req.Summary); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.visitors.DeleteSession(c.Request.Context(), c.Param("sid")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListIPs(c *gin.Context) {
	records, err := h.visitors.ListIPs(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

type blockIPRequest struct {
	Blocked bool `json:"blocked"`
}

func (h *Handler) SetIPBlocked(c *gin.Context) {
	var req blockIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.visitors.SetIPBlocked(c.Request.Context(), c.Param("ip"), req.Blocked); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) DeleteIP(c *gin.Context) {
	if err := h.visitors.DeleteIP(c.Request.Context(), c.Param("ip")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
