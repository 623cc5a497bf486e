package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/happypaws/happypaws/internal/handler"
	"github.com/happypaws/happypaws/internal/middleware"
	"github.com/happypaws/happypaws/internal/model"
	chatService "github.com/happypaws/happypaws/internal/service/chat"
)

type Handler struct {
	service *chatService.Service
}

func NewHandler(service *chatService.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the widget endpoints. The message route
// sits behind OptionalAdmin in the router so staff replies authenticate.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	{
		chat.POST("/start", h.StartChat)
		chat.POST("/message", h.SendMessage)
		chat.GET("/:id/messages", h.PollMessages)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	chats := r.Group("/chats")
	{
		chats.GET("", h.ListChats)
		chats.GET("/:id", h.Transcript)
		chats.GET("/:id/related", h.RelatedByIP)
		chats.POST("/:id/close", h.CloseChat)
		chats.POST("/close-all", h.CloseAll)
		chats.DELETE("/:id", h.DeleteChat)
	}
}

func (h *Handler) StartChat(c *gin.Context) {
	// Body is optional; a first-time visitor has no session id yet.
	var req model.StartChatRequest
	_ = c.ShouldBindJSON(&req)
	transcript, err := h.service.StartChat(c.Request.Context(), req.SID, c.ClientIP())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(transcript))
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	msg, err := h.service.SendMessage(c.Request.Context(), &req, middleware.IsAdmin(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) PollMessages(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid chat id"))
		return
	}
	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)

	msgs, status, err := h.service.PollMessages(c.Request.Context(), id, after)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"messages": msgs,
		"status":   status,
	}))
}

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.service.ListChats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(chats))
}

func (h *Handler) Transcript(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid chat id"))
		return
	}
	transcript, err := h.service.Transcript(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(transcript))
}

func (h *Handler) RelatedByIP(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid chat id"))
		return
	}
	related, err := h.service.RelatedByIP(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(related))
}

func (h *Handler) CloseChat(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid chat id"))
		return
	}
	if err := h.service.CloseChat(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) CloseAll(c *gin.Context) {
	if err := h.service.CloseAllChats(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) DeleteChat(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid chat id"))
		return
	}
	if err := h.service.DeleteChat(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
