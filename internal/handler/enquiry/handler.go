package enquiry

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/happypaws/happypaws/internal/handler"
	"github.com/happypaws/happypaws/internal/model"
	enquiryService "github.com/happypaws/happypaws/internal/service/enquiry"
)

type Handler struct {
	service *enquiryService.Service
}

func NewHandler(service *enquiryService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/enquiries", h.CreateEnquiry)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	enquiries := r.Group("/enquiries")
	{
		enquiries.GET("", h.ListEnquiries)
		enquiries.GET("/export.csv", h.ExportCSV)
		enquiries.GET("/:id/activity", h.Activity)
		enquiries.POST("/:id/analyze", h.Analyze)
		enquiries.PUT("/:id/status", h.UpdateStatus)
		enquiries.DELETE("/:id", h.DeleteEnquiry)
	}
}

func (h *Handler) CreateEnquiry(c *gin.Context) {
	var req model.CreateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	enquiry, err := h.service.Create(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(enquiry))
}

func (h *Handler) ListEnquiries(c *gin.Context) {
	enquiries, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(enquiries))
}

func (h *Handler) ExportCSV(c *gin.Context) {
	data, err := h.service.ExportCSV(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="enquiries.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *Handler) Activity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid enquiry id"))
		return
	}
	events, err := h.service.Activity(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}

func (h *Handler) Analyze(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid enquiry id"))
		return
	}
	summary, err := h.service.Analyze(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"summary": summary}))
}

type updateStatusRequest struct {
	Status model.EnquiryStatus `json:"status" binding:"required"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid enquiry id"))
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) DeleteEnquiry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid enquiry id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
