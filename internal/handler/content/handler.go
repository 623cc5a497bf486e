package content

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/happypaws/happypaws/internal/handler"
	"github.com/happypaws/happypaws/internal/model"
	contentService "github.com/happypaws/happypaws/internal/service/content"
)

type Handler struct {
	service *contentService.Service
}

func NewHandler(service *contentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/content/:section", h.Section)
	r.GET("/areas", h.ServiceAreas)
	r.GET("/homepage-sections", h.EnabledHomepageSections)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	content := r.Group("/content")
	{
		content.POST("", h.UpsertItem)
		content.PUT("/:id", h.UpdateItem)
	}
	areas := r.Group("/areas")
	{
		areas.POST("", h.CreateServiceArea)
		areas.PUT("/:id", h.UpdateServiceArea)
		areas.DELETE("/:id", h.DeleteServiceArea)
	}
	sections := r.Group("/homepage-sections")
	{
		sections.GET("", h.AllHomepageSections)
		sections.PUT("/:id", h.UpdateHomepageSection)
	}
}

func (h *Handler) Section(c *gin.Context) {
	rows, err := h.service.Section(c.Request.Context(), c.Param("section"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}

func (h *Handler) ServiceAreas(c *gin.Context) {
	areas, err := h.service.ServiceAreas(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(areas))
}

func (h *Handler) EnabledHomepageSections(c *gin.Context) {
	sections, err := h.service.EnabledHomepageSections(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sections))
}

func (h *Handler) AllHomepageSections(c *gin.Context) {
	sections, err := h.service.HomepageSections(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sections))
}

func (h *Handler) UpsertItem(c *gin.Context) {
	var item model.SiteContent
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.service.UpsertItem(c.Request.Context(), &item); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(item))
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid content id"))
		return
	}
	var req model.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.service.UpdateItem(c.Request.Context(), id, &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) CreateServiceArea(c *gin.Context) {
	var area model.ServiceArea
	if err := c.ShouldBindJSON(&area); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.service.CreateServiceArea(c.Request.Context(), &area); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(area))
}

func (h *Handler) UpdateServiceArea(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid area id"))
		return
	}
	var area model.ServiceArea
	if err := c.ShouldBindJSON(&area); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	area.ID = id
	if err := h.service.UpdateServiceArea(c.Request.Context(), &area); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(area))
}

func (h *Handler) DeleteServiceArea(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid area id"))
		return
	}
	if err := h.service.DeleteServiceArea(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) UpdateHomepageSection(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid section id"))
		return
	}
	var section model.HomepageSection
	if err := c.ShouldBindJSON(&section); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	section.ID = id
	if err := h.service.UpdateHomepageSection(c.Request.Context(), &section); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(section))
}
