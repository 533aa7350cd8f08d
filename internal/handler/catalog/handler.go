package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/consult-api/internal/handler"
	"github.com/clinicore/consult-api/internal/service/catalog"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	codes := r.Group("/catalog")
	{
		codes.GET("/search", h.Search)
		codes.GET("/:code", h.GetByCode)
	}
}

func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")

	results, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
}

func (h *Handler) GetByCode(c *gin.Context) {
	code, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(code))
}
