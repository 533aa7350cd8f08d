package consultation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/handler"
	"github.com/clinicore/consult-api/internal/middleware"
	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/service/consultation"
)

type Handler struct {
	service *consultation.Service
}

func NewHandler(service *consultation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("", h.StartConsultation)
		consultations.GET("/:id", h.GetConsultation)
		consultations.GET("/:id/history", h.GetHistorySummary)
		consultations.PUT("/:id/narrative", h.SaveNarrative)
		consultations.PUT("/:id/exam", h.SaveExam)
		consultations.PUT("/:id/plan", h.SavePlan)
		consultations.POST("/:id/diagnoses", h.AttachDiagnosis)
		consultations.DELETE("/:id/diagnoses/:code", h.DetachDiagnosis)
		consultations.POST("/:id/finalize", h.FinalizeConsultation)
		consultations.POST("/:id/cancel", h.CancelConsultation)
	}
}

func (h *Handler) StartConsultation(c *gin.Context) {
	var req model.StartConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.Start(c.Request.Context(), middleware.Actor(c), req.PatientID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) GetConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) GetHistorySummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}

	record, err := h.service.HistorySummary(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}

func (h *Handler) SaveNarrative(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}
	var req model.SaveNarrativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.SaveNarrative(c.Request.Context(), middleware.Actor(c), id, req.Text)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) SaveExam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}
	var req model.SaveExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	exam, err := h.service.SaveExam(c.Request.Context(), middleware.Actor(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(exam))
}

func (h *Handler) SavePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}
	var req model.SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.SavePlan(c.Request.Context(), middleware.Actor(c), id, req.Text)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) AttachDiagnosis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}
	var req model.AttachDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.AttachDiagnosis(c.Request.Context(), middleware.Actor(c), id, req.Code, req.Role)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) DetachDiagnosis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}

	if err := h.service.DetachDiagnosis(c.Request.Context(), middleware.Actor(c), id, c.Param("code")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) FinalizeConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}

	resp, err := h.service.Finalize(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) CancelConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultation ID"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), middleware.Actor(c), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
