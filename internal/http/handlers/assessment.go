package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/newomen/newme-backend/internal/http/response"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/ctxutil"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/services"
)

type AssessmentHandler struct {
	log               *logger.Logger
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(log *logger.Logger, assessmentService services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		log:               log.With("handler", "AssessmentHandler"),
		assessmentService: assessmentService,
	}
}

func (h *AssessmentHandler) List(c *gin.Context) {
	rows, err := h.assessmentService.ListActive(dbctx.New(c.Request.Context()), 0)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assessments": rows})
}

func (h *AssessmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid assessment id"))
		return
	}
	row, err := h.assessmentService.Get(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, row)
}

type submitAttemptRequest struct {
	Responses json.RawMessage `json:"responses" binding:"required"`
}

func (h *AssessmentHandler) SubmitAttempt(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid assessment id"))
		return
	}
	var req submitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}

	attempt, err := h.assessmentService.StartAttempt(c.Request.Context(), rd.UserID, id, req.Responses)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	result, err := h.assessmentService.ProcessAttempt(c.Request.Context(), attempt.ID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt_id": attempt.ID, "result": result})
}

func (h *AssessmentHandler) ProcessAttempt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("attemptId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid attempt id"))
		return
	}
	result, err := h.assessmentService.ProcessAttempt(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "result": result})
}

func (h *AssessmentHandler) GetProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid assessment id"))
		return
	}
	progress, err := h.assessmentService.GetProgress(dbctx.New(c.Request.Context()), rd.UserID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, progress)
}
