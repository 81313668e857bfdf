package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/http/response"
	"github.com/newomen/newme-backend/internal/modules/challenge/steps"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/ctxutil"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/services"
)

type ChallengeHandler struct {
	log              *logger.Logger
	challengeService services.ChallengeService
}

func NewChallengeHandler(log *logger.Logger, challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		log:              log.With("handler", "ChallengeHandler"),
		challengeService: challengeService,
	}
}

type createChallengeRequest struct {
	TemplateID  *uuid.UUID         `json:"template_id"`
	QuestionSet *types.QuestionSet `json:"question_set"`
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}

	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}

	row, err := h.challengeService.Create(c.Request.Context(), rd.UserID, req.TemplateID, req.QuestionSet)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, row)
}

func (h *ChallengeHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	rows, err := h.challengeService.ListMine(dbctx.New(c.Request.Context()), rd.UserID, 0)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"challenges": rows})
}

func (h *ChallengeHandler) ListTemplates(c *gin.Context) {
	rows, err := h.challengeService.ListTemplates(dbctx.New(c.Request.Context()), 0)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": rows})
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid challenge id"))
		return
	}
	row, err := h.challengeService.Get(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, row)
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid challenge id"))
		return
	}
	row, err := h.challengeService.Join(c.Request.Context(), id, rd.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, row)
}

type appendMessageRequest struct {
	Content       string `json:"content" binding:"required"`
	QuestionIndex *int   `json:"question_index"`
}

func (h *ChallengeHandler) AppendMessage(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid challenge id"))
		return
	}
	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}
	row, err := h.challengeService.AppendMessage(c.Request.Context(), id, rd.UserID, req.Content, req.QuestionIndex)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, row)
}

func (h *ChallengeHandler) NextQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid challenge id"))
		return
	}
	question, err := h.challengeService.GenerateNextQuestion(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": question})
}

// Analyze returns 200 with the report on success or for an already analyzed
// challenge. Incompleteness carries per-partner progress; a persistence
// failure still hands the computed report back.
func (h *ChallengeHandler) Analyze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidChallenge, fmt.Errorf("invalid challenge id"))
		return
	}

	report, err := h.challengeService.Analyze(c.Request.Context(), id)
	if err != nil {
		var inc *steps.IncompleteError
		if errors.As(err, &inc) {
			response.RespondErrorDetails(c, http.StatusBadRequest, apierr.CodeIncompleteChallenge, err, gin.H{
				"questions":         inc.Questions,
				"user_responses":    inc.UserResponses,
				"partner_responses": inc.PartnerResponses,
			})
			return
		}
		var pf *services.PersistFailedError
		if errors.As(err, &pf) {
			ae := apierr.From(err)
			response.RespondErrorDetails(c, ae.Status, ae.Code, pf.Err, gin.H{"analysis": pf.Report})
			return
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "analysis": report})
}
