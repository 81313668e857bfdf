package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/newomen/newme-backend/internal/http/response"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/ctxutil"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/services"
)

type GamificationHandler struct {
	log                 *logger.Logger
	gamificationService services.GamificationService
	userService         services.UserService
}

func NewGamificationHandler(log *logger.Logger, gamificationService services.GamificationService, userService services.UserService) *GamificationHandler {
	return &GamificationHandler{
		log:                 log.With("handler", "GamificationHandler"),
		gamificationService: gamificationService,
		userService:         userService,
	}
}

func (h *GamificationHandler) GetProfile(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	profile, err := h.gamificationService.GetProfile(dbctx.New(c.Request.Context()), rd.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, profile)
}

func (h *GamificationHandler) ListTransactions(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.gamificationService.ListTransactions(dbctx.New(c.Request.Context()), rd.UserID, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transactions": rows})
}

func (h *GamificationHandler) ListAchievements(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}
	all, unlocked, err := h.gamificationService.ListAchievements(dbctx.New(c.Request.Context()), rd.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"achievements": all, "unlocked": unlocked})
}

type gamificationEventRequest struct {
	Type    string `json:"type" binding:"required"`
	Payload struct {
		UserID       uuid.UUID  `json:"userId"`
		ChallengeID  *uuid.UUID `json:"challengeId"`
		AssessmentID *uuid.UUID `json:"assessmentId"`
	} `json:"payload"`
}

// HandleEvent accepts the external engine contract so the same payloads work
// whether rewards are dispatched in-process or over HTTP.
func (h *GamificationHandler) HandleEvent(c *gin.Context) {
	var req gamificationEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest, err)
		return
	}

	event := services.GamificationEvent{Type: req.Type, UserID: req.Payload.UserID}
	switch {
	case req.Payload.ChallengeID != nil:
		event.RelatedEntityID = req.Payload.ChallengeID
		event.RelatedEntityType = "couples_challenge"
	case req.Payload.AssessmentID != nil:
		event.RelatedEntityID = req.Payload.AssessmentID
		event.RelatedEntityType = "assessment"
	}

	result, err := h.gamificationService.HandleEvent(c.Request.Context(), event)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "result": result})
}

// DailyLogin is idempotent per UTC day.
func (h *GamificationHandler) DailyLogin(c *gin.Context) {
	result, err := h.userService.RecordLogin(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
