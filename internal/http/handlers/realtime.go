package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/newomen/newme-backend/internal/http/response"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/ctxutil"
	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/realtime"
	"github.com/newomen/newme-backend/internal/sse"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *sse.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		log: log.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// Stream opens the SSE connection. Every client is subscribed to its own
// user channel; extra challenge channels come from the "channels" query
// param as a comma-separated list.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
		return
	}

	client := h.hub.NewClient(rd.UserID)
	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	for _, ch := range strings.Split(c.Query("channels"), ",") {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		// Clients may only join challenge channels this way.
		if id, err := uuid.Parse(strings.TrimPrefix(ch, "challenge:")); err == nil && strings.HasPrefix(ch, "challenge:") {
			h.hub.AddChannel(client, realtime.ChallengeChannel(id))
		}
	}
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
