package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newomen/newme-backend/internal/platform/logger"
)

// RewardsNotifier dispatches "challenge completed" reward events. The
// analysis flow treats dispatch as best-effort; failures are logged and never
// surfaced to the caller.
type RewardsNotifier interface {
	ChallengeCompleted(ctx context.Context, userID, challengeID uuid.UUID) error
}

// localRewardsNotifier awards crystals through the in-process gamification
// engine.
type localRewardsNotifier struct {
	log          *logger.Logger
	gamification GamificationService
}

func NewLocalRewardsNotifier(log *logger.Logger, gamification GamificationService) RewardsNotifier {
	return &localRewardsNotifier{
		log:          log.With("service", "RewardsNotifier"),
		gamification: gamification,
	}
}

func (n *localRewardsNotifier) ChallengeCompleted(ctx context.Context, userID, challengeID uuid.UUID) error {
	_, err := n.gamification.RewardActivity(ctx, userID, "complete_couples_challenge", &challengeID, "couples_challenge")
	return err
}

// httpRewardsNotifier posts reward events to an external gamification engine.
// Selected when GAMIFICATION_ENGINE_URL is set.
type httpRewardsNotifier struct {
	log     *logger.Logger
	client  *http.Client
	baseURL string
	token   string
}

func NewHTTPRewardsNotifier(log *logger.Logger) (RewardsNotifier, error) {
	baseURL := strings.TrimSpace(os.Getenv("GAMIFICATION_ENGINE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing GAMIFICATION_ENGINE_URL")
	}
	return &httpRewardsNotifier{
		log:     log.With("service", "HTTPRewardsNotifier"),
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(os.Getenv("GAMIFICATION_ENGINE_TOKEN")),
	}, nil
}

func (n *httpRewardsNotifier) ChallengeCompleted(ctx context.Context, userID, challengeID uuid.UUID) error {
	body, err := json.Marshal(map[string]any{
		"type": "complete_couples_challenge",
		"payload": map[string]string{
			"userId":      userID.String(),
			"challengeId": challengeID.String(),
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gamification engine returned %d", resp.StatusCode)
	}
	return nil
}
