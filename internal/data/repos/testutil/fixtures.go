package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/newomen/newme-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: "Test User",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.UserProfile {
	tb.Helper()
	p := &types.UserProfile{
		ID:     uuid.New(),
		UserID: userID,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedChallenge(tb testing.TB, ctx context.Context, tx *gorm.DB, initiatorID uuid.UUID, partnerID *uuid.UUID, questions []string) *types.CouplesChallenge {
	tb.Helper()
	qs, err := json.Marshal(types.QuestionSet{Title: "test", Questions: questions})
	if err != nil {
		tb.Fatalf("marshal question set: %v", err)
	}
	c := &types.CouplesChallenge{
		ID:          uuid.New(),
		InitiatorID: initiatorID,
		PartnerID:   partnerID,
		QuestionSet: datatypes.JSON(qs),
		Messages:    datatypes.JSON([]byte("[]")),
		Status:      types.ChallengeStatusActive,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed challenge: %v", err)
	}
	return c
}

func SeedMessages(tb testing.TB, ctx context.Context, tx *gorm.DB, challengeID uuid.UUID, msgs []types.ChallengeMessage) {
	tb.Helper()
	raw, err := json.Marshal(msgs)
	if err != nil {
		tb.Fatalf("marshal messages: %v", err)
	}
	if err := tx.WithContext(ctx).
		Model(&types.CouplesChallenge{}).
		Where("id = ?", challengeID).
		Updates(map[string]interface{}{"messages": datatypes.JSON(raw), "updated_at": time.Now().UTC()}).Error; err != nil {
		tb.Fatalf("seed messages: %v", err)
	}
}

func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Assessment {
	tb.Helper()
	a := &types.Assessment{
		ID:           uuid.New(),
		Title:        title,
		PassingScore: 70,
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	return a
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, assessmentID uuid.UUID) *types.AssessmentAttempt {
	tb.Helper()
	at := &types.AssessmentAttempt{
		ID:           uuid.New(),
		UserID:       userID,
		AssessmentID: assessmentID,
		Responses:    datatypes.JSON([]byte(`{"q1":"answer"}`)),
		Status:       types.AttemptStatusSubmitted,
	}
	if err := tx.WithContext(ctx).Create(at).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return at
}
