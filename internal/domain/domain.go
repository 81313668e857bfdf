package domain

import (
	"github.com/newomen/newme-backend/internal/domain/ai"
	"github.com/newomen/newme-backend/internal/domain/assessments"
	"github.com/newomen/newme-backend/internal/domain/challenges"
	"github.com/newomen/newme-backend/internal/domain/gamification"
	"github.com/newomen/newme-backend/internal/domain/user"
)

type User = user.User
type UserProfile = user.UserProfile

type CouplesChallenge = challenges.CouplesChallenge
type ChallengeTemplate = challenges.ChallengeTemplate
type QuestionSet = challenges.QuestionSet
type ChallengeMessage = challenges.Message

type Assessment = assessments.Assessment
type AssessmentAttempt = assessments.AssessmentAttempt
type AssessmentProgress = assessments.AssessmentProgress

type CrystalTransaction = gamification.CrystalTransaction
type Achievement = gamification.Achievement
type UserAchievement = gamification.UserAchievement

type AIUsageLog = ai.AIUsageLog

const (
	ChallengeStatusActive    = challenges.StatusActive
	ChallengeStatusComplete  = challenges.StatusComplete
	ChallengeStatusAnalyzed  = challenges.StatusAnalyzed
	ChallengeStatusCancelled = challenges.StatusCancelled

	SenderUser    = challenges.SenderUser
	SenderPartner = challenges.SenderPartner
	SenderAI      = challenges.SenderAI
	SenderSystem  = challenges.SenderSystem

	AttemptStatusInProgress = assessments.AttemptStatusInProgress
	AttemptStatusSubmitted  = assessments.AttemptStatusSubmitted
	AttemptStatusCompleted  = assessments.AttemptStatusCompleted

	SourceAssessmentCompletion       = gamification.SourceAssessmentCompletion
	SourceDailyLogin                 = gamification.SourceDailyLogin
	SourceConversationCompletion     = gamification.SourceConversationCompletion
	SourceCouplesChallengeCompletion = gamification.SourceCouplesChallengeCompletion
	SourceWellnessResourceCompletion = gamification.SourceWellnessResourceCompletion
	SourceMakeConnection             = gamification.SourceMakeConnection
)
