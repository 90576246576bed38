package service

import (
	"context"
	"fmt"

	"manara/internal/cache"
	"manara/internal/model"
	"manara/internal/repository"
)

// DashboardStats is the admin overview payload
type DashboardStats struct {
	QuestionCount   int   `json:"questionCount"`
	SessionsStarted int64 `json:"sessionsStarted"`
	AnswersRecorded int64 `json:"answersRecorded"`
	Timeouts        int64 `json:"timeouts"`
	PenaltiesIssued int64 `json:"penaltiesIssued"`
	TopScore        int   `json:"topScore"`
	RankedStudents  int   `json:"rankedStudents"`
}

// DashboardService aggregates the admin overview from the stats hash
// and the persisted progress records.
type DashboardService struct {
	stats        cache.StatsCache
	questionRepo repository.QuestionRepo
	progressRepo repository.ProgressRepo
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(stats cache.StatsCache, questionRepo repository.QuestionRepo, progressRepo repository.ProgressRepo) *DashboardService {
	return &DashboardService{stats: stats, questionRepo: questionRepo, progressRepo: progressRepo}
}

// GetStats builds the overview. Admin and owner only.
func (s *DashboardService) GetStats(ctx context.Context, role model.Role) (*DashboardStats, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}

	counters, err := s.stats.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	bank, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}

	records, err := s.progressRepo.TopByScore(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress records: %w", err)
	}
	topScore := 0
	if len(records) > 0 {
		topScore = records[0].ChallengeScore
	}

	return &DashboardStats{
		QuestionCount:   len(bank),
		SessionsStarted: counters[cache.StatSessionsStarted],
		AnswersRecorded: counters[cache.StatAnswersRecorded],
		Timeouts:        counters[cache.StatTimeouts],
		PenaltiesIssued: counters[cache.StatPenaltiesIssued],
		TopScore:        topScore,
		RankedStudents:  len(records),
	}, nil
}
