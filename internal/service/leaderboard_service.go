package service

import (
	"context"
	"fmt"
	"log"

	"manara/internal/cache"
	"manara/internal/repository"
)

// TopLimit is the number of entries the public leaderboard exposes
const TopLimit = 10

// LeaderboardService serves the top-10 ranking from the Redis sorted
// set and enriches entries with user profiles.
type LeaderboardService struct {
	cache        cache.LeaderboardCache
	progressRepo repository.ProgressRepo
	userRepo     repository.UserRepo
	broadcaster  Broadcaster
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(c cache.LeaderboardCache, progressRepo repository.ProgressRepo, userRepo repository.UserRepo) *LeaderboardService {
	return &LeaderboardService{
		cache:        c,
		progressRepo: progressRepo,
		userRepo:     userRepo,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *LeaderboardService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// GetTop returns the top entries with display names and avatars filled in
func (s *LeaderboardService) GetTop(ctx context.Context) ([]cache.LeaderboardEntry, error) {
	entries, err := s.cache.GetTop(ctx, TopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if len(entries) == 0 {
		return []cache.LeaderboardEntry{}, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard profiles: %w", err)
	}
	for i := range entries {
		if u, ok := users[entries[i].UserID]; ok {
			entries[i].DisplayName = u.FullName
			entries[i].AvatarURL = u.AvatarURL
		}
	}
	return entries, nil
}

// SetScore records the user's current challenge score in the ranking
func (s *LeaderboardService) SetScore(ctx context.Context, userID string, score int) error {
	return s.cache.SetScore(ctx, userID, score)
}

// Rank returns the 1-based rank of the user, 0 if unranked
func (s *LeaderboardService) Rank(ctx context.Context, userID string) (int64, error) {
	return s.cache.GetRank(ctx, userID)
}

// Publish pushes the current top entries to leaderboard subscribers
func (s *LeaderboardService) Publish(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	entries, err := s.GetTop(ctx)
	if err != nil {
		log.Printf("leaderboard publish failed: %v", err)
		return
	}
	s.broadcaster.BroadcastLeaderboard(entries)
}

// Rebuild reseeds the sorted set from the persisted progress records.
// Called at startup so the ranking survives a Redis flush.
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	records, err := s.progressRepo.TopByScore(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to load progress records: %w", err)
	}
	for _, rec := range records {
		if err := s.cache.SetScore(ctx, rec.UserID, rec.ChallengeScore); err != nil {
			return fmt.Errorf("failed to seed leaderboard: %w", err)
		}
	}
	return nil
}
