package app

import (
	"context"
	"log"
	"time"

	"plotline-service/internal/domain"
)

// ProfileRepository abstracts how profiles are stored (Postgres, in-memory,
// or a caching decorator).
type ProfileRepository interface {
	// GetOrCreate looks up the profile by its external ID and inserts it
	// with a zero high score when absent. Profile fields on an existing
	// record are never updated (first-write-wins). Implementations must be
	// safe under concurrent creates for the same ID: the loser of the race
	// reads the winner's record instead of erroring.
	GetOrCreate(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
	// RaiseHighScore atomically sets the stored high score to
	// max(stored, score). A missing profile is a silent no-op.
	RaiseHighScore(ctx context.Context, externalID int64, score int) error
	// Leaderboard returns entries with high score > 0, ordered descending,
	// truncated to limit.
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// DefaultLeaderboardLimit caps ranked views unless configured otherwise.
const DefaultLeaderboardLimit = 50

// ProfileService contains the score ledger use cases.
type ProfileService struct {
	profiles ProfileRepository
	feed     *LeaderboardFeed
	limit    int
	now      func() time.Time
}

func NewProfileService(profiles ProfileRepository, limit int) *ProfileService {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return &ProfileService{
		profiles: profiles,
		feed:     NewLeaderboardFeed(),
		limit:    limit,
		now:      time.Now,
	}
}

// SignIn resolves the authenticated identity to its profile, creating it
// lazily on first sight.
func (s *ProfileService) SignIn(ctx context.Context, externalID int64, username, displayName string, avatarURL *string) (domain.UserProfile, error) {
	return s.profiles.GetOrCreate(ctx, domain.UserProfile{
		ExternalID:  externalID,
		Username:    username,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	})
}

// ReportScore raises the stored high score to at least score and pushes a
// refreshed snapshot to live leaderboard subscribers. Blind retry is safe:
// the raise is an idempotent max.
func (s *ProfileService) ReportScore(ctx context.Context, externalID int64, score int) error {
	if score < 0 {
		return domain.ErrInvalidScore
	}
	if err := s.profiles.RaiseHighScore(ctx, externalID, score); err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

// Leaderboard returns the current ranked snapshot.
func (s *ProfileService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	entries, err := s.profiles.Leaderboard(ctx, s.limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// Subscribe returns a channel receiving leaderboard snapshots whenever a
// high score is raised. The caller must invoke cancel to avoid leaks.
func (s *ProfileService) Subscribe() (<-chan domain.Leaderboard, func()) {
	return s.feed.Subscribe()
}

func (s *ProfileService) publish(ctx context.Context) {
	lb, err := s.Leaderboard(ctx)
	if err != nil {
		log.Printf("leaderboard refresh failed: %v", err)
		return
	}
	s.feed.Publish(lb)
}
