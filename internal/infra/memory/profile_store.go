package memory

import (
	"context"
	"sort"
	"sync"

	"plotline-service/internal/domain"
)

// ProfileStore is an in-memory implementation of app.ProfileRepository,
// used when no Postgres URL is configured and throughout the unit tests.
// A single mutex serializes every operation, which trivially gives the
// same atomic-max and create-once guarantees the SQL store gets from the
// database.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[int64]*domain.UserProfile
	order    []int64
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[int64]*domain.UserProfile),
	}
}

func (s *ProfileStore) GetOrCreate(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[profile.ExternalID]; ok {
		return *existing, nil
	}
	created := profile
	created.HighScore = 0
	s.profiles[profile.ExternalID] = &created
	s.order = append(s.order, profile.ExternalID)
	return created, nil
}

func (s *ProfileStore) RaiseHighScore(_ context.Context, externalID int64, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[externalID]
	if !ok {
		// Raising a score for an unknown profile is not an error; callers
		// create the profile first within the same flow.
		return nil
	}
	if score > profile.HighScore {
		profile.HighScore = score
	}
	return nil
}

func (s *ProfileStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(s.order))
	for _, id := range s.order {
		profile := s.profiles[id]
		if profile.HighScore <= 0 {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Username:  profile.Username,
			AvatarURL: profile.AvatarURL,
			HighScore: profile.HighScore,
		})
	}
	// Stable keeps insertion order among ties.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].HighScore > entries[j].HighScore
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
