package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"plotline-service/internal/domain"
)

// ProfileStore persists profiles in Postgres. The monotone high-score
// invariant lives in single SQL statements, so concurrent writers for the
// same external ID cannot lose updates.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// GetOrCreate inserts the profile if absent and returns the stored row.
// ON CONFLICT DO NOTHING makes racing creates converge on one record; the
// loser simply reads the winner's row. Profile fields on an existing row
// are left untouched.
func (s *ProfileStore) GetOrCreate(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (external_id, username, display_name, avatar_url, high_score)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (external_id) DO NOTHING`,
		profile.ExternalID, profile.Username, profile.DisplayName, profile.AvatarURL)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("create profile: %w", err)
	}
	return s.load(ctx, profile.ExternalID)
}

// RaiseHighScore sets high_score to max(high_score, score) in one atomic
// statement. No matching row means no rows updated, which is deliberately
// not an error.
func (s *ProfileStore) RaiseHighScore(ctx context.Context, externalID int64, score int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET high_score = GREATEST(high_score, $2)
		WHERE external_id = $1`,
		externalID, score)
	if err != nil {
		return fmt.Errorf("raise high score: %w", err)
	}
	return nil
}

// Leaderboard returns the ranked projection: positive scores only,
// descending, capped at limit.
func (s *ProfileStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT username, avatar_url, high_score FROM users
		WHERE high_score > 0
		ORDER BY high_score DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.Username, &entry.AvatarURL, &entry.HighScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return entries, nil
}

func (s *ProfileStore) load(ctx context.Context, externalID int64) (domain.UserProfile, error) {
	var profile domain.UserProfile
	err := s.pool.QueryRow(ctx, `
		SELECT external_id, username, display_name, avatar_url, high_score
		FROM users WHERE external_id = $1`,
		externalID).Scan(&profile.ExternalID, &profile.Username, &profile.DisplayName, &profile.AvatarURL, &profile.HighScore)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}
