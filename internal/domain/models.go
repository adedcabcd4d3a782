package domain

import "time"

// UserProfile is the persisted record for one authenticated player, keyed
// by the stable identifier issued by the host platform.
type UserProfile struct {
	ExternalID  int64   `json:"externalId"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	HighScore   int     `json:"highScore"`
}

// LeaderboardEntry is the ranked projection of a profile.
type LeaderboardEntry struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	HighScore int     `json:"highScore"`
}

// Leaderboard captures one snapshot of the ranked view; it is not
// live-updating.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Question is one entry of the static trivia catalog. Not persisted;
// effectively configuration data.
type Question struct {
	ID                 int      `json:"id"`
	Plot               string   `json:"plot"`
	Answer             string   `json:"answer"`
	Author             string   `json:"author"`
	AlternativeAnswers []string `json:"alternativeAnswers,omitempty"`
}

// Matches reports whether guess is an acceptable answer to the question.
func (q Question) Matches(guess string) bool {
	return CheckGuess(guess, q.Answer, q.AlternativeAnswers)
}

// GuessResult summarizes the outcome of a single guess within a round.
type GuessResult struct {
	QuestionID int  `json:"questionId"`
	Correct    bool `json:"correct"`
	Score      int  `json:"score"`
}

// RoundSummary is sent when a play-through completes.
type RoundSummary struct {
	Score          int  `json:"score"`
	TotalQuestions int  `json:"totalQuestions"`
	NewHighScore   bool `json:"newHighScore"`
}
