package app

import (
	"strings"

	"plotline-service/internal/catalog"
	"plotline-service/internal/domain"
)

// Round tracks one play-through of the catalog: current question, correct
// count, and per-question guess/reveal flags. It is held per connection
// and never persisted; use from a single goroutine.
type Round struct {
	catalog  *catalog.Catalog
	index    int
	score    int
	guessed  bool
	revealed bool
	finished bool
}

func NewRound(c *catalog.Catalog) *Round {
	r := &Round{catalog: c}
	if c.Len() == 0 {
		r.finished = true
	}
	return r
}

// Current returns the question in play.
func (r *Round) Current() (domain.Question, bool) {
	if r.finished {
		return domain.Question{}, false
	}
	return r.catalog.At(r.index)
}

// Guess scores a free-text guess against the current question. Each
// question accepts at most one guess, and none once its answer has been
// revealed.
func (r *Round) Guess(text string) (domain.GuessResult, error) {
	if r.finished {
		return domain.GuessResult{}, domain.ErrRoundFinished
	}
	if strings.TrimSpace(text) == "" {
		return domain.GuessResult{}, domain.ErrEmptyGuess
	}
	if r.guessed {
		return domain.GuessResult{}, domain.ErrAlreadyGuessed
	}
	if r.revealed {
		return domain.GuessResult{}, domain.ErrAnswerRevealed
	}

	question, _ := r.catalog.At(r.index)
	r.guessed = true
	correct := question.Matches(text)
	if correct {
		r.score++
	}
	return domain.GuessResult{
		QuestionID: question.ID,
		Correct:    correct,
		Score:      r.score,
	}, nil
}

// Reveal marks the current question revealed and returns it, answer
// included.
func (r *Round) Reveal() (domain.Question, error) {
	if r.finished {
		return domain.Question{}, domain.ErrRoundFinished
	}
	r.revealed = true
	question, _ := r.catalog.At(r.index)
	return question, nil
}

// Next advances to the following question, resetting per-question flags.
// It returns false once the catalog is exhausted, which finishes the
// round.
func (r *Round) Next() bool {
	if r.finished {
		return false
	}
	if r.index+1 >= r.catalog.Len() {
		r.finished = true
		return false
	}
	r.index++
	r.guessed = false
	r.revealed = false
	return true
}

// Index returns the zero-based position of the question in play.
func (r *Round) Index() int {
	return r.index
}

// Finished reports whether the round is complete.
func (r *Round) Finished() bool {
	return r.finished
}

// Score returns the accumulated correct count.
func (r *Round) Score() int {
	return r.score
}

// Summary describes the completed (or in-progress) round.
func (r *Round) Summary() domain.RoundSummary {
	return domain.RoundSummary{
		Score:          r.score,
		TotalQuestions: r.catalog.Len(),
	}
}
