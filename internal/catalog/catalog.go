// Package catalog holds the static question set. Questions are ordered
// configuration data, never persisted.
package catalog

import "plotline-service/internal/domain"

// Catalog is an ordered, immutable set of questions.
type Catalog struct {
	questions []domain.Question
}

// New builds a catalog from an explicit question list (useful for tests).
func New(questions []domain.Question) *Catalog {
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return &Catalog{questions: qs}
}

// Default returns the built-in book set.
func Default() *Catalog {
	return New(defaultQuestions())
}

// Len reports the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// At returns the question at position i.
func (c *Catalog) At(i int) (domain.Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return domain.Question{}, false
	}
	return c.questions[i], true
}

// All returns a copy of the question list in play order.
func (c *Catalog) All() []domain.Question {
	qs := make([]domain.Question, len(c.questions))
	copy(qs, c.questions)
	return qs
}

func defaultQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     1,
			Plot:   "A young wizard discovers he's famous in the magical world and must attend a school of witchcraft and wizardry, where he learns about his past and faces a dark lord.",
			Answer: "Harry Potter and the Philosopher's Stone",
			Author: "J.K. Rowling",
			AlternativeAnswers: []string{
				"Harry Potter and the Sorcerer's Stone",
				"Harry Potter",
				"Philosopher's Stone",
				"Sorcerer's Stone",
			},
		},
		{
			ID:                 2,
			Plot:               "In a dystopian future, a young woman volunteers to take her sister's place in a televised fight to the death, sparking a revolution against an oppressive government.",
			Answer:             "The Hunger Games",
			Author:             "Suzanne Collins",
			AlternativeAnswers: []string{"Hunger Games"},
		},
		{
			ID:                 3,
			Plot:               "A hobbit is reluctantly swept into an epic quest to help a group of dwarves reclaim their mountain home from a fearsome dragon.",
			Answer:             "The Hobbit",
			Author:             "J.R.R. Tolkien",
			AlternativeAnswers: []string{"Hobbit"},
		},
		{
			ID:                 4,
			Plot:               "A mockingbird is killed in a small Southern town, serving as a metaphor for the destruction of innocence as a young girl witnesses racial injustice.",
			Answer:             "To Kill a Mockingbird",
			Author:             "Harper Lee",
			AlternativeAnswers: []string{"To Kill A Mockingbird", "Kill a Mockingbird"},
		},
		{
			ID:                 5,
			Plot:               "In a totalitarian society, a man working at the Ministry of Truth begins to question the regime and falls in love, leading to his ultimate downfall.",
			Answer:             "1984",
			Author:             "George Orwell",
			AlternativeAnswers: []string{"Nineteen Eighty-Four", "Nineteen Eighty Four"},
		},
	}
}
