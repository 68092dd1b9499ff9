package loader

import (
	"math/rand"

	"quiz-runner/internal/domain"
)

// Shuffle returns a uniformly permuted copy of questions; the input is left intact.
func Shuffle(rnd *rand.Rand, questions []domain.Question) []domain.Question {
	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
