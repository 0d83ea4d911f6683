package repository

import (
	"sync"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
)

type quizRepository struct {
	mu       sync.RWMutex
	attempts map[int64]domain.QuizAttempt
}

func NewQuizRepository() *quizRepository {
	return &quizRepository{
		attempts: make(map[int64]domain.QuizAttempt),
	}
}

func (q *quizRepository) Save(chatID int64, attempt domain.QuizAttempt) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.attempts[chatID] = attempt
}

func (q *quizRepository) Get(chatID int64) (domain.QuizAttempt, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	attempt, exists := q.attempts[chatID]
	return attempt, exists
}

func (q *quizRepository) Clear(chatID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.attempts, chatID)
}

// Advance records the answer to question index when the attempt is waiting
// for it. Each question advances the attempt at most once.
func (q *quizRepository) Advance(chatID int64, moduleID string, index int, correct bool) (domain.QuizAttempt, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	attempt, ok := q.attempts[chatID]
	if !ok || !attempt.Awaits(moduleID, index) {
		return domain.QuizAttempt{}, false
	}
	attempt.Current++
	if correct {
		attempt.Correct++
	}
	q.attempts[chatID] = attempt
	return attempt, true
}
