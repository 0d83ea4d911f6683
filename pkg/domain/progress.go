package domain

import (
	"math"
	"time"
)

type QuizScore struct {
	Score       int   `json:"score"`
	Total       int   `json:"total"`
	Percentage  int   `json:"percentage"`
	LastAttempt int64 `json:"lastAttempt"`
}

func NewQuizScore(score, total int, at time.Time) QuizScore {
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}
	return QuizScore{
		Score:       score,
		Total:       total,
		Percentage:  percentage,
		LastAttempt: at.UnixMilli(),
	}
}

type UserProgress struct {
	ReadLessons []string             `json:"readLessons"`
	QuizScores  map[string]QuizScore `json:"quizScores"`
}

func NewUserProgress() UserProgress {
	return UserProgress{
		ReadLessons: []string{},
		QuizScores:  map[string]QuizScore{},
	}
}

func LessonKey(moduleID, lessonID string) string {
	return moduleID + "_" + lessonID
}
