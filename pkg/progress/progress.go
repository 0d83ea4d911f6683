// Package progress records which lessons a user has read and their quiz results.
package progress

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/storage"
)

func progressKey(userID int64) string {
	return "progress:" + strconv.FormatInt(userID, 10)
}

type Tracker struct {
	store storage.Store
	now   func() time.Time
}

func NewTracker(store storage.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Get returns the stored progress, or empty progress when nothing (or nothing readable) is stored.
func (t *Tracker) Get(ctx context.Context, userID int64) (domain.UserProgress, error) {
	p := domain.NewUserProgress()
	found, err := storage.GetJSON(ctx, t.store, progressKey(userID), &p)
	if err != nil {
		return domain.NewUserProgress(), fmt.Errorf("loading progress: %w", err)
	}
	if !found {
		return domain.NewUserProgress(), nil
	}
	if p.ReadLessons == nil {
		p.ReadLessons = []string{}
	}
	if p.QuizScores == nil {
		p.QuizScores = map[string]domain.QuizScore{}
	}
	return p, nil
}

func (t *Tracker) save(ctx context.Context, userID int64, p domain.UserProgress) error {
	if err := storage.SetJSON(ctx, t.store, progressKey(userID), p); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

func (t *Tracker) MarkLessonRead(ctx context.Context, userID int64, moduleID, lessonID string) (domain.UserProgress, error) {
	p, err := t.Get(ctx, userID)
	if err != nil {
		return p, err
	}

	key := domain.LessonKey(moduleID, lessonID)
	if lo.Contains(p.ReadLessons, key) {
		return p, nil
	}
	p.ReadLessons = append(p.ReadLessons, key)
	return p, t.save(ctx, userID, p)
}

func (t *Tracker) MarkLessonUnread(ctx context.Context, userID int64, moduleID, lessonID string) (domain.UserProgress, error) {
	p, err := t.Get(ctx, userID)
	if err != nil {
		return p, err
	}

	key := domain.LessonKey(moduleID, lessonID)
	p.ReadLessons = lo.Without(p.ReadLessons, key)
	return p, t.save(ctx, userID, p)
}

func (t *Tracker) IsLessonRead(ctx context.Context, userID int64, moduleID, lessonID string) (bool, error) {
	p, err := t.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return lo.Contains(p.ReadLessons, domain.LessonKey(moduleID, lessonID)), nil
}

// SaveQuizResult replaces the module's previous score with this attempt.
func (t *Tracker) SaveQuizResult(ctx context.Context, userID int64, moduleID string, score, total int) (domain.UserProgress, error) {
	p, err := t.Get(ctx, userID)
	if err != nil {
		return p, err
	}

	p.QuizScores[moduleID] = domain.NewQuizScore(score, total, t.now())
	return p, t.save(ctx, userID, p)
}

func (t *Tracker) GetQuizResult(ctx context.Context, userID int64, moduleID string) (domain.QuizScore, bool, error) {
	p, err := t.Get(ctx, userID)
	if err != nil {
		return domain.QuizScore{}, false, err
	}
	score, ok := p.QuizScores[moduleID]
	return score, ok, nil
}

type ModuleSummary struct {
	ModuleID    string
	Title       string
	LessonsRead int
	Lessons     int
	Quiz        *domain.QuizScore
	Completed   bool
}

type Summary struct {
	Modules     []ModuleSummary
	LessonsRead int
	Lessons     int
	Percentage  int
}

// Summarize computes the overview shown by /progress. A module is completed
// once every lesson is read and its quiz has been taken.
func Summarize(modules []domain.LearningModule, p domain.UserProgress) Summary {
	var s Summary
	for _, m := range modules {
		read := lo.CountBy(m.Lessons, func(l domain.Lesson) bool {
			return lo.Contains(p.ReadLessons, domain.LessonKey(m.ID, l.ID))
		})

		ms := ModuleSummary{
			ModuleID:    m.ID,
			Title:       m.Title,
			LessonsRead: read,
			Lessons:     len(m.Lessons),
		}
		if score, ok := p.QuizScores[m.ID]; ok {
			ms.Quiz = &score
		}
		ms.Completed = read == len(m.Lessons) && ms.Quiz != nil

		s.Modules = append(s.Modules, ms)
		s.LessonsRead += read
		s.Lessons += len(m.Lessons)
	}

	if s.Lessons > 0 {
		s.Percentage = int(math.Round(float64(s.LessonsRead) / float64(s.Lessons) * 100))
	}
	return s
}
