package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/learn"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/progress"
	"github.com/dskvich/nyay-sahayak-bot/pkg/render"
	"github.com/dskvich/nyay-sahayak-bot/pkg/session"
)

type ProgressTracker interface {
	Get(ctx context.Context, userID int64) (domain.UserProgress, error)
	MarkLessonRead(ctx context.Context, userID int64, moduleID, lessonID string) (domain.UserProgress, error)
	MarkLessonUnread(ctx context.Context, userID int64, moduleID, lessonID string) (domain.UserProgress, error)
	IsLessonRead(ctx context.Context, userID int64, moduleID, lessonID string) (bool, error)
	SaveQuizResult(ctx context.Context, userID int64, moduleID string, score, total int) (domain.UserProgress, error)
	GetQuizResult(ctx context.Context, userID int64, moduleID string) (domain.QuizScore, bool, error)
}

type QuizRepository interface {
	Save(chatID int64, attempt domain.QuizAttempt)
	Get(chatID int64) (domain.QuizAttempt, bool)
	Advance(chatID int64, moduleID string, index int, correct bool) (domain.QuizAttempt, bool)
	Clear(chatID int64)
}

// Flashcard sides carried in callback data.
const (
	FlashcardMyth = "myth"
	FlashcardFact = "fact"
)

type learnService struct {
	catalog   *learn.Catalog
	tracker   ProgressTracker
	quizRepo  QuizRepository
	sessions  SessionManager
	responder Responder
}

func NewLearnService(
	catalog *learn.Catalog,
	tracker ProgressTracker,
	quizRepo QuizRepository,
	sessions SessionManager,
	responder Responder,
) *learnService {
	return &learnService{
		catalog:   catalog,
		tracker:   tracker,
		quizRepo:  quizRepo,
		sessions:  sessions,
		responder: responder,
	}
}

func (l *learnService) notFound(ctx context.Context, sess *session.Session, chatID int64, err error) {
	slog.WarnContext(ctx, "Learning content not found", logger.Err(err))
	sendText(ctx, l.responder, sess, chatID, messageExpiredText)
}

func (l *learnService) ShowModules(ctx context.Context, chatID, userID int64) {
	sess := l.sessions.Get(ctx, userID)

	buttons := lo.Map(l.catalog.Modules, func(m domain.LearningModule, _ int) domain.Button {
		return domain.Button{Label: "📘 " + sess.Translate(ctx, m.Title), Data: domain.ShowModuleCallbackPrefix + m.ID}
	})
	buttons = append(buttons, domain.Button{Label: "📊 " + sess.Translate(ctx, "My progress"), Data: domain.ShowProgressCallback})

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         sess.Translate(ctx, "Welcome to your legal learning hub. Choose a module:"),
			Buttons:       buttons,
			ButtonsPerRow: 1,
		},
	})
}

func (l *learnService) ShowModule(ctx context.Context, chatID, userID int64, moduleID string) {
	sess := l.sessions.Get(ctx, userID)

	module, err := l.catalog.Module(moduleID)
	if err != nil {
		l.notFound(ctx, sess, chatID, err)
		return
	}

	p, err := l.tracker.Get(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Loading progress failed", logger.Err(err))
		p = domain.NewUserProgress()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n%s", sess.Translate(ctx, module.Title), sess.Translate(ctx, lo.Ternary(module.LongDescription != "", module.LongDescription, module.Description)))

	buttons := make([]domain.Button, 0, len(module.Lessons)+2)
	for i, lesson := range module.Lessons {
		mark := lo.Ternary(lo.Contains(p.ReadLessons, domain.LessonKey(module.ID, lesson.ID)), "✅", "▫️")
		buttons = append(buttons, domain.Button{
			Label: fmt.Sprintf("%s %d. %s", mark, i+1, sess.Translate(ctx, lesson.Title)),
			Data:  domain.ShowLessonCallbackPrefix + module.ID + ":" + lesson.ID,
		})
	}

	if len(module.Quiz) > 0 {
		label := "📝 " + sess.Translate(ctx, "Take the quiz")
		if score, ok := p.QuizScores[module.ID]; ok {
			label += fmt.Sprintf(" (%d%%)", score.Percentage)
		}
		buttons = append(buttons, domain.Button{Label: label, Data: domain.StartQuizCallbackPrefix + module.ID})
	}
	buttons = append(buttons, domain.Button{Label: "⬅️ " + sess.Translate(ctx, "All modules"), Data: domain.ShowModulesCallback})

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         sb.String(),
			Buttons:       buttons,
			ButtonsPerRow: 1,
		},
	})
}

// ShowLesson renders a lesson translated item by item.
func (l *learnService) ShowLesson(ctx context.Context, chatID, userID int64, moduleID, lessonID string) {
	sess := l.sessions.Get(ctx, userID)

	module, lesson, err := l.catalog.Lesson(moduleID, lessonID)
	if err != nil {
		l.notFound(ctx, sess, chatID, err)
		return
	}

	read, err := l.tracker.IsLessonRead(ctx, userID, moduleID, lessonID)
	if err != nil {
		slog.WarnContext(ctx, "Loading progress failed", logger.Err(err))
	}

	body := learn.Markdown(lesson.Content, func(s string) string { return sess.Translate(ctx, s) })
	text := render.ToHTML("# " + sess.Translate(ctx, lesson.Title) + "\n\n" + body)

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID:   chatID,
		Text:     text,
		HTML:     true,
		Keyboard: l.lessonKeyboard(ctx, sess, module, lesson.ID, read),
	})
}

func (l *learnService) lessonKeyboard(ctx context.Context, sess *session.Session, module domain.LearningModule, lessonID string, read bool) *domain.Keyboard {
	ref := module.ID + ":" + lessonID

	toggle := domain.Button{Label: "✅ " + sess.Translate(ctx, "Mark as read"), Data: domain.MarkReadCallbackPrefix + ref}
	if read {
		toggle = domain.Button{Label: "↩️ " + sess.Translate(ctx, "Mark as unread"), Data: domain.MarkUnreadCallbackPrefix + ref}
	}
	buttons := []domain.Button{toggle}

	_, idx, _ := lo.FindIndexOf(module.Lessons, func(ls domain.Lesson) bool { return ls.ID == lessonID })
	if idx >= 0 && idx+1 < len(module.Lessons) {
		buttons = append(buttons, domain.Button{
			Label: "➡️ " + sess.Translate(ctx, "Next lesson"),
			Data:  domain.ShowLessonCallbackPrefix + module.ID + ":" + module.Lessons[idx+1].ID,
		})
	} else if len(module.Quiz) > 0 {
		buttons = append(buttons, domain.Button{
			Label: "📝 " + sess.Translate(ctx, "Take the quiz"),
			Data:  domain.StartQuizCallbackPrefix + module.ID,
		})
	}
	buttons = append(buttons, domain.Button{Label: "⬅️ " + sess.Translate(ctx, "Back to module"), Data: domain.ShowModuleCallbackPrefix + module.ID})

	return &domain.Keyboard{Buttons: buttons, ButtonsPerRow: 1}
}

// SetLessonRead marks or unmarks a lesson as read and confirms it.
func (l *learnService) SetLessonRead(ctx context.Context, chatID, userID int64, moduleID, lessonID string, read bool) {
	sess := l.sessions.Get(ctx, userID)

	module, lesson, err := l.catalog.Lesson(moduleID, lessonID)
	if err != nil {
		l.notFound(ctx, sess, chatID, err)
		return
	}

	if read {
		_, err = l.tracker.MarkLessonRead(ctx, userID, moduleID, lessonID)
	} else {
		_, err = l.tracker.MarkLessonUnread(ctx, userID, moduleID, lessonID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Saving lesson progress failed", "moduleID", moduleID, "lessonID", lessonID, logger.Err(err))
		sendText(ctx, l.responder, sess, chatID, "Sorry, your progress could not be saved. Please try again.")
		return
	}

	title := lo.Ternary(read, "Lesson marked as read:", "Lesson marked as unread:")
	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         sess.Translate(ctx, title) + " " + sess.Translate(ctx, lesson.Title),
			Buttons:       l.lessonKeyboard(ctx, sess, module, lesson.ID, read).Buttons,
			ButtonsPerRow: 1,
		},
	})
}

func (l *learnService) StartQuiz(ctx context.Context, chatID, userID int64, moduleID string) {
	sess := l.sessions.Get(ctx, userID)

	module, err := l.catalog.Module(moduleID)
	if err != nil {
		l.notFound(ctx, sess, chatID, err)
		return
	}
	if len(module.Quiz) == 0 {
		sendText(ctx, l.responder, sess, chatID, "This module has no quiz yet.")
		return
	}

	last, taken, err := l.tracker.GetQuizResult(ctx, userID, module.ID)
	if err != nil {
		slog.WarnContext(ctx, "Loading quiz result failed", logger.Err(err))
	}
	if taken {
		l.responder.SendResponse(ctx, &domain.Response{
			ChatID: chatID,
			Text:   fmt.Sprintf("%s %d/%d (%d%%)", sess.Translate(ctx, "Your last score:"), last.Score, last.Total, last.Percentage),
		})
	}

	attempt := domain.QuizAttempt{ModuleID: module.ID, Total: len(module.Quiz)}
	l.quizRepo.Save(chatID, attempt)
	l.sendQuestion(ctx, sess, chatID, module, attempt)
}

func (l *learnService) sendQuestion(ctx context.Context, sess *session.Session, chatID int64, module domain.LearningModule, attempt domain.QuizAttempt) {
	q := module.Quiz[attempt.Current]
	prefix := domain.AnswerQuizCallbackPrefix + module.ID + ":" + strconv.Itoa(attempt.Current) + ":"

	buttons := lo.Map(q.Options, func(o domain.QuizOption, _ int) domain.Button {
		return domain.Button{Label: sess.Translate(ctx, o.Text), Data: prefix + o.ID}
	})

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         fmt.Sprintf("%s %d/%d\n\n%s", sess.Translate(ctx, "Question"), attempt.Current+1, attempt.Total, sess.Translate(ctx, q.Text)),
			Buttons:       buttons,
			ButtonsPerRow: 1,
		},
	})
}

// Answer grades the answer to question index of the running quiz. Answers to
// any other question are stale and ignored.
func (l *learnService) Answer(ctx context.Context, chatID, userID int64, moduleID string, index int, optionID string) {
	sess := l.sessions.Get(ctx, userID)

	attempt, ok := l.quizRepo.Get(chatID)
	if !ok || !attempt.Awaits(moduleID, index) {
		sendText(ctx, l.responder, sess, chatID, messageExpiredText)
		return
	}

	module, err := l.catalog.Module(moduleID)
	if err != nil || index >= len(module.Quiz) {
		l.quizRepo.Clear(chatID)
		l.notFound(ctx, sess, chatID, fmt.Errorf("question %d of %q: %w", index, moduleID, domain.ErrNotFound))
		return
	}

	q := module.Quiz[index]
	correct := learn.Grade(q, optionID)

	// a concurrent press of the same question may have won since Get
	attempt, ok = l.quizRepo.Advance(chatID, moduleID, index, correct)
	if !ok {
		sendText(ctx, l.responder, sess, chatID, messageExpiredText)
		return
	}

	var sb strings.Builder
	if correct {
		sb.WriteString("✅ " + sess.Translate(ctx, "Correct!"))
	} else {
		sb.WriteString("❌ " + sess.Translate(ctx, "Incorrect. The correct answer is:") + " " + sess.Translate(ctx, learn.CorrectOption(q).Text))
	}
	if q.Explanation != "" {
		sb.WriteString("\n\n" + sess.Translate(ctx, q.Explanation))
	}

	l.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Text: sb.String()})

	if !attempt.Finished() {
		l.sendQuestion(ctx, sess, chatID, module, attempt)
		return
	}

	l.quizRepo.Clear(chatID)
	p, err := l.tracker.SaveQuizResult(ctx, userID, moduleID, attempt.Correct, attempt.Total)
	if err != nil {
		slog.ErrorContext(ctx, "Saving quiz result failed", "moduleID", moduleID, logger.Err(err))
	}
	score, ok := p.QuizScores[moduleID]
	if !ok {
		score = domain.NewQuizScore(attempt.Correct, attempt.Total, time.Now())
	}

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title: fmt.Sprintf("🏁 %s %d/%d (%d%%)",
				sess.Translate(ctx, "Quiz complete! Your score:"), score.Score, score.Total, score.Percentage),
			Buttons: []domain.Button{
				{Label: "🔁 " + sess.Translate(ctx, "Retake the quiz"), Data: domain.StartQuizCallbackPrefix + moduleID},
				{Label: "⬅️ " + sess.Translate(ctx, "Back to module"), Data: domain.ShowModuleCallbackPrefix + moduleID},
			},
			ButtonsPerRow: 1,
		},
	})
}

func (l *learnService) ShowProgress(ctx context.Context, chatID, userID int64) {
	sess := l.sessions.Get(ctx, userID)

	p, err := l.tracker.Get(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Loading progress failed", logger.Err(err))
		p = domain.NewUserProgress()
	}
	summary := progress.Summarize(l.catalog.Modules, p)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s\n\n%s: %d%%\n%s: %d/%d\n",
		sess.Translate(ctx, "Your Learning Progress"),
		sess.Translate(ctx, "Overall Progress"), summary.Percentage,
		sess.Translate(ctx, "Lessons Completed"), summary.LessonsRead, summary.Lessons,
	)
	for _, m := range summary.Modules {
		mark := lo.Ternary(m.Completed, "🏆", "📘")
		fmt.Fprintf(&sb, "\n%s %s\n   %d/%d · ", mark, sess.Translate(ctx, m.Title), m.LessonsRead, m.Lessons)
		if m.Quiz != nil {
			fmt.Fprintf(&sb, "%s %d%%", sess.Translate(ctx, "Quiz Taken:"), m.Quiz.Percentage)
		} else {
			sb.WriteString(sess.Translate(ctx, "Quiz not taken yet"))
		}
	}

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         sb.String(),
			Buttons:       []domain.Button{{Label: "📚 " + sess.Translate(ctx, "Start Learning"), Data: domain.ShowModulesCallback}},
			ButtonsPerRow: 1,
		},
	})
}

// ShowFlashcard shows one side of the card at index, which wraps around.
func (l *learnService) ShowFlashcard(ctx context.Context, chatID, userID int64, index int, side string) {
	sess := l.sessions.Get(ctx, userID)

	if len(l.catalog.Flashcards) == 0 {
		sendText(ctx, l.responder, sess, chatID, "There are no flashcards yet.")
		return
	}
	card, idx := l.catalog.Flashcard(index)
	ref := func(i int, s string) string {
		return domain.FlashcardCallbackPrefix + strconv.Itoa(i) + ":" + s
	}

	var title string
	var buttons []domain.Button
	if side == FlashcardFact {
		title = fmt.Sprintf("💡 %s\n\n%s", sess.Translate(ctx, card.Title), sess.Translate(ctx, card.Fact))
		buttons = []domain.Button{
			{Label: "🔄 " + sess.Translate(ctx, "Show myth"), Data: ref(idx, FlashcardMyth)},
			{Label: sess.Translate(ctx, "Next") + " ➡️", Data: ref(idx+1, FlashcardMyth)},
		}
	} else {
		title = fmt.Sprintf("🃏 %d/%d %s\n\n%s: %s",
			idx+1, len(l.catalog.Flashcards), sess.Translate(ctx, card.Title),
			sess.Translate(ctx, "Myth"), sess.Translate(ctx, card.Misconception))
		buttons = []domain.Button{
			{Label: "⬅️", Data: ref(idx-1, FlashcardMyth)},
			{Label: "💡 " + sess.Translate(ctx, "Reveal fact"), Data: ref(idx, FlashcardFact)},
			{Label: "➡️", Data: ref(idx+1, FlashcardMyth)},
		}
	}

	l.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Keyboard: &domain.Keyboard{
			Title:         title,
			Buttons:       buttons,
			ButtonsPerRow: 3,
		},
	})
}
