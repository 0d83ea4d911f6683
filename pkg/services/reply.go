package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/session"
	"github.com/dskvich/nyay-sahayak-bot/pkg/stream"
)

// Responder delivers messages to a chat.
type Responder interface {
	SendResponse(ctx context.Context, resp *domain.Response)
	// PublishSnapshot shows a reply while it grows. All snapshots with the same
	// ID edit one message; the terminal snapshot is always delivered.
	PublishSnapshot(ctx context.Context, chatID int64, s domain.Snapshot, keyboard *domain.Keyboard)
}

type SessionManager interface {
	Get(ctx context.Context, userID int64) *session.Session
	End(userID int64)
}

// sendText translates an English text into the session language and sends it.
func sendText(ctx context.Context, r Responder, sess *session.Session, chatID int64, text string) {
	r.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Text:   sess.Translate(ctx, text),
	})
}

func speakKeyboard(replyID string) *domain.Keyboard {
	return &domain.Keyboard{
		Buttons:       []domain.Button{{Label: speakLabel, Data: domain.SpeakCallbackPrefix + replyID}},
		ButtonsPerRow: 1,
	}
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// streamReply runs a generation and shows it in chatID. Loading snapshots are
// shown as generated; the final text is translated into the session language
// before it replaces them. The returned snapshot is the one delivered last.
func streamReply(ctx context.Context, r Responder, sess *session.Session, chatID int64, open stream.Opener) domain.Snapshot {
	agg := stream.Aggregator{
		ErrorText: sess.Translate(ctx, generationErrorText),
		Logger:    slog.Default(),
	}

	var final domain.Snapshot
	agg.Run(ctx, uuid.NewString(), open, func(s domain.Snapshot) {
		if s.Terminal() {
			final = s
			return
		}
		r.PublishSnapshot(ctx, chatID, s, nil)
	})

	// The terminal snapshot reaches the chat even when the request was cancelled.
	deliverCtx := context.WithoutCancel(ctx)

	var keyboard *domain.Keyboard
	switch {
	case final.Err != nil && cancelled(final.Err):
		if strings.TrimSpace(final.Text) == "" {
			final.Text = sess.Translate(deliverCtx, generationErrorText)
		}
	case final.Err != nil:
	case strings.TrimSpace(final.Text) == "":
		final.Text = sess.Translate(deliverCtx, emptyReplyText)
	default:
		final.Text = sess.Translate(deliverCtx, final.Text)
		keyboard = speakKeyboard(final.ID)
	}

	r.PublishSnapshot(deliverCtx, chatID, final, keyboard)
	return final
}
