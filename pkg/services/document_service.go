package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
	"github.com/dskvich/nyay-sahayak-bot/pkg/session"
	"github.com/dskvich/nyay-sahayak-bot/pkg/stream"
)

type DocumentRepository interface {
	GetByChatID(chatID int64) (domain.Document, bool)
	Clear(chatID int64)
	Generation(chatID int64) uint64
	SaveIfCurrent(doc domain.Document, generation uint64) bool
}

type DocumentGenerator interface {
	StreamDocument(ctx context.Context, file domain.UploadedFile, history []domain.DocumentMessage, question string) (stream.FragmentStream, error)
}

type FileDownloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type documentService struct {
	docRepo    DocumentRepository
	generator  DocumentGenerator
	downloader FileDownloader
	sessions   SessionManager
	responder  Responder
	busy       *busyTracker
}

func NewDocumentService(
	docRepo DocumentRepository,
	generator DocumentGenerator,
	downloader FileDownloader,
	sessions SessionManager,
	responder Responder,
	busy *busyTracker,
) *documentService {
	return &documentService{
		docRepo:    docRepo,
		generator:  generator,
		downloader: downloader,
		sessions:   sessions,
		responder:  responder,
		busy:       busy,
	}
}

func (d *documentService) SendPrompt(ctx context.Context, chatID, userID int64) {
	sendText(ctx, d.responder, d.sessions.Get(ctx, userID), chatID, documentPromptText)
}

func (d *documentService) HasDocument(chatID int64) bool {
	_, ok := d.docRepo.GetByChatID(chatID)
	return ok
}

// current returns the chat's document with the generation it was read in.
func (d *documentService) current(chatID int64) (domain.Document, uint64, bool) {
	generation := d.docRepo.Generation(chatID)
	doc, ok := d.docRepo.GetByChatID(chatID)
	return doc, generation, ok
}

func uploadErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return documentTooLargeText
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return documentTypeText
	default:
		return documentErrorText
	}
}

// Upload replaces the chat's document with the file behind fileID and streams
// a summary of it. A caption, when present, is asked instead of the summary.
func (d *documentService) Upload(ctx context.Context, chatID, userID int64, fileID string, file domain.UploadedFile, caption string) {
	sess := d.sessions.Get(ctx, userID)
	if err := d.busy.acquire(chatID); err != nil {
		slog.InfoContext(ctx, "Rejected request", logger.Err(err))
		sendText(ctx, d.responder, sess, chatID, busyText)
		return
	}
	defer d.busy.release(chatID)

	if err := file.ValidateMeta(); err != nil {
		slog.InfoContext(ctx, "Rejected document upload", "name", file.Name, logger.Err(err))
		sendText(ctx, d.responder, sess, chatID, uploadErrorText(err))
		return
	}

	data, err := d.downloader.DownloadFile(ctx, fileID)
	if err != nil {
		slog.ErrorContext(ctx, "Downloading document failed", "fileID", fileID, logger.Err(err))
		sendText(ctx, d.responder, sess, chatID, documentErrorText)
		return
	}
	file.Data = data
	file.Size = len(data)

	if err := file.Validate(); err != nil {
		slog.InfoContext(ctx, "Rejected downloaded document", "name", file.Name, logger.Err(err))
		sendText(ctx, d.responder, sess, chatID, uploadErrorText(err))
		return
	}

	d.docRepo.Clear(chatID)
	generation := d.docRepo.Generation(chatID)
	doc := domain.Document{ChatID: chatID, File: file}

	question := lo.Ternary(caption != "", caption, summaryPrompt)
	slog.InfoContext(ctx, "Analyzing document", "name", file.Name, "mimeType", file.MimeType, "size", file.Size)

	d.ask(ctx, sess, doc, generation, question, caption == "")
}

// Ask answers a question about the chat's document.
func (d *documentService) Ask(ctx context.Context, chatID, userID int64, question string) {
	sess := d.sessions.Get(ctx, userID)
	if err := d.busy.acquire(chatID); err != nil {
		slog.InfoContext(ctx, "Rejected request", logger.Err(err))
		sendText(ctx, d.responder, sess, chatID, busyText)
		return
	}
	defer d.busy.release(chatID)

	doc, generation, ok := d.current(chatID)
	if !ok {
		sendText(ctx, d.responder, sess, chatID, noDocumentText)
		return
	}
	d.ask(ctx, sess, doc, generation, question, false)
}

// ask expects the caller to hold the chat's busy flag. A summary question is
// not kept in the history; only its answer is. Nothing is kept when the
// document was closed after generation was read.
func (d *documentService) ask(ctx context.Context, sess *session.Session, doc domain.Document, generation uint64, question string, summary bool) {
	history := doc.History()

	if !summary {
		doc.Messages = append(doc.Messages, domain.DocumentMessage{
			ChatMessage: domain.ChatMessage{
				ID:        uuid.NewString(),
				Text:      question,
				Sender:    domain.SenderUser,
				Language:  sess.Language(),
				Timestamp: time.Now(),
			},
		})
	}

	final := streamReply(ctx, d.responder, sess, doc.ChatID, func(ctx context.Context) (stream.FragmentStream, error) {
		return d.generator.StreamDocument(ctx, doc.File, history, question)
	})

	if final.Err == nil {
		doc.Messages = append(doc.Messages, domain.DocumentMessage{
			ChatMessage: domain.ChatMessage{
				ID:        final.ID,
				Text:      final.Text,
				Sender:    domain.SenderBot,
				Language:  sess.Language(),
				Timestamp: time.Now(),
			},
			IsSummary: summary,
		})
		if summary {
			doc.Summary = final.Text
		}
	}
	if !d.docRepo.SaveIfCurrent(doc, generation) {
		slog.InfoContext(ctx, "Document was closed during the reply, dropping the turn", "chatID", doc.ChatID)
	}
}

// Done closes the chat's document and returns it to the legal chat.
func (d *documentService) Done(ctx context.Context, chatID, userID int64) {
	sess := d.sessions.Get(ctx, userID)
	if !d.HasDocument(chatID) {
		sendText(ctx, d.responder, sess, chatID, noDocumentText)
		return
	}
	d.docRepo.Clear(chatID)
	sendText(ctx, d.responder, sess, chatID, documentDoneText)
}
