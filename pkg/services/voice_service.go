package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

type AudioConverter interface {
	Convert(ctx context.Context, audio []byte, mimeType string) ([]byte, string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName, language string) (string, error)
}

type voiceService struct {
	converter   AudioConverter
	transcriber Transcriber
	downloader  FileDownloader
	detector    LanguageDetector
	sessions    SessionManager
	responder   Responder
	busy        *busyTracker
	chat        *chatService
	documents   *documentService
}

func NewVoiceService(
	converter AudioConverter,
	transcriber Transcriber,
	downloader FileDownloader,
	detector LanguageDetector,
	sessions SessionManager,
	responder Responder,
	busy *busyTracker,
	chat *chatService,
	documents *documentService,
) *voiceService {
	return &voiceService{
		converter:   converter,
		transcriber: transcriber,
		downloader:  downloader,
		detector:    detector,
		sessions:    sessions,
		responder:   responder,
		busy:        busy,
		chat:        chat,
		documents:   documents,
	}
}

// Transcribe converts recorded audio to text. languageHint may carry a region
// ("hi-IN"); only the primary subtag is passed on.
func (v *voiceService) Transcribe(ctx context.Context, audio []byte, mimeType, languageHint string) (string, error) {
	converted, fileName, err := v.converter.Convert(ctx, audio, mimeType)
	if err != nil {
		return "", fmt.Errorf("converting audio: %w", err)
	}

	language, _, _ := strings.Cut(strings.TrimSpace(languageHint), "-")

	text, err := v.transcriber.Transcribe(ctx, converted, fileName, strings.ToLower(language))
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyTranscription
	}
	return text, nil
}

// HandleVoice transcribes a voice message and hands the transcript to the open
// document, or to the legal chat when there is none.
func (v *voiceService) HandleVoice(ctx context.Context, chatID, userID int64, fileID, mimeType string) {
	sess := v.sessions.Get(ctx, userID)
	if err := v.busy.acquire(chatID); err != nil {
		slog.InfoContext(ctx, "Rejected request", logger.Err(err))
		sendText(ctx, v.responder, sess, chatID, busyText)
		return
	}
	defer v.busy.release(chatID)

	audio, err := v.downloader.DownloadFile(ctx, fileID)
	if err != nil {
		slog.ErrorContext(ctx, "Downloading voice failed", "fileID", fileID, logger.Err(err))
		sendText(ctx, v.responder, sess, chatID, transcriptionErrorText)
		return
	}

	hint, _ := lo.Coalesce(v.chat.InputLanguage(chatID), sess.Language(), domain.DefaultLanguageCode)

	transcript, err := v.Transcribe(ctx, audio, mimeType, hint)
	if errors.Is(err, domain.ErrEmptyTranscription) {
		sendText(ctx, v.responder, sess, chatID, emptyTranscriptText)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Transcribing voice failed", "hint", hint, logger.Err(err))
		sendText(ctx, v.responder, sess, chatID, transcriptionErrorText)
		return
	}

	detected, _ := lo.Coalesce(v.detector.DetectLanguage(ctx, transcript), hint)
	slog.InfoContext(ctx, "Voice transcribed", "hint", hint, "detected", detected, "chars", len(transcript))

	v.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Text: transcriptPrefix + transcript})

	if doc, generation, ok := v.documents.current(chatID); ok {
		v.documents.ask(ctx, sess, doc, generation, transcript, false)
		return
	}
	v.chat.ask(ctx, sess, chatID, transcript, detected)
}
