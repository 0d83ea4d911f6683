package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/repository"
)

type fakeConverter struct {
	mimeType string
}

func (f *fakeConverter) Convert(_ context.Context, audio []byte, mimeType string) ([]byte, string, error) {
	f.mimeType = mimeType
	return audio, "audio.mp3", nil
}

type fakeTranscriber struct {
	text     string
	err      error
	language string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _, language string) (string, error) {
	f.language = language
	return f.text, f.err
}

type voiceFixture struct {
	service     *voiceService
	transcriber *fakeTranscriber
	chat        chatFixture
	docs        documentFixture
}

func newVoiceFixture(transcript string) voiceFixture {
	chat := newChatFixture("Answer")
	docs := newDocumentFixture()
	docs.service.responder = chat.responder
	docs.service.busy = chat.busy

	f := voiceFixture{
		transcriber: &fakeTranscriber{text: transcript},
		chat:        chat,
		docs:        docs,
	}
	f.service = NewVoiceService(
		&fakeConverter{},
		f.transcriber,
		&fakeDownloader{data: []byte("ogg")},
		fakeDetector{lang: "hi"},
		newSessions(),
		chat.responder,
		chat.busy,
		chat.service,
		docs.service,
	)
	return f
}

func TestTranscribe(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		err      error
		hint     string
		wantLang string
		wantText string
		wantErr  error
	}{
		{name: "region stripped", text: " FIR kaise likhein ", hint: "hi-IN", wantLang: "hi", wantText: "FIR kaise likhein"},
		{name: "plain hint", text: "hello", hint: "en", wantLang: "en", wantText: "hello"},
		{name: "no hint", text: "hello", hint: "", wantLang: "", wantText: "hello"},
		{name: "silence", text: "  ", hint: "en", wantLang: "en", wantErr: domain.ErrEmptyTranscription},
		{name: "remote failure", err: errBoom, hint: "en", wantLang: "en", wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVoiceFixture(tt.text)
			f.transcriber.err = tt.err

			got, err := f.service.Transcribe(context.Background(), []byte("audio"), "audio/ogg", tt.hint)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if got != tt.wantText {
				t.Errorf("got %q, want %q", got, tt.wantText)
			}
			if f.transcriber.language != tt.wantLang {
				t.Errorf("transcriber got language %q, want %q", f.transcriber.language, tt.wantLang)
			}
		})
	}
}

func TestHandleVoiceAsksChat(t *testing.T) {
	f := newVoiceFixture("What is bail?")

	f.service.HandleVoice(context.Background(), 1, 10, "voice-id", "audio/ogg")

	if got := f.chat.responder.texts(); len(got) == 0 || got[0] != transcriptPrefix+"What is bail?" {
		t.Errorf("expected transcript echo, got %v", got)
	}
	if len(f.chat.generator.calls) != 1 || f.chat.generator.calls[0].prompt != "What is bail?" {
		t.Fatalf("transcript not sent to chat: %+v", f.chat.generator.calls)
	}
	if got := f.chat.service.InputLanguage(1); got != "hi" {
		t.Errorf("expected detected language hi, got %q", got)
	}
	if f.transcriber.language != "en" {
		t.Errorf("expected display language as hint, got %q", f.transcriber.language)
	}
	if f.chat.busy.isBusy(1) {
		t.Error("chat left busy")
	}
}

func TestHandleVoiceAsksOpenDocument(t *testing.T) {
	f := newVoiceFixture("Who signed it?")
	doc := domain.Document{ChatID: 1, File: domain.UploadedFile{MimeType: "image/png", Data: []byte("x")}}
	f.docs.docRepo.SaveIfCurrent(doc, f.docs.docRepo.Generation(1))

	f.service.HandleVoice(context.Background(), 1, 10, "voice-id", "audio/ogg")

	if len(f.docs.generator.calls) != 1 || f.docs.generator.calls[0].question != "Who signed it?" {
		t.Errorf("transcript not sent to document: %+v", f.docs.generator.calls)
	}
	if len(f.chat.generator.calls) != 0 {
		t.Error("chat asked while a document is open")
	}
}

func TestHandleVoiceEmptyTranscript(t *testing.T) {
	f := newVoiceFixture("")

	f.service.HandleVoice(context.Background(), 1, 10, "voice-id", "audio/ogg")

	if got := f.chat.responder.last().Text; got != emptyTranscriptText {
		t.Errorf("got %q", got)
	}
	if len(f.chat.generator.calls) != 0 {
		t.Error("empty transcript reached the chat")
	}
}

func TestSpeakRepliesWithAudio(t *testing.T) {
	ctx := context.Background()
	chatRepo := repository.NewChatRepository(time.Hour)
	chatRepo.Save(domain.Chat{ID: 1, Messages: []domain.ChatMessage{
		{ID: "r1", Text: "Namaste", Sender: domain.SenderBot, Language: "hi"},
	}})
	synth := &fakeSynthesizer{audio: []byte("wav")}
	responder := &fakeResponder{}
	s := NewSpeechService(chatRepo, repository.NewDocumentRepository(time.Hour), synth, newSessions(), responder)

	s.Speak(ctx, 1, 10, "r1")
	s.Speak(ctx, 1, 10, "gone")

	if synth.language != "hi" || synth.text != "Namaste" {
		t.Errorf("unexpected synthesis request %q in %q", synth.text, synth.language)
	}
	if responder.responses[0].Audio == nil || string(responder.responses[0].Audio.Data) != "wav" {
		t.Errorf("expected audio reply, got %+v", responder.responses[0])
	}
	if responder.responses[1].Text != messageExpiredText {
		t.Errorf("expected expiry notice, got %q", responder.responses[1].Text)
	}
}

type fakeSynthesizer struct {
	audio    []byte
	text     string
	language string
}

func (f *fakeSynthesizer) TextToSpeech(_ context.Context, text, language string) ([]byte, error) {
	f.text, f.language = text, language
	return f.audio, nil
}
