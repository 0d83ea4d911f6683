package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Transcribe converts speech to text with Whisper. fileName carries the
// extension Whisper uses to detect the format; language is an ISO-639-1 hint.
func (c *client) Transcribe(ctx context.Context, audio []byte, fileName, language string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: fileName,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("creating transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
