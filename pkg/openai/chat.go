package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/stream"
)

// fragmentStream adapts a completion stream to stream.FragmentStream.
type fragmentStream struct {
	s *openai.ChatCompletionStream
}

func (f *fragmentStream) Recv() (string, error) {
	resp, err := f.s.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (f *fragmentStream) Close() error {
	f.s.Close()
	return nil
}

func role(s domain.Sender) string {
	if s == domain.SenderUser {
		return openai.ChatMessageRoleUser
	}
	return openai.ChatMessageRoleAssistant
}

// StreamChat continues a legal-assistant conversation with prompt.
func (c *client) StreamChat(ctx context.Context, history []domain.ChatMessage, prompt string) (stream.FragmentStream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: legalAssistantInstruction,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: role(m.Sender), Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	return c.openStream(ctx, c.textModel, messages)
}

// StreamDocument asks about an uploaded document image. The image leads the
// conversation, followed by earlier questions and answers.
func (c *client) StreamDocument(ctx context.Context, file domain.UploadedFile, history []domain.DocumentMessage, question string) (stream.FragmentStream, error) {
	if len(file.Data) == 0 || file.MimeType == "" {
		return nil, fmt.Errorf("image data is missing: %w", domain.ErrNoDocument)
	}

	dataURL := "data:" + file.MimeType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+3)
	messages = append(messages,
		openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: documentAnalysisInstruction,
		},
		openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
				},
				{Type: openai.ChatMessagePartTypeText, Text: documentContextPrompt},
			},
		},
	)
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: role(m.Sender), Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	return c.openStream(ctx, c.visionModel, messages)
}

func (c *client) openStream(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (stream.FragmentStream, error) {
	s, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: 4096,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat completion stream: %w", err)
	}
	return &fragmentStream{s: s}, nil
}
