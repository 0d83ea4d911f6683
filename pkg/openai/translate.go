package openai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var fenceRe = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// Translate asks the model for a bare translation of text.
func (c *client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" || sourceLang == targetLang {
		return text, nil
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.translationModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(translationPrompt, sourceLang, targetLang, text)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("creating translation completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in translation response")
	}

	return cleanTranslation(resp.Choices[0].Message.Content), nil
}

// cleanTranslation strips code fences and wrapping quotes the model sometimes adds.
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil && m[2] != "" {
		s = strings.TrimSpace(m[2])
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}
