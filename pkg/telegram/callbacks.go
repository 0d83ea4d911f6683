package telegram

import (
	"strconv"
	"strings"
)

// splitRef cuts the payload after prefix into exactly n colon-separated parts.
func splitRef(data, prefix string, n int) ([]string, bool) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return nil, false
	}
	parts := strings.SplitN(rest, ":", n)
	if len(parts) != n {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

type quizAnswer struct {
	moduleID string
	index    int
	optionID string
}

func parseAnswer(data, prefix string) (quizAnswer, bool) {
	parts, ok := splitRef(data, prefix, 3)
	if !ok {
		return quizAnswer{}, false
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return quizAnswer{}, false
	}
	return quizAnswer{moduleID: parts[0], index: index, optionID: parts[2]}, true
}

type flashcardRef struct {
	index int
	side  string
}

func parseFlashcard(data, prefix string) (flashcardRef, bool) {
	parts, ok := splitRef(data, prefix, 2)
	if !ok {
		return flashcardRef{}, false
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		return flashcardRef{}, false
	}
	return flashcardRef{index: index, side: parts[1]}, true
}
