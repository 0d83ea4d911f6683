// Package learn serves the embedded catalog of learning modules, quizzes and flashcards.
package learn

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Modules    []domain.LearningModule `yaml:"modules"`
	Flashcards []domain.Flashcard      `yaml:"flashcards"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := map[string]bool{}
	for _, m := range c.Modules {
		if m.ID == "" || seen[m.ID] {
			return fmt.Errorf("module id %q is empty or duplicated", m.ID)
		}
		seen[m.ID] = true
		for _, q := range m.Quiz {
			if _, ok := lo.Find(q.Options, func(o domain.QuizOption) bool { return o.ID == q.CorrectOptionID }); !ok {
				return fmt.Errorf("question %s/%s: correct option %q not among options", m.ID, q.ID, q.CorrectOptionID)
			}
		}
	}
	return nil
}

func (c *Catalog) Module(id string) (domain.LearningModule, error) {
	m, ok := lo.Find(c.Modules, func(m domain.LearningModule) bool { return m.ID == id })
	if !ok {
		return domain.LearningModule{}, fmt.Errorf("module %q: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

func (c *Catalog) Lesson(moduleID, lessonID string) (domain.LearningModule, domain.Lesson, error) {
	m, err := c.Module(moduleID)
	if err != nil {
		return m, domain.Lesson{}, err
	}
	l, ok := lo.Find(m.Lessons, func(l domain.Lesson) bool { return l.ID == lessonID })
	if !ok {
		return m, domain.Lesson{}, fmt.Errorf("lesson %q: %w", lessonID, domain.ErrNotFound)
	}
	return m, l, nil
}

// Flashcard returns the card at index i, wrapping around in both directions.
func (c *Catalog) Flashcard(i int) (domain.Flashcard, int) {
	if len(c.Flashcards) == 0 {
		return domain.Flashcard{}, 0
	}
	i = ((i % len(c.Flashcards)) + len(c.Flashcards)) % len(c.Flashcards)
	return c.Flashcards[i], i
}

// Grade reports whether optionID answers the question correctly.
func Grade(q domain.QuizQuestion, optionID string) bool {
	return q.CorrectOptionID == optionID
}

func CorrectOption(q domain.QuizQuestion) domain.QuizOption {
	o, _ := lo.Find(q.Options, func(o domain.QuizOption) bool { return o.ID == q.CorrectOptionID })
	return o
}

// Markdown renders lesson content; translate is applied to every text fragment.
func Markdown(items []domain.ContentItem, translate func(string) string) string {
	if translate == nil {
		translate = func(s string) string { return s }
	}

	var sb strings.Builder
	for _, item := range items {
		switch item.Type {
		case domain.ContentHeading:
			level := item.Level
			if level < 2 || level > 3 {
				level = 2
			}
			fmt.Fprintf(&sb, "%s %s\n\n", strings.Repeat("#", level), translate(item.Content))
		case domain.ContentList:
			for i, it := range item.Items {
				if item.Ordered {
					fmt.Fprintf(&sb, "%d. %s\n", i+1, translate(it))
				} else {
					fmt.Fprintf(&sb, "* %s\n", translate(it))
				}
			}
			sb.WriteString("\n")
		default:
			fmt.Fprintf(&sb, "%s\n\n", translate(item.Content))
		}
	}
	return strings.TrimSpace(sb.String())
}
