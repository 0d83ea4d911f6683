package domain

type ContentItemType string

const (
	ContentParagraph ContentItemType = "paragraph"
	ContentHeading   ContentItemType = "heading"
	ContentList      ContentItemType = "list"
)

type ContentItem struct {
	Type    ContentItemType `yaml:"type"`
	Level   int             `yaml:"level,omitempty"`
	Content string          `yaml:"content,omitempty"`
	Ordered bool            `yaml:"ordered,omitempty"`
	Items   []string        `yaml:"items,omitempty"`
}

type Lesson struct {
	ID      string        `yaml:"id"`
	Title   string        `yaml:"title"`
	Content []ContentItem `yaml:"content"`
}

type QuizOption struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type QuizQuestion struct {
	ID              string       `yaml:"id"`
	Text            string       `yaml:"question"`
	Options         []QuizOption `yaml:"options"`
	CorrectOptionID string       `yaml:"correct"`
	Explanation     string       `yaml:"explanation,omitempty"`
}

type LearningModule struct {
	ID              string         `yaml:"id"`
	Title           string         `yaml:"title"`
	Description     string         `yaml:"description"`
	LongDescription string         `yaml:"long_description,omitempty"`
	Lessons         []Lesson       `yaml:"lessons"`
	Quiz            []QuizQuestion `yaml:"quiz"`
}

type Flashcard struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Misconception string `yaml:"misconception"`
	Fact          string `yaml:"fact"`
}
