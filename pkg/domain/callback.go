package domain

const (
	SetLanguageCallbackPrefix = "lang:"
	ShowModuleCallbackPrefix  = "module:"
	ShowLessonCallbackPrefix  = "lesson:"
	MarkReadCallbackPrefix    = "read:"
	MarkUnreadCallbackPrefix  = "unread:"
	StartQuizCallbackPrefix   = "quiz:"
	AnswerQuizCallbackPrefix  = "answer:"
	FlashcardCallbackPrefix   = "card:"
	SpeakCallbackPrefix       = "speak:"
)

const (
	ShowModulesCallback  = "modules"
	ShowProgressCallback = "progress"
)
