package domain

// QuizAttempt tracks a quiz a chat is currently taking, one question at a time.
type QuizAttempt struct {
	ModuleID string
	Current  int
	Correct  int
	Total    int
}

func (a QuizAttempt) Finished() bool {
	return a.Current >= a.Total
}

// Awaits reports whether question index of moduleID is the one to answer next.
func (a QuizAttempt) Awaits(moduleID string, index int) bool {
	return a.ModuleID == moduleID && a.Current == index && !a.Finished()
}
