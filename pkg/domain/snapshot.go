package domain

// Snapshot is the state of a reply while it is being generated.
// Exactly one snapshot per reply has IsLoading set to false.
type Snapshot struct {
	ID        string
	Text      string
	IsLoading bool
	// Err is the underlying failure of a terminal error snapshot. Text already
	// holds the user-facing message.
	Err error
}

func (s Snapshot) Terminal() bool {
	return !s.IsLoading
}
