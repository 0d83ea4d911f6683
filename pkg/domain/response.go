package domain

type Response struct {
	ChatID   int64
	Text     string
	HTML     bool
	Audio    *Audio
	Keyboard *Keyboard
	Err      error
}

type Audio struct {
	Name string
	Data []byte
}

type Button struct {
	Label string
	Data  string
}

type Keyboard struct {
	Title         string
	Buttons       []Button
	ButtonsPerRow int
}
