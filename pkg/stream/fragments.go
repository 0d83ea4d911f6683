package stream

import (
	"io"
)

// Fragments is an in-memory FragmentStream. A non-nil Err is returned once the fragments run out.
type Fragments struct {
	Items []string
	Err   error

	next   int
	closed bool
}

func FromStrings(items ...string) *Fragments {
	return &Fragments{Items: items}
}

func (f *Fragments) Recv() (string, error) {
	if f.closed {
		return "", io.ErrClosedPipe
	}
	if f.next < len(f.Items) {
		f.next++
		return f.Items[f.next-1], nil
	}
	if f.Err != nil {
		return "", f.Err
	}
	return "", io.EOF
}

func (f *Fragments) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *Fragments) Closed() bool {
	return f.closed
}
