// Package stream turns a lazy sequence of generated text fragments into
// growing snapshots of a single reply.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

// DefaultErrorText is shown in place of a reply whose generation failed.
const DefaultErrorText = "Sorry, I encountered an error communicating with the assistant. Please try again."

// FragmentStream yields text fragments until Recv returns io.EOF.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// Opener starts a generation call. It may fail before any fragment exists.
type Opener func(ctx context.Context) (FragmentStream, error)

// Aggregator publishes the running total of a stream. The zero value is ready to use.
type Aggregator struct {
	// ErrorText replaces the reply text when the stream fails. Defaults to DefaultErrorText.
	ErrorText string
	Logger    *slog.Logger
}

var defaultAggregator Aggregator

// Aggregate consumes src with the default Aggregator.
func Aggregate(ctx context.Context, id string, src FragmentStream, publish func(domain.Snapshot)) {
	defaultAggregator.Aggregate(ctx, id, src, publish)
}

// Run opens a stream and aggregates it with the default Aggregator.
func Run(ctx context.Context, id string, open Opener, publish func(domain.Snapshot)) {
	defaultAggregator.Run(ctx, id, open, publish)
}

// Run opens a stream and aggregates it. A failed open yields a single terminal error snapshot.
func (a Aggregator) Run(ctx context.Context, id string, open Opener, publish func(domain.Snapshot)) {
	src, err := a.open(ctx, open)
	if err != nil {
		a.fail(ctx, id, err, publish)
		return
	}
	a.Aggregate(ctx, id, src, publish)
}

func (a Aggregator) open(ctx context.Context, open Opener) (src FragmentStream, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("opening stream: panic: %v", r)
		}
	}()

	src, err = open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	if src == nil {
		return nil, errors.New("opening stream: no stream returned")
	}
	return src, nil
}

// Aggregate reads src until it ends, fails or ctx is cancelled. Every non-empty
// fragment publishes a loading snapshot with the text so far; exactly one
// terminal snapshot follows. Errors are never returned.
func (a Aggregator) Aggregate(ctx context.Context, id string, src FragmentStream, publish func(domain.Snapshot)) {
	var (
		sb       strings.Builder
		terminal bool
	)

	finish := func(s domain.Snapshot) {
		if terminal {
			return
		}
		terminal = true
		publish(s)
	}

	defer func() {
		if err := src.Close(); err != nil {
			a.logger().DebugContext(ctx, "Closing fragment stream failed", "id", id, logger.Err(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			a.cancelled(ctx, id, sb.String(), err, finish)
			return
		}

		fragment, err := recv(src)
		if errors.Is(err, io.EOF) {
			finish(domain.Snapshot{ID: id, Text: sb.String()})
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				a.cancelled(ctx, id, sb.String(), ctxErr, finish)
				return
			}
			a.fail(ctx, id, fmt.Errorf("reading stream: %w", err), finish)
			return
		}

		if fragment == "" {
			continue
		}
		sb.WriteString(fragment)
		publish(domain.Snapshot{ID: id, Text: sb.String(), IsLoading: true})
	}
}

// recv reports a panic inside the stream as an error. Panics raised by the
// subscriber are not the stream's and propagate.
func recv(src FragmentStream) (fragment string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return src.Recv()
}

func (a Aggregator) cancelled(ctx context.Context, id, text string, err error, publish func(domain.Snapshot)) {
	a.logger().InfoContext(ctx, "Reply generation cancelled", "id", id, "chars", len(text))
	publish(domain.Snapshot{ID: id, Text: text, Err: err})
}

func (a Aggregator) fail(ctx context.Context, id string, err error, publish func(domain.Snapshot)) {
	a.logger().ErrorContext(ctx, "Reply generation failed", "id", id, logger.Err(err))
	publish(domain.Snapshot{ID: id, Text: a.errorText(), Err: err})
}

func (a Aggregator) errorText() string {
	if a.ErrorText == "" {
		return DefaultErrorText
	}
	return a.ErrorText
}

func (a Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
