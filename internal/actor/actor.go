// Package actor serializes all access to a Backend.
//
// The engine behind a Backend is not safe for concurrent use. An Actor owns
// it on a single worker goroutine and serves commands from any number of
// callers, one at a time, in the order they arrive. Every accepted command
// gets exactly one reply.
package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/leapstack-labs/leapframe/internal/backend"
	"github.com/leapstack-labs/leapframe/internal/source"
	"github.com/leapstack-labs/leapframe/internal/state"
)

// DefaultInboxSize is the number of commands that may wait for the worker.
const DefaultInboxSize = 16

// ErrStopped is returned by Submit when the worker is gone. The command may
// or may not have run. Callers should treat it as fatal.
var ErrStopped = errors.New("actor stopped")

// OpenFunc opens the backend. It is called once, on the worker goroutine.
type OpenFunc func(ctx context.Context) (backend.Backend, error)

// Journal records what the actor did. *state.SQLiteStore implements it.
type Journal interface {
	RecordDataset(ctx context.Context, name, source string) error
	Datasets(ctx context.Context) ([]state.Dataset, error)
	RecordCommand(ctx context.Context, rec state.CommandRecord) error
}

type reply struct {
	text string
	err  error
}

type envelope struct {
	cmd   Command
	reply chan reply
}

// Actor is the single owner of a Backend.
type Actor struct {
	open      OpenFunc
	logger    *slog.Logger
	inboxSize int
	journal   Journal
	restore   bool

	inbox    chan envelope
	ready    chan struct{}
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once

	// err is written before done is closed.
	err error
}

// Option configures an Actor.
type Option func(*Actor)

// WithLogger sets the logger. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(a *Actor) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithInboxSize bounds the number of waiting commands. Values below one are ignored.
func WithInboxSize(n int) Option {
	return func(a *Actor) {
		if n > 0 {
			a.inboxSize = n
		}
	}
}

// WithJournal records registrations and executed commands.
func WithJournal(j Journal) Option {
	return func(a *Actor) { a.journal = j }
}

// WithRestore re-registers journaled datasets before serving commands.
// It has no effect without a journal.
func WithRestore(restore bool) Option {
	return func(a *Actor) { a.restore = restore }
}

// New creates an actor. Nothing runs until Run is called.
func New(open OpenFunc, opts ...Option) *Actor {
	a := &Actor{
		open:      open,
		logger:    slog.New(slog.DiscardHandler),
		inboxSize: DefaultInboxSize,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.inbox = make(chan envelope, a.inboxSize)
	return a
}

// Run opens the backend and serves commands until Close is called or ctx is
// done. It must be called exactly once; later calls return an error.
// The returned error reports a failed open or a failed backend close.
func (a *Actor) Run(ctx context.Context) error {
	started := false
	a.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("actor: Run called twice")
	}
	defer close(a.done)

	b, err := a.open(ctx)
	if err != nil {
		a.err = fmt.Errorf("open backend: %w", err)
		a.logger.Error("failed to open backend", slog.Any("error", err))
		return a.err
	}

	if a.restore && a.journal != nil {
		a.restoreDatasets(ctx, b)
	}
	close(a.ready)
	a.logger.Debug("actor ready", slog.Int("inbox", a.inboxSize))

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("actor context done", slog.Any("cause", context.Cause(ctx)))
			return a.shutdown(b)
		case <-a.stop:
			return a.shutdown(b)
		case env := <-a.inbox:
			a.serve(ctx, b, env)
		}
	}
}

func (a *Actor) shutdown(b backend.Backend) error {
	var result *multierror.Error
	if err := b.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close backend: %w", err))
	}
	a.err = result.ErrorOrNil()
	return a.err
}

// WaitReady blocks until the backend is open. It returns the open error if
// the worker failed to start.
func (a *Actor) WaitReady(ctx context.Context) error {
	select {
	case <-a.ready:
		return nil
	case <-a.done:
		select {
		case <-a.ready:
			return nil
		default:
		}
		if a.err != nil {
			return a.err
		}
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the worker has exited.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Close asks the worker to stop after the command it is running. Commands
// still waiting in the inbox are answered with ErrStopped.
func (a *Actor) Close() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Submit sends cmd to the worker and waits for its reply.
//
// ctx bounds only the wait for inbox space. Once the command is accepted it
// runs to completion and Submit waits for the reply regardless of ctx.
func (a *Actor) Submit(ctx context.Context, cmd Command) (string, error) {
	if cmd == nil {
		return "", errors.New("actor: nil command")
	}

	env := envelope{cmd: cmd, reply: make(chan reply, 1)}
	select {
	case <-a.stop:
		return "", ErrStopped
	case <-a.done:
		return "", ErrStopped
	default:
	}

	select {
	case a.inbox <- env:
	case <-a.stop:
		return "", ErrStopped
	case <-a.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-env.reply:
		return r.text, r.err
	case <-a.done:
		// The reply may have been sent just before the worker exited.
		select {
		case r := <-env.reply:
			return r.text, r.err
		default:
			return "", ErrStopped
		}
	}
}

func (a *Actor) serve(ctx context.Context, b backend.Backend, env envelope) {
	name := env.cmd.Name()
	start := time.Now()

	text, err := a.execute(context.WithoutCancel(ctx), b, env.cmd)
	elapsed := time.Since(start)

	if err != nil {
		a.logger.Error("command failed",
			slog.String("command", name),
			slog.Duration("duration", elapsed),
			slog.Any("error", err))
	} else {
		a.logger.Debug("command done",
			slog.String("command", name),
			slog.Duration("duration", elapsed))
	}
	a.record(ctx, env.cmd, elapsed, err)

	env.reply <- reply{text: text, err: err}
}

// execute runs one command. A panic is turned into an error reply so the
// worker keeps serving.
func (a *Actor) execute(ctx context.Context, b backend.Backend, cmd Command) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("command panicked",
				slog.String("command", cmd.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			text, err = "", fmt.Errorf("%s: internal error: %v", cmd.Name(), r)
		}
	}()
	return cmd.execute(ctx, b)
}

func (a *Actor) record(ctx context.Context, cmd Command, elapsed time.Duration, cmdErr error) {
	if a.journal == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	rec := state.CommandRecord{Name: cmd.Name(), OK: cmdErr == nil, Duration: elapsed}
	if cmdErr != nil {
		rec.Error = cmdErr.Error()
	}
	if err := a.journal.RecordCommand(ctx, rec); err != nil {
		a.logger.Warn("failed to journal command", slog.Any("error", err))
	}

	if c, ok := cmd.(Connect); ok && cmdErr == nil {
		if err := a.journal.RecordDataset(ctx, c.Name, source.Canonical(c.Source)); err != nil {
			a.logger.Warn("failed to journal dataset", slog.String("name", c.Name), slog.Any("error", err))
		}
	}
}

// restoreDatasets re-registers journaled datasets. Failures are logged and skipped.
func (a *Actor) restoreDatasets(ctx context.Context, b backend.Backend) {
	datasets, err := a.journal.Datasets(ctx)
	if err != nil {
		a.logger.Warn("failed to read journal", slog.Any("error", err))
		return
	}

	for _, d := range datasets {
		src, err := source.Parse(d.Source)
		if err != nil {
			a.logger.Warn("skipping journaled dataset", slog.String("name", d.Name), slog.Any("error", err))
			continue
		}
		if err := b.Connect(ctx, backend.ConnectOptions{Source: src, Name: d.Name}); err != nil {
			a.logger.Warn("failed to restore dataset", slog.String("name", d.Name), slog.Any("error", err))
			continue
		}
		a.logger.Info("restored dataset", slog.String("name", d.Name), slog.String("source", d.Source))
	}
}
