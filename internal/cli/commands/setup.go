package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapframe/internal/actor"
	"github.com/leapstack-labs/leapframe/internal/backend"
	"github.com/leapstack-labs/leapframe/internal/cli/config"
	"github.com/leapstack-labs/leapframe/internal/cli/output"
	"github.com/leapstack-labs/leapframe/internal/state"
)

// Submitter sends a command to the actor and waits for its reply.
// *actor.Actor implements it.
type Submitter interface {
	Submit(ctx context.Context, cmd actor.Command) (string, error)
}

// HistoryReader lists journaled commands. *state.SQLiteStore implements it.
type HistoryReader interface {
	Commands(ctx context.Context, limit int) ([]state.CommandRecord, error)
}

// Session is a running actor plus the journal it writes to.
type Session struct {
	Submitter Submitter
	History   HistoryReader // nil when the journal is disabled
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s. Commands run with that
// context reuse s instead of starting their own.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the configuration, logger and renderer for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	return &CommandContext{
		Cfg:      config.FromContext(ctx),
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
}

// RunSession opens the journal, starts the actor and runs front once the
// backend is ready. The actor stops when front returns, and RunSession
// returns after both have finished.
func RunSession(ctx context.Context, cfg *config.Config, front func(ctx context.Context, s *Session) error) (err error) {
	logger := config.GetLogger(ctx)
	s := &Session{}

	opts := []actor.Option{
		actor.WithLogger(logger),
		actor.WithInboxSize(cfg.InboxSize),
	}
	var journal *state.SQLiteStore
	if cfg.JournalEnabled() {
		journal, err = state.Open(ctx, cfg.StatePath, logger)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		s.History = journal
		opts = append(opts, actor.WithJournal(journal), actor.WithRestore(cfg.ShouldRestore()))
	}
	defer func() {
		if journal == nil {
			return
		}
		if cerr := journal.Close(); cerr != nil {
			err = multierror.Append(err, fmt.Errorf("close journal: %w", cerr)).ErrorOrNil()
		}
	}()

	a := actor.New(func(ctx context.Context) (backend.Backend, error) {
		return backend.Open(ctx, backend.Config{
			Engine:   cfg.Engine,
			Database: cfg.Database,
			Settings: cfg.Settings,
			Logger:   logger,
		})
	}, opts...)
	s.Submitter = a

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.Run(egctx)
	})
	eg.Go(func() error {
		defer a.Close()
		if err := a.WaitReady(egctx); err != nil {
			return err
		}
		return front(WithSession(egctx, s), s)
	})
	return eg.Wait()
}

// withSession runs fn in the session carried by cmd's context, or in a new
// session that lives only for this command.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *Session) error) error {
	ctx := cmd.Context()
	if s := SessionFrom(ctx); s != nil {
		return fn(ctx, s)
	}
	return RunSession(ctx, config.FromContext(ctx), fn)
}

// submit sends c to the session and prints the reply.
func submit(cmd *cobra.Command, c actor.Command) error {
	cc := NewCommandContext(cmd)
	return withSession(cmd, func(ctx context.Context, s *Session) error {
		text, err := s.Submitter.Submit(ctx, c)
		if err != nil {
			return err
		}
		if _, ok := c.(actor.Connect); ok {
			cc.Renderer.Success(text)
		} else {
			cc.Renderer.Result(text)
		}
		return nil
	})
}

// IsFatal reports whether err ends the session.
func IsFatal(err error) bool {
	return errors.Is(err, actor.ErrStopped)
}
