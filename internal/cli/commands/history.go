package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/state"
)

// ErrJournalDisabled is returned by history when state_path is empty.
var ErrJournalDisabled = errors.New("journal disabled (state_path is empty)")

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed commands",
		Long: `Show commands recorded in the session journal, newest first.

The journal lives at state_path and is shared by all sessions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of commands to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)

	reader, closeFn, err := historyReader(ctx, cc)
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := reader.Commands(ctx, limit)
	if err != nil {
		return err
	}
	renderHistory(cmd.OutOrStdout(), records)
	return nil
}

// historyReader reuses the session journal when there is one. A one-shot
// history opens the journal directly without starting an engine.
func historyReader(ctx context.Context, cc *CommandContext) (HistoryReader, func(), error) {
	if s := SessionFrom(ctx); s != nil {
		if s.History == nil {
			return nil, nil, ErrJournalDisabled
		}
		return s.History, func() {}, nil
	}
	if !cc.Cfg.JournalEnabled() {
		return nil, nil, ErrJournalDisabled
	}
	store, err := state.Open(ctx, cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func renderHistory(w io.Writer, records []state.CommandRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "(no commands)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"executed_at", "command", "status", "duration", "error"})
	for _, rec := range records {
		status := "ok"
		if !rec.OK {
			status = "failed"
		}
		t.AppendRow(table.Row{
			rec.ExecutedAt.Local().Format(time.DateTime),
			rec.Name,
			status,
			rec.Duration.String(),
			rec.Error,
		})
	}
	t.Render()
}
