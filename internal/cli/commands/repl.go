package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/actor"
	"github.com/leapstack-labs/leapframe/internal/cli/config"
	"github.com/leapstack-labs/leapframe/internal/cli/output"
)

// errQuit ends a REPL or script without error.
var errQuit = errors.New("quit")

// NewLineCommands creates the commands accepted on a REPL or script line.
func NewLineCommands() []*cobra.Command {
	return []*cobra.Command{
		NewConnectCommand(),
		NewListCommand(),
		NewSchemaCommand(),
		NewDescribeCommand(),
		NewHeadCommand(),
		NewSQLCommand(),
		NewHistoryCommand(),
	}
}

// Front reads command lines and sends them to a session.
type Front struct {
	cfg      *config.Config
	renderer *output.Renderer
}

// NewFront creates a front that writes to out and errOut.
func NewFront(cfg *config.Config, out, errOut io.Writer) *Front {
	return NewFrontWithRenderer(cfg, output.NewRenderer(out, errOut))
}

// NewFrontWithRenderer creates a front that writes through r.
func NewFrontWithRenderer(cfg *config.Config, r *output.Renderer) *Front {
	return &Front{cfg: cfg, renderer: r}
}

// ExecuteLine runs one line. Dot-commands are handled here; "sql" passes the
// rest of the line through verbatim; anything else is parsed by a fresh
// command tree.
func (f *Front) ExecuteLine(ctx context.Context, s *Session, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
		return nil
	}
	if strings.HasPrefix(line, ".") {
		return f.handleDotCommand(line)
	}

	word, rest, _ := strings.Cut(line, " ")
	word = strings.ToLower(word)
	if word == "sql" {
		return f.submit(ctx, s, actor.SQL{Query: sqlText(rest)})
	}

	args, err := splitLine(line)
	if err != nil {
		return err
	}
	args[0] = strings.ToLower(args[0])

	root := &cobra.Command{
		Use:           "leapframe",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(NewLineCommands()...)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(""))
	root.SetOut(f.renderer.Out())
	root.SetErr(f.renderer.ErrOut())
	return root.ExecuteContext(WithSession(config.WithConfig(ctx, f.cfg), s))
}

func (f *Front) submit(ctx context.Context, s *Session, c actor.Command) error {
	text, err := s.Submitter.Submit(ctx, c)
	if err != nil {
		return err
	}
	f.renderer.Result(text)
	return nil
}

func (f *Front) handleDotCommand(line string) error {
	command := strings.ToLower(strings.Fields(line)[0])

	switch command {
	case ".quit", ".exit":
		return errQuit
	case ".help":
		printREPLHelp(f.renderer.Out())
		return nil
	case ".clear":
		_, _ = fmt.Fprint(f.renderer.Out(), "\033[H\033[2J")
		return nil
	default:
		return fmt.Errorf("unknown command: %s (type .help for commands)", command)
	}
}

// report prints a line error. It returns the error when it ends the session.
func (f *Front) report(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errQuit):
		return err
	case IsFatal(err):
		return err
	default:
		f.renderer.Error(err)
		return nil
	}
}

// RunREPL reads lines from a terminal until .quit, EOF, or a fatal error.
func (f *Front) RunREPL(ctx context.Context, s *Session) error {
	historyFile := f.cfg.HistoryFile
	if historyFile != "" {
		if dir := filepath.Dir(historyFile); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				historyFile = ""
			}
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          f.cfg.Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          f.renderer.Out(),
		Stderr:          f.renderer.ErrOut(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	f.renderer.Banner("leapframe", "Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := f.report(f.ExecuteLine(ctx, s, line)); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// RunScript runs one command per line from r. Failed lines are reported and
// the script goes on; the returned error counts them.
func (f *Front) RunScript(ctx context.Context, s *Session, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	failed := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		err := f.ExecuteLine(ctx, s, scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return scriptResult(failed)
		case IsFatal(err):
			return err
		default:
			failed++
			f.renderer.Error(fmt.Errorf("line %d: %w", lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return scriptResult(failed)
}

func scriptResult(failed int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("script: %d command(s) failed", failed)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  connect <source> -n <name> [-t <table>]  Register a dataset
  list                                     List registered datasets
  schema <name>                            Show the columns of a dataset
  describe <name>                          Show summary statistics
  head <name> [-n <rows>]                  Show the first rows
  sql <query>                              Run a SQL query
  history [-n <limit>]                     Show recently executed commands

  .help           Show this help message
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Use arrow keys to navigate history
  - Tab completion works for command names
`
	_, _ = fmt.Fprintln(w, help)
}

func newCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range NewLineCommands() {
		items = append(items, readline.PcItem(cmd.Name()))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

// splitLine splits a command line into words with shell quoting rules.
// Shell operators outside quotes are rejected rather than dropped.
func splitLine(line string) ([]string, error) {
	p := shellwords.NewParser()
	args, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", line, err)
	}
	if p.Position >= 0 {
		return nil, fmt.Errorf("unexpected %q in %q (quote it to use it literally)", line[p.Position:p.Position+1], line)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no command in %q", line)
	}
	return args, nil
}
