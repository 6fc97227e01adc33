// Package cli provides the command-line interface for leapframe.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/cli/commands"
	"github.com/leapstack-labs/leapframe/internal/cli/config"
	"github.com/leapstack-labs/leapframe/internal/cli/output"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapframe",
		Short: "leapframe - interactive dataset explorer",
		Long: `leapframe registers CSV, JSON and Parquet files as named datasets in an
embedded DuckDB engine and lets you inspect and query them.

Without a subcommand it starts an interactive shell on a terminal, or runs
one command per line from standard input when it is piped.`,
		Example: `  # Interactive shell
  leapframe

  # Run a script
  leapframe < session.lf

  # One-shot commands against a persistent database
  leapframe --database lf.duckdb connect orders.csv -n orders
  leapframe --database lf.duckdb describe orders`,
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./leapframe.yaml)")
	flags.String("engine", "", "Query engine (default: duckdb)")
	flags.String("database", "", "Path to DuckDB database (default: in-memory)")
	flags.String("state", "", "Path to the session journal (empty string disables it)")
	flags.String("history-file", "", "Path to the REPL history file")
	flags.Int("head-rows", config.DefaultHeadRows, "Default number of rows shown by head")
	flags.Int("inbox-size", config.DefaultInboxSize, "Number of commands that may wait for the engine")
	flags.Bool("restore", false, "Re-register journaled datasets at startup (in-memory database only)")
	flags.String("prompt", "", "REPL prompt")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.DefaultEngine}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewLineCommands()...)
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// runShell runs the REPL on a terminal and script mode otherwise.
func runShell(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	in := cmd.InOrStdin()
	front := commands.NewFront(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	interactive := output.IsTerminal(in) && output.IsTerminal(cmd.OutOrStdout())

	return commands.RunSession(ctx, cfg, func(ctx context.Context, s *commands.Session) error {
		if interactive {
			return front.RunREPL(ctx, s)
		}
		return front.RunScript(ctx, s, in)
	})
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapframe.

To load completions:

Bash:
  $ source <(leapframe completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ leapframe completion bash > /etc/bash_completion.d/leapframe
  # macOS:
  $ leapframe completion bash > $(brew --prefix)/etc/bash_completion.d/leapframe

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leapframe completion zsh > "${fpath[1]}/_leapframe"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ leapframe completion fish | source

  # To load completions for each session, execute once:
  $ leapframe completion fish > ~/.config/fish/completions/leapframe.fish

PowerShell:
  PS> leapframe completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> leapframe completion powershell > leapframe.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return genCompletion(cmd.Root(), cmd.OutOrStdout(), args[0])
		},
	}
	return cmd
}

func genCompletion(root *cobra.Command, w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return root.GenBashCompletion(w)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return nil
}
