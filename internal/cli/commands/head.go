package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/actor"
)

// NewHeadCommand creates the head command.
func NewHeadCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "head <name>",
		Short: "Show the first rows of a dataset",
		Example: `  leapframe head orders
  leapframe head orders -n 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := rows
			if !cmd.Flags().Changed("rows") {
				n = NewCommandContext(cmd).Cfg.HeadRows
			}
			if n < 0 {
				return fmt.Errorf("row count must not be negative, got %d", n)
			}
			return submit(cmd, actor.Head{Name: args[0], N: n})
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Number of rows to show (default from head_rows)")

	return cmd
}
