package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/actor"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show summary statistics of a dataset",
		Long: `Show one row per statistic (total, null total, mean, stddev, min, max,
median) and one column per dataset column.

Mean, stddev, min, max and median are computed for numeric columns only.
Temporal columns are summarized as epoch values and list columns by length.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, actor.Describe{Name: args[0]})
		},
	}
}
