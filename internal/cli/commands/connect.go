package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/actor"
	"github.com/leapstack-labs/leapframe/internal/source"
)

// ConnectOptions holds options for the connect command.
type ConnectOptions struct {
	Name  string
	Table string
}

// NewConnectCommand creates the connect command.
func NewConnectCommand() *cobra.Command {
	opts := &ConnectOptions{}

	cmd := &cobra.Command{
		Use:   "connect <source>",
		Short: "Register a dataset",
		Long: `Register a file or database table as a named dataset.

The source format is taken from the file name: csv, json, jsonl, ndjson or
parquet, optionally followed by a compression suffix (gz, bz2, xz, zstd).
A directory registers every file matching the format of its name.`,
		Example: `  # Register a CSV file
  leapframe connect data/orders.csv -n orders

  # Register a gzipped newline-delimited JSON file
  leapframe connect events.ndjson.gz -n events

  # Register all parquet files in a directory
  leapframe connect trips.parquet/ -n trips`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Parse(args[0])
			if err != nil {
				return err
			}
			return submit(cmd, actor.Connect{Source: src, Table: opts.Table, Name: opts.Name})
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Name of the dataset")
	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "Table to read, for database sources")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
