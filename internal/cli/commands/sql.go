package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapframe/internal/actor"
)

// NewSQLCommand creates the sql command. Arguments are joined into the
// query text without flag parsing, so "SELECT -1" stays intact.
func NewSQLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sql <query...>",
		Short: "Run a SQL query over registered datasets",
		Example: `  leapframe sql "SELECT city, count(*) FROM orders GROUP BY city"
  leapframe sql -q "SELECT 1"`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, actor.SQL{Query: sqlText(strings.Join(args, " "))})
		},
	}
}

// sqlText strips a leading -q/--query flag and surrounding quotes.
func sqlText(s string) string {
	s = strings.TrimSpace(s)
	for _, flag := range []string{"--query=", "--query ", "-q "} {
		if strings.HasPrefix(s, flag) {
			s = strings.TrimSpace(s[len(flag):])
			break
		}
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}
