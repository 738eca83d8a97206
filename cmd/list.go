package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stephenmfriend/agent-commander/session"
)

func newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detached agents",
		Long:  `List the agents started with --detached that have not been stopped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}
			store, err := sessionStore(cfg)
			if err != nil {
				return err
			}
			return listSessions(cmd.OutOrStdout(), store, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func init() {
	rootCmd.AddCommand(newListCmd())
}

func listSessions(w io.Writer, store *session.Store, asJSON bool) error {
	records, err := store.List()
	if err != nil {
		return err
	}

	if asJSON {
		if records == nil {
			records = []session.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No detached agents recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ISOLATION\tNAME\tTOOL\tPID\tSTARTED\tDIRECTORY")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Isolation, r.Name, r.Tool, r.PID, r.StartedAt.Format(time.DateTime), r.WorkingDirectory)
	}
	return tw.Flush()
}
