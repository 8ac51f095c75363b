package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/threadworks/stealpool/core"
)

// newInfoCmd creates the info command
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print scheduler defaults for this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd)
		},
	}
}

func runInfo(cmd *cobra.Command) error {
	cfg := core.DefaultConfig()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "logical cores:\t%d\n", core.LogicalCores())
	fmt.Fprintf(w, "default workers:\t%d\n", core.DefaultWorkerCount())
	fmt.Fprintf(w, "idle wait:\t%s\n", cfg.IdleWait)
	fmt.Fprintf(w, "steal batch:\t%d\n", cfg.StealBatch)
	fmt.Fprintf(w, "global pop batch:\t%d\n", cfg.GlobalPopBatch)
	fmt.Fprintf(w, "history size:\t%d\n", cfg.HistorySize)
	return w.Flush()
}
