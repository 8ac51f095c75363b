package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/threadworks/stealpool/core"
	"github.com/threadworks/stealpool/internal/bench"
)

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark and print the results",
		Long: `Run submits a configurable number of tasks through one of the pool's entry
points (worker, global, or direct) and reports elapsed time, throughput, and
how many tasks were stolen. With --compare-steal the same load runs twice,
stealing enabled then disabled, and the speedup is summarized.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd)
		},
	}

	cmd.Flags().IntP("tasks", "t", 100000, "number of tasks to submit")
	cmd.Flags().Duration("task-work", 0, "busy work per task (e.g. 20us)")
	cmd.Flags().StringP("submission", "s", string(bench.SubmissionWorker),
		"submission mode: worker, global, or direct")
	cmd.Flags().Bool("no-steal", false, "disable stealing on every worker")
	cmd.Flags().Bool("compare-steal", false, "run twice, stealing on then off")
	cmd.Flags().Bool("pin", false, "pin workers to CPU cores")
	cmd.Flags().Bool("per-worker", false, "print the per-worker breakdown")

	return cmd
}

func runBench(cmd *cobra.Command) error {
	tasks, _ := cmd.Flags().GetInt("tasks")
	taskWork, _ := cmd.Flags().GetDuration("task-work")
	submission, _ := cmd.Flags().GetString("submission")
	noSteal, _ := cmd.Flags().GetBool("no-steal")
	compare, _ := cmd.Flags().GetBool("compare-steal")
	pin, _ := cmd.Flags().GetBool("pin")
	perWorker, _ := cmd.Flags().GetBool("per-worker")
	noColor := viper.GetBool("no-color")

	var logger core.Logger = core.NewNoOpLogger()
	if viper.GetBool("verbose") {
		logger = core.NewDefaultLogger()
	}

	opts := bench.Options{
		PoolName:     "stealbench",
		Workers:      viper.GetInt("workers"),
		Tasks:        tasks,
		TaskWork:     taskWork,
		Submission:   bench.Submission(submission),
		DisableSteal: noSteal,
		PinWorkers:   pin,
		Logger:       logger,
	}

	ctx := cmd.Context()
	var results []bench.Result
	if compare {
		var err error
		results, err = bench.CompareStealing(ctx, opts)
		if err != nil {
			return err
		}
	} else {
		res, err := bench.Run(ctx, opts)
		if err != nil {
			return err
		}
		results = []bench.Result{res}
	}

	out := cmd.OutOrStdout()
	bench.Render(out, results, noColor)
	if perWorker {
		for _, res := range results {
			fmt.Fprintf(out, "\n%s workers:\n", res.Label)
			bench.RenderWorkerStats(out, res, noColor)
		}
	}
	return nil
}
