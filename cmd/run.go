package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/staywright/internal/observability"
	"github.com/xkilldash9x/staywright/internal/runner"
)

func newRunCmd(deps dependencies) *cobra.Command {
	var runBy string

	runCmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run the configured test targets",
		Long: `Runs every test target in order, one runner invocation each. Targets given
on the command line replace tests.targets from the configuration file, and
--by replaces tests.run_by. A failing target does not stop the run.`,
		Example: `  staywright run
  staywright run TestConfirmBookingDetails TestBookingReservation
  staywright run --by file e2e/flows_test.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			if runBy == "" {
				runBy = cfg.RunBy()
			}
			names := args
			if len(names) == 0 {
				names = cfg.Targets()
			}
			target, err := runner.NewTarget(runBy, names)
			if err != nil {
				return err
			}

			invoker := deps.newInvoker(cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
			driver := runner.NewDriver(cfg, invoker, logger, runner.WithOutput(cmd.OutOrStdout()))
			return driver.Run(ctx, target)
		},
	}

	runCmd.Flags().StringVar(&runBy, "by", "", "How targets are selected: name, marker or file (default from tests.run_by)")
	return runCmd
}
