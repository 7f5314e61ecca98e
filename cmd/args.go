package cmd

import (
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/staywright/internal/cliargs"
)

// newArgsCmd prints the arguments a run would pass to the test binary.
func newArgsCmd() *cobra.Command {
	var showSecrets bool
	var oneLine bool

	argsCmd := &cobra.Command{
		Use:   "args [label]",
		Short: "Print the compiled test arguments",
		Long: `Compiles the configuration into the arguments the test binary receives and
prints them one per line. The label names the reports folder and defaults to
"manual". The password is masked unless --show-secrets is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}

			label := "manual"
			if len(args) == 1 {
				label = args[0]
			}
			compiled := cliargs.Compile(cfg, label, time.Now())
			if !showSecrets {
				compiled = cliargs.Redact(compiled)
			}

			if oneLine {
				fmt.Fprintln(cmd.OutOrStdout(), shellquote.Join(compiled...))
				return nil
			}
			for _, a := range compiled {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}

	argsCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the password instead of masking it")
	argsCmd.Flags().BoolVar(&oneLine, "one-line", false, "Print a single shell-quoted line")
	return argsCmd
}
