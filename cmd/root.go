// Package cmd is the staywright command line: it loads the configuration,
// compiles it into runner arguments and drives the end-to-end test runs.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/harness"
	"github.com/xkilldash9x/staywright/internal/observability"
	"github.com/xkilldash9x/staywright/internal/runner"
)

type contextKey string

const configKey contextKey = "config"

// annotationOverrides marks commands that load the configuration with the
// debugger overrides applied.
const annotationOverrides = "staywright/overrides"

// dependencies are the collaborators the commands create. Tests replace them.
type dependencies struct {
	newInvoker  func(stdout, stderr io.Writer, logger *zap.Logger) runner.Invoker
	newLauncher func(cfg *config.RunConfiguration, logger *zap.Logger) harness.Launcher
}

func defaultDependencies() dependencies {
	return dependencies{
		newInvoker: func(stdout, stderr io.Writer, logger *zap.Logger) runner.Invoker {
			return runner.NewExecInvoker(stdout, stderr, logger)
		},
		newLauncher: func(cfg *config.RunConfiguration, logger *zap.Logger) harness.Launcher {
			return browser.NewManager(browser.LaunchOptions{
				Headed:  true,
				Channel: cfg.Channel(),
				Install: os.Getenv(harness.EnvInstall) != "",
				Kinds:   cfg.Browsers(),
			}, logger)
		},
	}
}

// NewRootCommand builds the staywright command tree.
func NewRootCommand() *cobra.Command {
	return newRootCmd(defaultDependencies())
}

func newRootCmd(deps dependencies) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "staywright",
		Short: "Staywright runs browser end-to-end tests against the booking site.",
		Long: `Staywright compiles staywright.yaml into the command line of the test
runner, invokes it once per test target and collects traces, videos,
screenshots and JSON/JUnit reports for every run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWith(configFile(cfgFile), overridesFor(cmd))
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			console := zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr()))
			observability.Initialize(observability.WithLevel(cliLoggerConfig(cfg), cfg.LogLevel()), console)
			observability.GetLogger().Debug("Starting staywright", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is the nearest staywright.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newRunCmd(deps))
	rootCmd.AddCommand(newArgsCmd())
	rootCmd.AddCommand(newDebugCmd(deps))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command with ctx. The error is logged before it is
// returned.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	return err
}

// configFile resolves the configuration path: the flag, then the
// environment, then the nearest staywright.yaml above the working directory.
func configFile(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(harness.EnvConfig); p != "" {
		return p
	}
	if p, ok := config.Locate("."); ok {
		return p
	}
	return ""
}

func overridesFor(cmd *cobra.Command) map[string]any {
	if _, ok := cmd.Annotations[annotationOverrides]; !ok {
		return nil
	}
	overrides := harness.DebuggerOverrides()
	overrides["headed"] = true
	return overrides
}

func cliLoggerConfig(cfg *config.RunConfiguration) config.LoggerConfig {
	lc := cfg.Logger()
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.ServiceName == "" {
		lc.ServiceName = "staywright"
	}
	return lc
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (*config.RunConfiguration, error) {
	cfg, ok := ctx.Value(configKey).(*config.RunConfiguration)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}
