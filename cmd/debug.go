package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/fixture"
	"github.com/xkilldash9x/staywright/internal/harness"
	"github.com/xkilldash9x/staywright/internal/observability"
	"github.com/xkilldash9x/staywright/internal/site"
)

const debugShutdownTimeout = 30 * time.Second

// newDebugCmd opens a headed session on the landing page with the debugger
// settings and keeps it open until the command is interrupted.
func newDebugCmd(deps dependencies) *cobra.Command {
	var browserName string

	debugCmd := &cobra.Command{
		Use:         "debug",
		Short:       "Open a headed browser on the site with the debugger settings",
		Annotations: map[string]string{annotationOverrides: "debugger"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger().Named("debug")

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			kind := cfg.Browsers()[0]
			if browserName != "" {
				if kind, err = config.ParseBrowser(browserName); err != nil {
					return err
				}
			}
			return runDebug(ctx, cmd, cfg, kind, deps.newLauncher(cfg, logger), logger)
		},
	}

	debugCmd.Flags().StringVarP(&browserName, "browser", "b", "", "Browser engine to open (default is the first configured browser)")
	return debugCmd
}

func runDebug(ctx context.Context, cmd *cobra.Command, cfg *config.RunConfiguration, kind config.Browser, launcher harness.Launcher, logger *zap.Logger) (err error) {
	suite := harness.NewSuite(cfg, &harness.Options{}, launcher, logger, nil)
	defer func() {
		// The command context is done by now.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), debugShutdownTimeout)
		defer cancel()
		err = errors.Join(err, suite.Finish(shutdownCtx, 0))
	}()

	id := fixture.Identity{File: filepath.Join(cfg.RootFolder(), "debug.go"), Name: "debug"}
	sess, err := suite.Open(ctx, kind, id)
	if err != nil {
		return err
	}
	defer func() {
		if _, tdErr := sess.Teardown(fixture.TeardownInput{Outcome: fixture.OutcomePassed}); tdErr != nil {
			err = errors.Join(err, tdErr)
		}
	}()

	page, err := sess.NewPage()
	if err != nil {
		return err
	}
	s, err := site.New(page, cfg.BaseURL(), logger)
	if err != nil {
		return err
	}
	if err := s.Home.Navigate(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Debug session open on %s (%s). Press Ctrl+C to close it.\n", page.URL(), kind)
	<-ctx.Done()
	logger.Info("Closing debug session.")
	return nil
}
