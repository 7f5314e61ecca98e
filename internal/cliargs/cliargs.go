// Package cliargs compiles a run configuration into the flag tokens understood
// by the test harness running inside the test binary.
package cliargs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/staywright/internal/config"
)

// TimestampLayout renders the run timestamp as DD-MM-YYYY_HH-MM-SS.
const TimestampLayout = "02-01-2006_15-04-05"

// Report file names written under the output directory.
const (
	JUnitReportName = "report.xml"
	JSONReportName  = "report.json"
	JSONIndent      = 4
)

// Flag names shared with the harness flag parser.
const (
	FlagJSONReport           = "--json-report"
	FlagJSONReportIndent     = "--json-report-indent"
	FlagRootFolder           = "--root-folder"
	FlagOutput               = "--output"
	FlagJUnitXML             = "--junitxml"
	FlagJSONReportFile       = "--json-report-file"
	FlagDefaultTimeout       = "--default-timeout"
	FlagNavigationTimeout    = "--navigation-timeout"
	FlagViewport             = "--viewport"
	FlagTracing              = "--tracing"
	FlagVideo                = "--video"
	FlagScreenshot           = "--screenshot"
	FlagLogLevel             = "--log-cli-level"
	FlagPassword             = "--password"
	FlagUsername             = "--username"
	FlagBaseURL              = "--base-url"
	FlagWorkers              = "-n"
	FlagHeaded               = "--headed"
	FlagIgnoreHTTPSErrors    = "--ignore-https-errors"
	FlagBrowser              = "--browser"
	FlagBrowserChannel       = "--browser-channel"
	FlagFullPageScreenshot   = "--full-page-screenshot"
	FlagDevice               = "--device"
	FlagUseStorageState      = "--use-storage-state"
	FlagClipboardPermissions = "--clipboard-permissions"
)

var labelSanitizer = strings.NewReplacer("/", "_", "\\", "_")

// ReportsFolder derives the per-run output directory:
// {pattern}-{label}-{DD-MM-YYYY}_{HH-MM-SS}. Path separators in the label are
// replaced so a file target never nests the directory.
func ReportsFolder(cfg *config.RunConfiguration, runLabel string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", cfg.ReportsFolderPattern(), labelSanitizer.Replace(runLabel), now.Format(TimestampLayout))
}

// Compile turns cfg into the ordered token sequence for one run. The result
// depends only on its inputs.
func Compile(cfg *config.RunConfiguration, runLabel string, now time.Time) []string {
	output := ReportsFolder(cfg, runLabel, now)
	viewport := cfg.Viewport()

	args := []string{
		FlagJSONReport,
		FlagJSONReportIndent + "=" + strconv.Itoa(JSONIndent),
		FlagRootFolder, cfg.RootFolder(),
		FlagOutput, output,
		FlagJUnitXML, filepath.Join(output, JUnitReportName),
		FlagJSONReportFile, filepath.Join(output, JSONReportName),
		FlagDefaultTimeout, strconv.Itoa(cfg.DefaultTimeoutMs()),
		FlagNavigationTimeout, strconv.Itoa(cfg.NavigationTimeoutMs()),
		FlagViewport, strconv.Itoa(viewport.Width), strconv.Itoa(viewport.Height),
		FlagTracing, cfg.Tracing().String(),
		FlagVideo, cfg.Video().String(),
		FlagScreenshot, cfg.Screenshot().String(),
		FlagLogLevel, cfg.LogLevel().String(),
		FlagPassword, cfg.Password(),
		FlagUsername, cfg.Username(),
		FlagBaseURL, cfg.BaseURL(),
		FlagWorkers, strconv.Itoa(cfg.Workers()),
	}

	if cfg.Headed() {
		args = append(args, FlagHeaded)
	}
	if cfg.IgnoreHTTPSErrors() {
		args = append(args, FlagIgnoreHTTPSErrors)
	}
	for _, b := range cfg.Browsers() {
		args = append(args, FlagBrowser, b.String())
	}
	if cfg.Channel() != config.ChannelNone {
		args = append(args, FlagBrowserChannel, cfg.Channel().String())
	}
	if cfg.FullPageScreenshot() {
		args = append(args, FlagFullPageScreenshot)
	}
	if cfg.Device() != "" {
		args = append(args, FlagDevice, cfg.Device())
	}
	if cfg.UseStorageState() {
		args = append(args, FlagUseStorageState)
	}
	if cfg.ClipboardPermissions() {
		args = append(args, FlagClipboardPermissions)
	}
	return args
}

// Redact returns a copy of args with the password value masked, for logging.
func Redact(args []string) []string {
	out := append([]string(nil), args...)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == FlagPassword {
			out[i+1] = "******"
			i++
		}
	}
	return out
}
