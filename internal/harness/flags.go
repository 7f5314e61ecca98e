package harness

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/xkilldash9x/staywright/internal/cliargs"
	"github.com/xkilldash9x/staywright/internal/config"
)

// FlagUseDebuggerArgs replaces the compiled arguments with the configuration
// file tuned for interactive debugging.
const FlagUseDebuggerArgs = "--use-debugger-args"

// Options are the flags the test binary receives after the -- sentinel.
type Options struct {
	JSONReport       bool
	JSONReportIndent int
	JSONReportFile   string
	JUnitXML         string
	Output           string
	UseDebuggerArgs  bool
	Spec             config.Spec
}

func flagName(f string) string { return strings.TrimLeft(f, "-") }

// joinViewport rewrites the two-token "--viewport W H" form into a single
// "--viewport=W,H" token pflag can parse.
func joinViewport(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] != cliargs.FlagViewport {
			out = append(out, args[i])
			continue
		}
		if i+2 >= len(args) {
			return nil, fmt.Errorf("%w: %s needs a width and a height", config.ErrInvalid, cliargs.FlagViewport)
		}
		for _, v := range args[i+1 : i+3] {
			if _, err := strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("%w: %s value %q is not a number", config.ErrInvalid, cliargs.FlagViewport, v)
			}
		}
		out = append(out, cliargs.FlagViewport+"="+args[i+1]+","+args[i+2])
		i += 2
	}
	return out, nil
}

// ParseArgs parses the compiled argument tokens.
func ParseArgs(args []string) (*Options, error) {
	args, err := joinViewport(args)
	if err != nil {
		return nil, err
	}

	o := &Options{}
	s := &o.Spec
	var viewport []int

	fs := pflag.NewFlagSet("staywright", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	fs.BoolVar(&o.JSONReport, flagName(cliargs.FlagJSONReport), false, "write a JSON report")
	fs.IntVar(&o.JSONReportIndent, flagName(cliargs.FlagJSONReportIndent), cliargs.JSONIndent, "indentation of the JSON report")
	fs.StringVar(&s.RootFolder, flagName(cliargs.FlagRootFolder), ".", "suite root folder")
	fs.StringVar(&o.Output, flagName(cliargs.FlagOutput), "", "artifact output directory")
	fs.StringVar(&o.JUnitXML, flagName(cliargs.FlagJUnitXML), "", "JUnit XML report path")
	fs.StringVar(&o.JSONReportFile, flagName(cliargs.FlagJSONReportFile), "", "JSON report path")
	fs.IntVar(&s.DefaultTimeout, flagName(cliargs.FlagDefaultTimeout), config.DefaultActionTimeout, "action timeout in ms")
	fs.IntVar(&s.NavigationTimeout, flagName(cliargs.FlagNavigationTimeout), config.DefaultNavigationTimeout, "navigation timeout in ms")
	fs.IntSliceVar(&viewport, flagName(cliargs.FlagViewport), []int{1600, 900}, "viewport width and height")
	fs.StringVar(&s.Tracing, flagName(cliargs.FlagTracing), string(config.RecordingRetainOnFailure), "trace policy")
	fs.StringVar(&s.Video, flagName(cliargs.FlagVideo), string(config.RecordingRetainOnFailure), "video policy")
	fs.StringVar(&s.Screenshot, flagName(cliargs.FlagScreenshot), string(config.ScreenshotOnlyOnFailure), "screenshot policy")
	fs.StringVar(&s.LogLevel, flagName(cliargs.FlagLogLevel), string(config.LogInfo), "log level")
	fs.StringVar(&s.Password, flagName(cliargs.FlagPassword), "", "site password")
	fs.StringVar(&s.Username, flagName(cliargs.FlagUsername), "", "site username")
	fs.StringVar(&s.BaseURL, flagName(cliargs.FlagBaseURL), "", "site base URL")
	fs.IntVarP(&s.Workers, "workers", flagName(cliargs.FlagWorkers), config.MinWorkers, "parallel tests")
	fs.BoolVar(&s.Headed, flagName(cliargs.FlagHeaded), false, "show the browser")
	fs.BoolVar(&s.IgnoreHTTPSErrors, flagName(cliargs.FlagIgnoreHTTPSErrors), false, "accept invalid certificates")
	fs.StringArrayVar(&s.Browsers, flagName(cliargs.FlagBrowser), nil, "browser engine, repeatable")
	fs.StringVar(&s.BrowserChannel, flagName(cliargs.FlagBrowserChannel), "", "branded chromium channel")
	fs.BoolVar(&s.FullPageScreenshot, flagName(cliargs.FlagFullPageScreenshot), false, "capture the full page")
	fs.StringVar(&s.Device, flagName(cliargs.FlagDevice), "", "device descriptor name")
	fs.BoolVar(&s.UseStorageState, flagName(cliargs.FlagUseStorageState), false, "reuse the saved login state")
	fs.BoolVar(&s.ClipboardPermissions, flagName(cliargs.FlagClipboardPermissions), false, "grant clipboard access on chromium")
	fs.BoolVar(&o.UseDebuggerArgs, flagName(FlagUseDebuggerArgs), false, "use the debugging configuration")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if len(viewport) != 2 {
		return nil, fmt.Errorf("%w: %s needs a width and a height", config.ErrInvalid, cliargs.FlagViewport)
	}
	s.Viewport = config.ViewportSpec{Width: viewport[0], Height: viewport[1]}
	if len(s.Browsers) == 0 {
		s.Browsers = []string{string(config.Chromium)}
	}
	s.ReportsFolder = o.Output
	return o, nil
}

// sentinelArgs returns the tokens after the first "--" in argv and whether
// the sentinel was present.
func sentinelArgs(argv []string) ([]string, bool) {
	for i, a := range argv {
		if a == "--" {
			return argv[i+1:], true
		}
	}
	return nil, false
}
