package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	json "github.com/json-iterator/go"
)

// Result is the record of one test on one browser.
type Result struct {
	NodeID        string   `json:"nodeid"`
	Package       string   `json:"package"`
	Name          string   `json:"name"`
	Browser       string   `json:"browser"`
	Outcome       string   `json:"outcome"`
	Duration      float64  `json:"duration"`
	Folder        string   `json:"artifacts_folder,omitempty"`
	Artifacts     []string `json:"artifacts,omitempty"`
	CaptureErrors []string `json:"capture_errors,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Summary counts results per outcome.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Unknown int `json:"unknown,omitempty"`
	Total   int `json:"total"`
}

// Report is the JSON report document.
type Report struct {
	RunID    string   `json:"run_id"`
	Created  float64  `json:"created"`
	Duration float64  `json:"duration"`
	ExitCode int      `json:"exitcode"`
	Root     string   `json:"root"`
	Summary  Summary  `json:"summary"`
	Tests    []Result `json:"tests"`
}

func summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case "passed":
			s.Passed++
		case "failed":
			s.Failed++
		default:
			s.Unknown++
		}
	}
	s.Total = len(results)
	return s
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes r to path indented by indent spaces.
func WriteJSON(path string, r Report, indent int) error {
	if r.Tests == nil {
		r.Tests = []Result{}
	}
	data, err := json.MarshalIndent(r, "", strings.Repeat(" ", indent))
	if err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func seconds(d float64) string { return strconv.FormatFloat(d, 'f', 3, 64) }

// WriteJUnit writes r as a JUnit XML document with one testcase per result.
func WriteJUnit(path string, r Report, started time.Time) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	suites := doc.CreateElement("testsuites")
	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", "staywright")
	suite.CreateAttr("errors", "0")
	suite.CreateAttr("failures", strconv.Itoa(r.Summary.Failed+r.Summary.Unknown))
	suite.CreateAttr("skipped", "0")
	suite.CreateAttr("tests", strconv.Itoa(r.Summary.Total))
	suite.CreateAttr("time", seconds(r.Duration))
	suite.CreateAttr("timestamp", started.Format("2006-01-02T15:04:05.000000"))

	for _, res := range r.Tests {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("classname", res.Package)
		tc.CreateAttr("name", res.Name)
		tc.CreateAttr("time", seconds(res.Duration))
		if res.Outcome != "passed" {
			f := tc.CreateElement("failure")
			msg := res.Message
			if msg == "" {
				msg = "test " + res.Outcome
			}
			f.CreateAttr("message", msg)
		}
		if len(res.Artifacts) > 0 || len(res.CaptureErrors) > 0 {
			out := tc.CreateElement("system-out")
			lines := append([]string(nil), res.Artifacts...)
			for _, e := range res.CaptureErrors {
				lines = append(lines, "capture error: "+e)
			}
			out.SetText(strings.Join(lines, "\n"))
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to encode JUnit report: %w", err)
	}
	return writeFile(path, data)
}
