package fixture

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// SetupFolderSuffix replaces the test name in the artifact folder of a test
// whose setup hook failed.
const SetupFolderSuffix = "base_test_setup"

// Identity names a test: the source file it is declared in and its full name
// as reported by testing.T.Name.
type Identity struct {
	File string
	Name string
}

var testNameReplacer = strings.NewReplacer("/", "_", "[", "_", "]", "")

// Title is the human-readable trace title.
func (id Identity) Title() (string, error) {
	if strings.TrimSpace(id.Name) == "" {
		return "", errors.New("test identity has no name")
	}
	return id.Name, nil
}

// DottedPath renders file relative to root with separators turned into dots
// and the .go suffix removed: e2e/flows_test.go becomes e2e.flows_test.
// Files outside root fall back to their base name.
func DottedPath(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(file)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".go")
	return strings.ReplaceAll(rel, "/", ".")
}

// Folder returns the artifact folder name of the test.
func (id Identity) Folder(root string, setupPhase bool) string {
	dotted := DottedPath(root, id.File)
	if setupPhase {
		return dotted + "." + SetupFolderSuffix
	}
	return dotted + "." + testNameReplacer.Replace(id.Name)
}

// ArtifactKind is one of the persisted artifact types.
type ArtifactKind string

const (
	KindTrace      ArtifactKind = "trace"
	KindScreenshot ArtifactKind = "screenshot"
	KindVideo      ArtifactKind = "video"
)

// Ext is the file extension of the artifact kind.
func (k ArtifactKind) Ext() string {
	switch k {
	case KindTrace:
		return "zip"
	case KindScreenshot:
		return "png"
	default:
		return "webm"
	}
}

// ArtifactPath returns {dir}/{kind}_{status}[-{index}].{ext}. Index 0 means
// the artifact is not per page and carries no suffix.
func ArtifactPath(dir string, kind ArtifactKind, status string, index int) string {
	name := fmt.Sprintf("%s_%s", kind, status)
	if index > 0 {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	return filepath.Join(dir, name+"."+kind.Ext())
}

// Outcome is how a test ended.
type Outcome int

const (
	// OutcomeUnknown is a test that never reported a result, for example
	// because its body panicked or called runtime.Goexit through a helper.
	OutcomeUnknown Outcome = iota
	OutcomePassed
	OutcomeFailed
)

// Failed treats everything but an explicit pass as a failure.
func (o Outcome) Failed() bool { return o != OutcomePassed }

// Status is the outcome label used in artifact names.
func (o Outcome) Status() string {
	if o.Failed() {
		return "failed"
	}
	return "passed"
}

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
