package fixture

import (
	"errors"
	"fmt"
)

// ErrTornDown is returned when a session is torn down twice.
var ErrTornDown = errors.New("session already torn down")

// ArtifactCaptureError describes an artifact that could not be persisted.
// Teardown reports these but never fails the test because of them.
type ArtifactCaptureError struct {
	Kind ArtifactKind
	Path string
	Err  error
}

func (e *ArtifactCaptureError) Error() string {
	return fmt.Sprintf("failed to capture %s at %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ArtifactCaptureError) Unwrap() error { return e.Err }
