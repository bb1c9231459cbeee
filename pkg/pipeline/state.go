package pipeline

import (
	"fmt"

	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/project"
	"github.com/chazu/bimzone/pkg/simplify"
	"github.com/chazu/bimzone/pkg/spatial"
	"github.com/pkg/errors"
)

// State is the progress of one window or door through the pipeline.
type State int

const (
	StateExtracted State = iota
	StateSimplified
	StateSpacesResolved
	StateProjected
	StateEmbedded
	StateOrphaned
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateExtracted:
		return "extracted"
	case StateSimplified:
		return "simplified"
	case StateSpacesResolved:
		return "spaces-resolved"
	case StateProjected:
		return "projected"
	case StateEmbedded:
		return "embedded"
	case StateOrphaned:
		return "orphaned"
	case StateSkipped:
		return "skipped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateEmbedded || s == StateOrphaned || s == StateSkipped
}

// Failure kinds recorded for skipped elements.
const (
	FailureMissingVoid   = "missing-void"
	FailureNoSpaces      = "no-spaces"
	FailureTooManySpaces = "too-many-spaces"
	FailureDegenerate    = "degenerate"
	FailureNoHostFace    = "no-host-face"
	FailureGeometry      = "geometry"
)

// classify maps a stage error to its failure kind.
func classify(err error) string {
	switch errors.Cause(err) {
	case kernel.ErrNoFilledVoid, kernel.ErrUnknownElement:
		return FailureMissingVoid
	case spatial.ErrNoSpaces:
		return FailureNoSpaces
	case spatial.ErrTooManySpaces:
		return FailureTooManySpaces
	case simplify.ErrDegenerate:
		return FailureDegenerate
	case project.ErrNoHostFace:
		return FailureNoHostFace
	}
	return FailureGeometry
}
