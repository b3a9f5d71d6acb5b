package segmenter

import (
	"errors"
	"fmt"
)

var (
	// ErrDetection marks a failed call to the detector.
	ErrDetection = errors.New("detection failure")
	// ErrMerge marks a failed call to the merger.
	ErrMerge = errors.New("merge failure")
	// ErrTask marks a failed pre-merge pair.
	ErrTask = errors.New("pre-merge task failure")
)

// StepError reports a detector or merger failure during the grouping scan.
type StepError struct {
	Kind     error
	State    State
	Cursor   int
	FileName string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v at frame %d (%s, %s): %v", e.Kind, e.Cursor, e.FileName, e.State, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// PairError reports the failure of one pre-merge pair.
type PairError struct {
	Index int
	Left  string
	Right string
	Err   error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("pre-merge pair %d (%s + %s): %v", e.Index, e.Left, e.Right, e.Err)
}

func (e *PairError) Unwrap() []error {
	return []error{ErrTask, e.Err}
}
