package reporter

import (
	"errors"
	"fmt"
)

// Step is a state of the run state machine.
type Step string

const (
	StepFetchInventory Step = "FETCH_INVENTORY"
	StepLoadHistory    Step = "LOAD_HISTORY"
	StepFetchCost      Step = "FETCH_COST"
	StepAggregate      Step = "AGGREGATE"
	StepPersistHistory Step = "PERSIST_HISTORY"
	StepRender         Step = "RENDER"
	StepNotify         Step = "NOTIFY"
	StepDone           Step = "DONE"
	StepFailed         Step = "FAILED"
)

// Steps lists the working steps in the order a run goes through them.
var Steps = []Step{
	StepFetchInventory,
	StepLoadHistory,
	StepFetchCost,
	StepAggregate,
	StepPersistHistory,
	StepRender,
	StepNotify,
}

// Kind classifies why a run failed.
type Kind string

const (
	ConfigurationError Kind = "ConfigurationError"
	UpstreamDataError  Kind = "UpstreamDataError"
	StorageError       Kind = "StorageError"
	DeliveryError      Kind = "DeliveryError"
)

// RunError is returned by Run for the first step that failed.
type RunError struct {
	Step Step
	Kind Kind
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or an empty Kind when err isn't a RunError.
func KindOf(err error) Kind {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind
	}
	return ""
}

func stepError(step Step, kind Kind, format string, args ...interface{}) *RunError {
	return &RunError{Step: step, Kind: kind, Err: fmt.Errorf(format, args...)}
}
