package pipeline

import "fmt"

// SourceUnavailableError means no articles could be fetched from any feed.
type SourceUnavailableError struct {
	Message string
	Cause   error
}

func (e *SourceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("source unavailable: %s", e.Message)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Cause
}

// EmptyStageError means a stage produced nothing for the next stage to
// consume, ending the run.
type EmptyStageError struct {
	Stage   string
	Message string
}

func (e *EmptyStageError) Error() string {
	return fmt.Sprintf("stage %s produced no output: %s", e.Stage, e.Message)
}
