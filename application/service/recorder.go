package service

import (
	"time"

	"github.com/cuboulder-se-research/em-assist/domain/extraction"
)

// Outcome labels reported to a Recorder.
const (
	OutcomeCompleted = "completed"
	OutcomeDegraded  = "degraded"
)

// Recorder observes orchestration outcomes.
type Recorder interface {
	Started()
	Finished(outcome string, elapsed time.Duration, candidates []extraction.Candidate)
}

type noopRecorder struct{}

func (noopRecorder) Started() {}

func (noopRecorder) Finished(string, time.Duration, []extraction.Candidate) {}
