// Package result defines scenario outcomes and the harness error taxonomy.
package result

import (
	"errors"
	"time"
)

// Status is the outcome class of one scenario
type Status string

const (
	StatusSuccess       Status = "success"
	StatusFailure       Status = "failure"
	StatusIndeterminate Status = "indeterminate"
)

// Error kinds. Everything except ErrSetupFailure is scenario-local.
var (
	ErrTargetUnavailable       = errors.New("target unavailable")
	ErrSubmissionTimeout       = errors.New("no submission signal before timeout")
	ErrSetupFailure            = errors.New("browser session setup failed")
	ErrDataGenerationExhausted = errors.New("data generation exhausted")
)

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	Scenario string    `json:"scenario"`
	Status   Status    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
	Time     time.Time `json:"time"`
}

// Success builds a success result stamped with the current time
func Success(scenario, message string) ScenarioResult {
	return ScenarioResult{Scenario: scenario, Status: StatusSuccess, Message: message, Time: time.Now()}
}

// Failure builds a failure result stamped with the current time
func Failure(scenario, message string) ScenarioResult {
	return ScenarioResult{Scenario: scenario, Status: StatusFailure, Message: message, Time: time.Now()}
}

// Indeterminate builds an indeterminate result stamped with the current time
func Indeterminate(scenario, message string) ScenarioResult {
	return ScenarioResult{Scenario: scenario, Status: StatusIndeterminate, Message: message, Time: time.Now()}
}

// FromError maps a scenario error onto a result. A submission timeout is
// indeterminate; every other error is a failure.
func FromError(scenario string, err error) ScenarioResult {
	if errors.Is(err, ErrSubmissionTimeout) {
		return Indeterminate(scenario, err.Error())
	}
	return Failure(scenario, err.Error())
}

// Named returns a copy of r attributed to scenario
func (r ScenarioResult) Named(scenario string) ScenarioResult {
	r.Scenario = scenario
	return r
}

// WithWarnings returns a copy of r carrying the given warnings
func (r ScenarioResult) WithWarnings(warnings ...string) ScenarioResult {
	if len(warnings) == 0 {
		return r
	}
	r.Warnings = append(append([]string(nil), r.Warnings...), warnings...)
	return r
}

// Passed reports whether the result counts as a pass. Indeterminate does not.
func (r ScenarioResult) Passed() bool {
	return r.Status == StatusSuccess
}

// Tally counts results per status
func Tally(results []ScenarioResult) map[string]int {
	counts := map[string]int{
		string(StatusSuccess):       0,
		string(StatusFailure):       0,
		string(StatusIndeterminate): 0,
	}
	for _, r := range results {
		counts[string(r.Status)]++
	}
	return counts
}
