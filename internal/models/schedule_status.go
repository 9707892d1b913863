package models

import "time"

// ScheduleStatus describes the scheduler and its most recent run.
type ScheduleStatus struct {
	Running        bool       `json:"running"`
	Entries        int        `json:"entries"`
	Runs           int        `json:"runs"`
	Skipped        int        `json:"skipped"`
	InProgress     bool       `json:"in_progress"`
	LastRunID      string     `json:"last_run_id,omitempty"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	LastPhase      Phase      `json:"last_phase,omitempty"`
	LastCandidates int        `json:"last_candidates"`
	LastError      string     `json:"last_error,omitempty"`
	NextRun        *time.Time `json:"next_run,omitempty"`
}
