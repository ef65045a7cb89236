package models

import "time"

// Stage identifies one of the fixed forward-only phases of the onboarding
// workflow. The maintenance and safety stages are progress sub-divisions of
// the rules stage; they perform no network calls of their own.
type Stage string

const (
	StageUpload      Stage = "upload"
	StageDevice      Stage = "device"
	StageRules       Stage = "rules"
	StageMaintenance Stage = "maintenance"
	StageSafety      Stage = "safety"
	StageComplete    Stage = "complete"
)

// StepDetails carries the position of the current sub-step within the
// workflow's fixed step list.
type StepDetails struct {
	CurrentStep int    `json:"current_step"`
	TotalSteps  int    `json:"total_steps"`
	StepName    string `json:"step_name"`
}

// ProgressEvent is a single progress report handed to the caller's sink after
// every state transition. Events are fire-and-forget; the workflow retains no
// history.
type ProgressEvent struct {
	Stage      Stage        `json:"stage"`
	Progress   float64      `json:"progress"`
	Message    string       `json:"message"`
	SubMessage string       `json:"sub_message,omitempty"`
	Details    *StepDetails `json:"step_details,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// ProgressFunc receives progress events during a workflow run. A nil
// ProgressFunc drops events.
type ProgressFunc func(ProgressEvent)
