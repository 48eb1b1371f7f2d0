package dto

import "envsync/internal/domain/envvar"

// SyncRequest describes one reconciliation run
type SyncRequest struct {
	Desired envvar.DesiredSet
	// Scope is the raw scope identifier (target or deployment name)
	Scope   string
	Confirm bool
	DryRun  bool
}

// PlanEntry is one variable in a rendered plan.
// NOTE: Value is ALWAYS masked
type PlanEntry struct {
	Key       string `json:"key"`
	Action    string `json:"action"`
	Sensitive bool   `json:"sensitive"`
	Value     string `json:"value"` // Masked: "ab****yz"
}

// PlanView is a display-safe copy of a reconciliation plan
type PlanView struct {
	Scope  string      `json:"scope"`
	Set    []PlanEntry `json:"set"`
	Remove []string    `json:"remove"`
}

// SyncResponse is the outcome of a run
type SyncResponse struct {
	RunID     string    `json:"run_id"`
	Provider  string    `json:"provider"`
	Scope     string    `json:"scope"`
	Set       int       `json:"set"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Removed   int       `json:"removed"`
	Warnings  int       `json:"warnings"`
	Cancelled bool      `json:"cancelled"`
	DryRun    bool      `json:"dry_run"`
	Plan      *PlanView `json:"plan,omitempty"`
}
