package models

import "time"

// Action is an immutable collection event recorded by the Target System.
type Action struct {
	ActionID   string    `json:"action_id"`
	CreditID   string    `json:"credit_id"`
	ActionAt   time.Time `json:"action_at"`
	Task       string    `json:"task,omitempty"`
	ActionType string    `json:"action_type,omitempty"`
	Note       string    `json:"note,omitempty"`
	PartyName  string    `json:"party_name,omitempty"`

	SourceStatus ExportStatus `json:"source_status"`
	RegisteredAt time.Time    `json:"registered_at"`
}
