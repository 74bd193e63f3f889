// internal/model/campaign.go
package model

import "time"

// CampaignStatus is the lifecycle state of a campaign. Transitions are
// monotonic: processing moves to completed or failed and never back.
type CampaignStatus string

const (
	StatusProcessing CampaignStatus = "processing"
	StatusCompleted  CampaignStatus = "completed"
	StatusFailed     CampaignStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s CampaignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// OutcomeRecord is the result of one delivery attempt. Records are immutable
// once appended to the ledger; Message holds the rendered body (empty when
// the recipient never reached rendering) and Note a human-readable status.
type OutcomeRecord struct {
	Phone   string `json:"phone"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
	Note    string `json:"note"`
}

// CampaignView is a point-in-time copy of a campaign's ledger entry.
// Processed always equals Successful+Failed and matches the number of
// recorded outcomes.
type CampaignView struct {
	Key        string          `json:"key"`
	Status     CampaignStatus  `json:"status"`
	Total      int             `json:"total"`
	Processed  int             `json:"processed"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Outcomes   []OutcomeRecord `json:"outcomes,omitempty"`
}
