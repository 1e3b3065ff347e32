package model

import "time"

// LeadStatus tracks the sales follow-up state of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusReplied   LeadStatus = "REPLIED"
	LeadStatusWon       LeadStatus = "WON"
	LeadStatusLost      LeadStatus = "LOST"
	LeadStatusDiscarded LeadStatus = "DISCARDED"
)

// Lead is a persisted business record. Optional string fields are empty when
// the value was not found and are stored as NULL.
type Lead struct {
	ID               string     `json:"id"`
	BusinessName     string     `json:"business_name"`
	City             string     `json:"city"`
	Category         string     `json:"category"`
	Address          string     `json:"address,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	WebsiteURL       string     `json:"website_url,omitempty"`
	InstagramURL     string     `json:"instagram_url,omitempty"`
	HasWebsite       bool       `json:"has_website"`
	HasInstagram     bool       `json:"has_instagram"`
	OpportunityScore int        `json:"opportunity_score"`
	Status           LeadStatus `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	JobID            string     `json:"job_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// LeadFilter narrows a lead listing. Zero values match everything.
type LeadFilter struct {
	City     string
	Category string
	JobID    string
	MinScore int
	Limit    int
	Offset   int
}
