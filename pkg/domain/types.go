package domain

import "time"

// User is a bot participant. Created on first interaction, refreshed on
// every later one, never deleted.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	JoinedAt  time.Time `json:"joined_date"`
	LastSeen  time.Time `json:"last_seen"`
}

// Submission is a proposed book entry awaiting or past admin review.
// Submitter fields are a snapshot taken at submission time.
type Submission struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Author            string     `json:"author"`
	SubmitterID       int64      `json:"submitter_id"`
	SubmitterUsername string     `json:"submitter_username"`
	SubmitterName     string     `json:"submitter_name"`
	DriveLink         string     `json:"gdrive_link"`
	FileID            string     `json:"file_id"`
	SubmittedAt       time.Time  `json:"timestamp"`
	Approved          bool       `json:"approved"`
	ApprovedAt        *time.Time `json:"approved_date"`
	ApprovedBy        string     `json:"approved_by"`
}

// Library is the persisted document: every user and every submission,
// written and rewritten as one unit.
type Library struct {
	Users []User       `json:"users"`
	Books []Submission `json:"books"`
}
