// Package model defines shared data structures for the empleos service.
package model

import "time"

// JobHighlights groups the optional bullet-point lists a listing may carry.
// The upstream API uses capitalised JSON keys for these.
type JobHighlights struct {
	Qualifications []string `json:"Qualifications,omitempty"`
	Benefits       []string `json:"Benefits,omitempty"`
}

// JobListing is one job posting as returned by the JSearch API.
// ID is externally assigned and treated as opaque; uniqueness across pages
// is an upstream assumption, not enforced here.
type JobListing struct {
	ID                string        `json:"job_id"`
	Title             string        `json:"job_title"`
	Employer          string        `json:"employer_name"`
	EmployerLogo      string        `json:"employer_logo,omitempty"`
	Country           string        `json:"job_country"`
	EmploymentType    string        `json:"job_employment_type"`
	Salary            string        `json:"job_salary,omitempty"`
	PostedAtTimestamp int64         `json:"job_posted_at_timestamp"`
	Description       string        `json:"job_description"`
	Highlights        JobHighlights `json:"job_highlights,omitempty"`
}

// PostedAt converts the upstream epoch-seconds timestamp to time.Time.
func (j JobListing) PostedAt() time.Time {
	return time.Unix(j.PostedAtTimestamp, 0)
}

// NotificationPreferences is a user's saved search criteria. The existence
// of a stored record is the signal that notifications are enabled; clearing
// notifications deletes the record.
type NotificationPreferences struct {
	Keywords       string `json:"keywords"`
	Location       string `json:"location"`
	EmploymentType string `json:"employmentType"`
	Salary         string `json:"salary"`
	Experience     string `json:"experience"`
}

// Notification is one entry in a user's notification inbox.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	JobID     string    `json:"jobId"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}
