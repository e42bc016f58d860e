package domain

import "time"

// AuditRecord is a completed store audit: the questionnaire answers, the
// uploaded photo URLs, and the AI-generated report. Append-only like time
// logs.
type AuditRecord struct {
	ID        string
	StoreID   string
	StoreName string
	AuditorID string

	// Answers maps question id to the given answer.
	Answers map[string]string
	// PhotoURLs maps question id to the public URL of the uploaded photo.
	PhotoURLs map[string]string

	Score           int
	Summary         string
	CriticalIssues  []string
	Recommendations []string

	CreatedAt time.Time
}
