package types

import (
	"time"
)

// DefaultAuthor is the byline used when an article page has no author element.
const DefaultAuthor = "Web Desk"

// ArticleRecord is the structured result of visiting one article page.
// Field names on the wire match the dataset the service has always published.
type ArticleRecord struct {
	// Title is the article headline, empty when the page has none.
	Title string `json:"title" bson:"title"`

	// Author is the byline text, DefaultAuthor when missing.
	Author string `json:"name" bson:"name"`

	// Locations are the gazetteer regions mentioned in the body, in gazetteer order.
	Locations []string `json:"area" bson:"area"`

	// Persons are up to three distinct person names found in the body.
	Persons []string `json:"person" bson:"person"`

	// CapturedAt is when the article was extracted.
	CapturedAt time.Time `json:"timestamp" bson:"timestamp"`

	// URL is the article page the record was extracted from.
	URL string `json:"url,omitempty" bson:"url,omitempty"`

	// RunID ties the record to the run that produced it. Never exposed to readers.
	RunID string `json:"-" bson:"run_id"`
}

// Clone returns a deep copy of the record.
func (r ArticleRecord) Clone() ArticleRecord {
	c := r
	c.Locations = append([]string(nil), r.Locations...)
	c.Persons = append([]string(nil), r.Persons...)
	return c
}

// Snapshot is the complete output of one run, handed to storage as a unit.
type Snapshot struct {
	RunID     string
	Records   []ArticleRecord
	CreatedAt time.Time
}

// NewSnapshot builds a snapshot and stamps every record with the run id.
func NewSnapshot(runID string, records []ArticleRecord) *Snapshot {
	stamped := make([]ArticleRecord, len(records))
	for i, r := range records {
		stamped[i] = r.Clone()
		stamped[i].RunID = runID
	}
	return &Snapshot{
		RunID:     runID,
		Records:   stamped,
		CreatedAt: time.Now().UTC(),
	}
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Trigger identifies what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerStartup  Trigger = "startup"
)

// RunResult summarizes a completed run.
type RunResult struct {
	RunID      string    `json:"run_id"`
	Trigger    Trigger   `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	LinksFound int       `json:"links_found"`
	Records    int       `json:"records"`
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
