package directory

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	JobTypeSearchIngest    JobType = "search_ingest"
	JobTypeRefresh         JobType = "refresh"
	JobTypeSiteAssociation JobType = "site_association"
	JobTypeSearchSync      JobType = "search_sync"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeSearchIngest, JobTypeRefresh, JobTypeSiteAssociation, JobTypeSearchSync:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is a queued unit of deferred work. Payload is type-specific input set
// at enqueue time; Meta is type-specific bookkeeping the processor mutates
// as it runs, so observers can see partial progress before the job finishes.
type Job struct {
	ID          string
	Type        JobType
	Payload     json.RawMessage
	Status      JobStatus
	Progress    int
	Meta        json.RawMessage
	Error       *string
	LockedBy    *string
	LockedAt    *time.Time
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinishedAt  *time.Time
}

func (j *Job) CanRetry() bool {
	return j.Status == JobStatusFailed && j.Attempts < j.MaxAttempts
}

type SearchIngestPayload struct {
	Query      string `json:"query"`
	CategoryID int64  `json:"category_id"`
	SiteID     *int64 `json:"site_id,omitempty"`
}

type RefreshPayload struct {
	SiteID int64 `json:"site_id"`
}

type SiteAssociationPayload struct {
	SiteID int64 `json:"site_id"`
}

type SearchSyncPayload struct {
	SiteID     int64 `json:"site_id"`
	FullResync bool  `json:"full_resync"`
}
