package directory

import "time"

// Review is a single external review, keyed by (Source, ExternalID) so a
// re-ingest upserts rather than duplicates.
type Review struct {
	BusinessID  int64
	Source      string
	ExternalID  string
	Rating      float64
	Text        string
	AuthorName  string
	AuthorPhoto string
	PublishedAt *time.Time
}

// ReviewSummary is the per-(business, source) aggregate recomputed on every
// refresh.
type ReviewSummary struct {
	BusinessID  int64
	Source      string
	Rating      *float64
	ReviewCount *int
	URL         string
	SyncedAt    time.Time
}
