package ingest

// Per-job-type metadata shapes. Metas are only ever written by the job's own
// worker, appended to as the run proceeds, and persisted whole on every
// progress update.

type SearchIngestMeta struct {
	Query           string   `json:"query"`
	TotalPlaces     int      `json:"total_places"`
	ProcessedPlaces int      `json:"processed_places"`
	ProcessedIDs    []string `json:"processed_ids"`
	FailedIDs       []string `json:"failed_ids,omitempty"`
	Note            string   `json:"note,omitempty"`
}

type RefreshMeta struct {
	Total     int      `json:"total"`
	Refreshed int      `json:"refreshed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
	Note      string   `json:"note,omitempty"`
}

type SiteAssociationMeta struct {
	Matched int    `json:"matched"`
	Linked  int    `json:"linked"`
	Note    string `json:"note,omitempty"`
}

type SearchSyncMeta struct {
	Total         int    `json:"total"`
	Synced        int    `json:"synced"`
	FailedBatches int    `json:"failed_batches"`
	Note          string `json:"note,omitempty"`
}
