package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

type StartJobInput struct {
	Type    string
	Payload json.RawMessage
}

type StartJobOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type StartJob interface {
	Execute(ctx context.Context, in StartJobInput) (StartJobOutput, error)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, jobType domain.JobType, payload json.RawMessage) (string, error)
}

type startJob struct {
	jobRepo jobEnqueuer
}

func NewStartJob(jobRepo jobEnqueuer) StartJob {
	return &startJob{jobRepo: jobRepo}
}

func (uc *startJob) Execute(ctx context.Context, in StartJobInput) (StartJobOutput, error) {
	jobType := domain.JobType(in.Type)
	if !jobType.Valid() {
		return StartJobOutput{}, ErrInvalidJobType
	}

	if err := validatePayload(jobType, in.Payload); err != nil {
		return StartJobOutput{}, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	jobID, err := uc.jobRepo.Enqueue(ctx, jobType, in.Payload)
	if err != nil {
		return StartJobOutput{}, fmt.Errorf("%w: %v", ErrEnqueueJob, err)
	}

	return StartJobOutput{
		JobID:  jobID,
		Status: string(domain.JobStatusPending),
	}, nil
}

func validatePayload(jobType domain.JobType, raw json.RawMessage) error {
	switch jobType {
	case domain.JobTypeSearchIngest:
		var p domain.SearchIngestPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if p.Query == "" {
			return fmt.Errorf("query is required")
		}
		if p.CategoryID == 0 {
			return fmt.Errorf("category_id is required")
		}
	case domain.JobTypeRefresh:
		var p domain.RefreshPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if p.SiteID == 0 {
			return fmt.Errorf("site_id is required")
		}
	case domain.JobTypeSiteAssociation:
		var p domain.SiteAssociationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if p.SiteID == 0 {
			return fmt.Errorf("site_id is required")
		}
	case domain.JobTypeSearchSync:
		var p domain.SearchSyncPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		if p.SiteID == 0 {
			return fmt.Errorf("site_id is required")
		}
	}
	return nil
}
