package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

var jobIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

type GetJobInput struct {
	ID string
}

type GetJobOutput struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Meta        json.RawMessage `json:"meta,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	CreatedAt   time.Time       `json:"created_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

type GetJob interface {
	Execute(ctx context.Context, in GetJobInput) (GetJobOutput, error)
}

type jobGetter interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

type getJob struct {
	jobRepo jobGetter
}

func NewGetJob(jobRepo jobGetter) GetJob {
	return &getJob{jobRepo: jobRepo}
}

func (uc *getJob) Execute(ctx context.Context, in GetJobInput) (GetJobOutput, error) {
	if !jobIDPattern.MatchString(in.ID) {
		return GetJobOutput{}, ErrInvalidJobID
	}

	job, err := uc.jobRepo.Get(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return GetJobOutput{}, ErrJobNotFound
		}
		return GetJobOutput{}, fmt.Errorf("%w: %v", ErrGetJob, err)
	}

	return GetJobOutput{
		ID:          job.ID,
		Type:        string(job.Type),
		Status:      string(job.Status),
		Progress:    job.Progress,
		Meta:        job.Meta,
		Error:       job.Error,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		CreatedAt:   job.CreatedAt,
		FinishedAt:  job.FinishedAt,
	}, nil
}
