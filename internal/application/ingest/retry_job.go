package ingest

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
)

type RetryJobInput struct {
	ID string
}

type RetryJobOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type RetryJob interface {
	Execute(ctx context.Context, in RetryJobInput) (RetryJobOutput, error)
}

type jobResubmitter interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	Resubmit(ctx context.Context, jobID string) error
}

type retryJob struct {
	jobRepo jobResubmitter
}

func NewRetryJob(jobRepo jobResubmitter) RetryJob {
	return &retryJob{jobRepo: jobRepo}
}

func (uc *retryJob) Execute(ctx context.Context, in RetryJobInput) (RetryJobOutput, error) {
	if !jobIDPattern.MatchString(in.ID) {
		return RetryJobOutput{}, ErrInvalidJobID
	}

	job, err := uc.jobRepo.Get(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return RetryJobOutput{}, ErrJobNotFound
		}
		return RetryJobOutput{}, fmt.Errorf("%w: %v", ErrRetryJob, err)
	}

	if !job.CanRetry() {
		return RetryJobOutput{}, ErrJobNotRetryable
	}

	if err := uc.jobRepo.Resubmit(ctx, job.ID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return RetryJobOutput{}, ErrJobNotRetryable
		}
		return RetryJobOutput{}, fmt.Errorf("%w: %v", ErrRetryJob, err)
	}

	return RetryJobOutput{
		JobID:  job.ID,
		Status: string(domain.JobStatusPending),
	}, nil
}
