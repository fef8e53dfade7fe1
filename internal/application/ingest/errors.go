package ingest

import "errors"

var (
	ErrInvalidJobType    = errors.New("invalid job type")
	ErrInvalidJobPayload = errors.New("invalid job payload")
	ErrEnqueueJob        = errors.New("failed to enqueue job")
	ErrInvalidJobID      = errors.New("invalid job id")
	ErrJobNotFound       = errors.New("job not found")
	ErrGetJob            = errors.New("failed to get job")
	ErrJobNotRetryable   = errors.New("job is not retryable")
	ErrRetryJob          = errors.New("failed to retry job")
)
