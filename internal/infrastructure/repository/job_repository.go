package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Enqueue(ctx context.Context, jobType domain.JobType, payload json.RawMessage) (string, error) {
	job := models.Job{
		JobType: string(jobType),
		Payload: datatypes.JSON(payload),
		Status:  string(domain.JobStatusPending),
	}

	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	return job.ID, nil
}

// ClaimNext atomically claims the oldest pending job for workerID: the claim
// is a single conditional update over a SKIP LOCKED subselect, so two workers
// can never hold the same job. Returns nil when nothing is pending.
func (r *JobRepository) ClaimNext(ctx context.Context, workerID string) (*domain.Job, error) {
	var row models.Job

	err := r.db.WithContext(ctx).Raw(`
		UPDATE jobs
		   SET status = 'processing',
		       locked_by = ?,
		       locked_at = NOW(),
		       attempts = attempts + 1,
		       updated_at = NOW()
		 WHERE id = (
		       SELECT id FROM jobs
		        WHERE status = 'pending'
		        ORDER BY created_at
		        FOR UPDATE SKIP LOCKED
		        LIMIT 1
		 )
		 RETURNING *`, workerID).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	if row.ID == "" {
		return nil, nil
	}

	return toDomainJob(row), nil
}

func (r *JobRepository) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	var row models.Job

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return toDomainJob(row), nil
}

func (r *JobRepository) UpdateMeta(ctx context.Context, jobID string, meta any) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal job meta: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", jobID).
		Updates(map[string]any{
			"meta":       datatypes.JSON(raw),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update job meta: %w", err)
	}
	return nil
}

func (r *JobRepository) UpdateProgress(ctx context.Context, jobID string, progress int, meta any) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal job meta: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", jobID).
		Updates(map[string]any{
			"progress":   progress,
			"meta":       datatypes.JSON(raw),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// Complete marks the terminal success state: progress forced to 100, error
// and lock fields cleared, finished_at stamped.
func (r *JobRepository) Complete(ctx context.Context, jobID string, meta any) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal job meta: %w", err)
	}

	now := time.Now()
	err = r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", jobID).
		Updates(map[string]any{
			"status":      string(domain.JobStatusCompleted),
			"progress":    100,
			"meta":        datatypes.JSON(raw),
			"error":       nil,
			"locked_by":   nil,
			"locked_at":   nil,
			"finished_at": now,
			"updated_at":  now,
		}).Error
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail records the error and releases the lock. finished_at stays unset so a
// resubmission can still run the job.
func (r *JobRepository) Fail(ctx context.Context, jobID string, reason string) error {
	err := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", jobID).
		Updates(map[string]any{
			"status":     string(domain.JobStatusFailed),
			"error":      reason,
			"locked_by":  nil,
			"locked_at":  nil,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// Resubmit returns a failed job to pending while its attempt budget lasts.
func (r *JobRepository) Resubmit(ctx context.Context, jobID string) error {
	result := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ? AND attempts < max_attempts", jobID, string(domain.JobStatusFailed)).
		Updates(map[string]any{
			"status":     string(domain.JobStatusPending),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("resubmit job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func toDomainJob(row models.Job) *domain.Job {
	return &domain.Job{
		ID:          row.ID,
		Type:        domain.JobType(row.JobType),
		Payload:     json.RawMessage(row.Payload),
		Status:      domain.JobStatus(row.Status),
		Progress:    row.Progress,
		Meta:        json.RawMessage(row.Meta),
		Error:       row.Error,
		LockedBy:    row.LockedBy,
		LockedAt:    row.LockedAt,
		Attempts:    row.Attempts,
		MaxAttempts: row.MaxAttempts,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		FinishedAt:  row.FinishedAt,
	}
}
