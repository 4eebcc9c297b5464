package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

type jobs struct {
	db *gorm.DB
}

func newJobs(db *gorm.DB) *jobs {
	return &jobs{db}
}

// Create inserts a job.
func (j *jobs) Create(ctx context.Context, job *model.ProcessingJob) error {
	return wrap(j.db.WithContext(ctx).Create(job).Error, nil)
}

// Get retrieves a job owned by tenantID.
func (j *jobs) Get(ctx context.Context, tenantID, id string) (*model.ProcessingJob, error) {
	var job model.ProcessingJob
	err := j.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&job).Error
	if err != nil {
		return nil, wrap(err, errno.ErrJobNotFound)
	}
	return &job, nil
}

// CountActive counts the tenant's pending and processing jobs.
func (j *jobs) CountActive(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := j.db.WithContext(ctx).
		Model(&model.ProcessingJob{}).
		Where("tenant_id = ? AND status IN ?", tenantID, model.ActiveJobStatuses).
		Count(&n).Error
	return n, wrap(err, nil)
}

// QueuePosition counts the tenant's pending jobs created strictly before job.
func (j *jobs) QueuePosition(ctx context.Context, job *model.ProcessingJob) (int, error) {
	var n int64
	err := j.db.WithContext(ctx).
		Model(&model.ProcessingJob{}).
		Where("tenant_id = ? AND status = ? AND created_at < ?", job.TenantID, model.JobPending, job.CreatedAt).
		Count(&n).Error
	return int(n), wrap(err, nil)
}

// MarkProcessing moves a job to processing.
func (j *jobs) MarkProcessing(ctx context.Context, id string) error {
	return j.update(ctx, id, map[string]any{"status": model.JobProcessing})
}

// MarkCompleted records the produced document and completion time.
func (j *jobs) MarkCompleted(ctx context.Context, id, documentID string, at time.Time) error {
	return j.update(ctx, id, map[string]any{
		"status":       model.JobCompleted,
		"document_id":  documentID,
		"completed_at": at,
	})
}

// MarkFailed records a terminal failure.
func (j *jobs) MarkFailed(ctx context.Context, id, message string) error {
	return j.update(ctx, id, map[string]any{
		"status":        model.JobFailed,
		"error_message": message,
	})
}

// RecordCallback records one webhook delivery attempt. A non-empty
// errMessage is stored without touching the status.
func (j *jobs) RecordCallback(ctx context.Context, id string, at time.Time, succeeded bool, errMessage string) error {
	fields := map[string]any{
		"callback_attempts":     gorm.Expr("callback_attempts + 1"),
		"callback_last_attempt": at,
		"callback_succeeded":    succeeded,
	}
	if errMessage != "" {
		fields["error_message"] = errMessage
	}
	return j.update(ctx, id, fields)
}

func (j *jobs) update(ctx context.Context, id string, fields map[string]any) error {
	res := j.db.WithContext(ctx).
		Model(&model.ProcessingJob{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return wrap(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return errno.ErrJobNotFound
	}
	return nil
}
