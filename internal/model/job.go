package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/pkg/utils/id"
)

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ActiveJobStatuses are the states counted against a tenant's queue limit.
var ActiveJobStatuses = []JobStatus{JobPending, JobProcessing}

// IsTerminal reports whether s is completed or failed.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ProcessingJob tracks one asynchronous tenant submission.
type ProcessingJob struct {
	ID                  string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID            string     `json:"tenant_id" gorm:"type:varchar(36);not null;index:idx_jobs_tenant_status,priority:1"`
	Status              JobStatus  `json:"status" gorm:"size:32;not null;default:pending;index:idx_jobs_tenant_status,priority:2"`
	CallbackURL         string     `json:"callback_url" gorm:"size:1024;not null"`
	FileName            string     `json:"file_name" gorm:"size:512"`
	DocumentID          *string    `json:"document_id" gorm:"type:varchar(36)"`
	ErrorMessage        *string    `json:"error_message" gorm:"type:text"`
	CallbackAttempts    int        `json:"callback_attempts" gorm:"not null;default:0"`
	CallbackLastAttempt *time.Time `json:"callback_last_attempt"`
	CallbackSucceeded   *bool      `json:"callback_succeeded"`
	CreatedAt           time.Time  `json:"created_at" gorm:"autoCreateTime;index:idx_jobs_tenant_status,priority:3"`
	UpdatedAt           time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt         *time.Time `json:"completed_at"`
}

// TableName returns the table name for GORM.
func (*ProcessingJob) TableName() string {
	return "processing_jobs"
}

// BeforeCreate assigns an ID when none is set.
func (j *ProcessingJob) BeforeCreate(_ *gorm.DB) error {
	if j.ID == "" {
		j.ID = id.NewUUID()
	}
	return nil
}

// JobStatusView is the polling projection of a job.
type JobStatusView struct {
	JobID            string     `json:"job_id"`
	Status           JobStatus  `json:"status"`
	DocumentID       *string    `json:"document_id"`
	ErrorMessage     *string    `json:"error_message"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	CallbackAttempts int        `json:"callback_attempts"`
	// QueuePosition is 0 once the job has left pending.
	QueuePosition int `json:"queue_position"`
}
