package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/medextract/internal/medextract/store"
	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
	"github.com/kart-io/medextract/pkg/utils/validator"
)

// JobAcceptedMessage is returned with every accepted submission.
const JobAcceptedMessage = "Document processing started. You will receive a callback when complete."

const webhookFailedMessage = "Webhook callback failed"

// TenantLookup resolves a tenant from its API key.
type TenantLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Tenant, error)
}

// TaskSubmitter runs tasks in the background.
type TaskSubmitter interface {
	Submit(task func()) error
}

// JobRequest is a tenant submission.
type JobRequest struct {
	CallbackURL string `validate:"required,callbackurl"`
	File        Upload `validate:"-"`
}

// JobAccepted is the 202 response body of an accepted submission.
type JobAccepted struct {
	JobID         string          `json:"job_id"`
	Status        model.JobStatus `json:"status"`
	Message       string          `json:"message"`
	CallbackURL   string          `json:"callback_url"`
	QueuePosition int             `json:"queue_position"`
	QueueLimit    int             `json:"queue_limit"`
}

// QueueLimitError reports a tenant at its concurrent job ceiling.
type QueueLimitError struct {
	Tier    model.Tier
	Limit   int
	Current int64
}

func (e *QueueLimitError) Error() string {
	return fmt.Sprintf("Your %s tier allows %d concurrent jobs. Currently processing: %d. Please wait for existing jobs to complete.",
		e.Tier, e.Limit, e.Current)
}

// Unwrap lets errors.Is match errno.ErrQueueLimitReached.
func (e *QueueLimitError) Unwrap() error {
	return errno.ErrQueueLimitReached
}

// Errno returns the response errno carrying the tier message.
func (e *QueueLimitError) Errno() *errno.Errno {
	return errno.ErrQueueLimitReached.WithMessage(e.Error())
}

// Details returns the 429 response data.
func (e *QueueLimitError) Details() map[string]any {
	return map[string]any{
		"queue_limit":        e.Limit,
		"current_queue_size": e.Current,
		"tier":               e.Tier,
	}
}

// JobService admits tenant submissions and runs them on a worker pool.
type JobService struct {
	tenants   TenantLookup
	jobs      store.JobStore
	documents *DocumentService
	notifier  Notifier
	workers   TaskSubmitter
	now       func() time.Time
}

// NewJobService 创建租户任务服务。
func NewJobService(tenants TenantLookup, jobs store.JobStore, documents *DocumentService, notifier Notifier, workers TaskSubmitter) *JobService {
	return &JobService{
		tenants:   tenants,
		jobs:      jobs,
		documents: documents,
		notifier:  notifier,
		workers:   workers,
		now:       time.Now,
	}
}

// Authenticate resolves an active tenant from an API key.
func (s *JobService) Authenticate(ctx context.Context, apiKey string) (*model.Tenant, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errno.ErrMissingAPIKey
	}
	tenant, err := s.tenants.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, errno.ErrTenantNotFound) {
			return nil, errno.ErrInvalidAPIKey
		}
		return nil, err
	}
	if !tenant.IsActive {
		return nil, errno.ErrTenantInactive
	}
	return tenant, nil
}

// Submit admits a job for tenant and hands it to the worker pool. The active
// count and the insert are not atomic, so concurrent submissions may briefly
// exceed the tier limit.
func (s *JobService) Submit(ctx context.Context, tenant *model.Tenant, req *JobRequest) (*JobAccepted, error) {
	if req.CallbackURL = strings.TrimSpace(req.CallbackURL); req.CallbackURL == "" {
		req.CallbackURL = strings.TrimSpace(tenant.WebhookURL)
	}
	if req.CallbackURL == "" {
		return nil, errno.ErrNoCallbackURL
	}
	if err := validator.Global().Validate(req); err != nil {
		return nil, err
	}
	if len(req.File.Data) == 0 {
		return nil, errno.ErrNoFileProvided
	}
	switch req.File.MIMEType {
	case MIMETypePDF, MIMETypePNG, MIMETypeJPEG:
	default:
		return nil, errno.ErrUnsupportedFileType
	}

	tier := tenant.Tier.Normalize()
	limit := tier.QueueLimit()
	active, err := s.jobs.CountActive(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if active >= int64(limit) {
		logger.Warnw("tenant queue limit reached", "tenant_id", tenant.ID, "tier", tier, "limit", limit, "active", active)
		return nil, &QueueLimitError{Tier: tier, Limit: limit, Current: active}
	}

	job := &model.ProcessingJob{
		TenantID:    tenant.ID,
		Status:      model.JobPending,
		CallbackURL: req.CallbackURL,
		FileName:    req.File.Name,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	position, err := s.jobs.QueuePosition(ctx, job)
	if err != nil {
		logger.Warnw("failed to compute queue position", "job_id", job.ID, "error", err.Error())
	}

	file := req.File
	if err := s.workers.Submit(func() { s.Execute(context.Background(), job, file) }); err != nil {
		logger.Errorw("failed to enqueue job", "job_id", job.ID, "error", err.Error())
		if markErr := s.jobs.MarkFailed(ctx, job.ID, "Job queue is unavailable"); markErr != nil {
			logger.Errorw("failed to mark job failed", "job_id", job.ID, "error", markErr.Error())
		}
		return nil, errno.ErrQueueUnavailable.WithCause(err)
	}

	logger.Infow("job accepted", "job_id", job.ID, "tenant_id", tenant.ID, "tier", tier, "queue_position", position)
	return &JobAccepted{
		JobID:         job.ID,
		Status:        model.JobPending,
		Message:       JobAcceptedMessage,
		CallbackURL:   job.CallbackURL,
		QueuePosition: position,
		QueueLimit:    limit,
	}, nil
}

// Execute processes an admitted job to a terminal state and delivers the
// webhook. A panic before the terminal status is written fails the job; a
// later panic is only logged so the job keeps its status and single webhook.
func (s *JobService) Execute(ctx context.Context, job *model.ProcessingJob, file Upload) {
	terminal := false
	fail := func(err error) {
		terminal = true
		s.fail(ctx, job, err)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("job panicked", "job_id", job.ID, "panic", r, "terminal", terminal)
			if !terminal {
				fail(fmt.Errorf("panic: %v", r))
			}
		}
	}()

	if err := s.jobs.MarkProcessing(ctx, job.ID); err != nil {
		fail(err)
		return
	}
	logger.Infow("processing job", "job_id", job.ID, "tenant_id", job.TenantID, "file_name", file.Name)

	pages := []Upload{file}
	if file.MIMEType == MIMETypePDF {
		split, err := SplitPDF(file.Name, file.Data)
		if err != nil {
			fail(err)
			return
		}
		pages = split
	}

	tenantID := job.TenantID
	doc, err := s.documents.Process(ctx, &tenantID, file.Name, pages)
	if err != nil {
		fail(err)
		return
	}

	completedAt := s.now()
	if err := s.jobs.MarkCompleted(ctx, job.ID, doc.ID, completedAt); err != nil {
		fail(err)
		return
	}
	terminal = true

	payload := newWebhookPayload(job.ID, doc.ID, model.JobCompleted, completedAt, map[string]any{
		"document_id":      doc.ID,
		"confidence_score": doc.ConfidenceScore,
		"pages_processed":  len(pages),
	})
	s.deliver(ctx, job, payload)
}

func (s *JobService) fail(ctx context.Context, job *model.ProcessingJob, cause error) {
	message := failureMessage(cause)
	logger.Errorw("job failed", "job_id", job.ID, "error", cause.Error())
	if err := s.jobs.MarkFailed(ctx, job.ID, message); err != nil {
		logger.Errorw("failed to mark job failed", "job_id", job.ID, "error", err.Error())
	}
	payload := newWebhookPayload(job.ID, "", model.JobFailed, s.now(), map[string]any{"error": message})
	s.deliver(ctx, job, payload)
}

// deliver sends one webhook and records the attempt. A failed delivery is
// noted in error_message; the job status is left unchanged.
func (s *JobService) deliver(ctx context.Context, job *model.ProcessingJob, payload *WebhookPayload) {
	err := s.notifier.Notify(ctx, job.CallbackURL, payload)
	errMessage := ""
	if err != nil {
		logger.Warnw("webhook delivery failed", "job_id", job.ID, "url", job.CallbackURL, "error", err.Error())
		if payload.Status == model.JobCompleted {
			errMessage = webhookFailedMessage
		}
	} else {
		logger.Infow("webhook delivered", "job_id", job.ID, "status", payload.Status)
	}
	if recErr := s.jobs.RecordCallback(ctx, job.ID, s.now(), err == nil, errMessage); recErr != nil {
		logger.Errorw("failed to record callback", "job_id", job.ID, "error", recErr.Error())
	}
}

// Status returns the polling view of a tenant's job.
func (s *JobService) Status(ctx context.Context, tenantID, jobID string) (*model.JobStatusView, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errno.ErrMissingJobID
	}
	job, err := s.jobs.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	view := &model.JobStatusView{
		JobID:            job.ID,
		Status:           job.Status,
		DocumentID:       job.DocumentID,
		ErrorMessage:     job.ErrorMessage,
		CreatedAt:        job.CreatedAt,
		CompletedAt:      job.CompletedAt,
		CallbackAttempts: job.CallbackAttempts,
	}
	if job.Status == model.JobPending {
		position, err := s.jobs.QueuePosition(ctx, job)
		if err != nil {
			return nil, err
		}
		view.QueuePosition = position
	}
	return view, nil
}

// failureMessage is the error text stored on a failed job and sent to the
// tenant. Errnos contribute their public message.
func failureMessage(err error) string {
	var en *errno.Errno
	if errors.As(err, &en) {
		return en.Message("en")
	}
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}
