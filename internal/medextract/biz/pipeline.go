package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/medextract/internal/medextract/store"
	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// DefaultPipelineTimeout bounds one document's end-to-end processing.
const DefaultPipelineTimeout = 5 * time.Minute

var tracer = otel.Tracer("github.com/kart-io/medextract/internal/medextract/biz")

// PipelineConfig 流水线配置。
type PipelineConfig struct {
	Timeout time.Duration
}

// Pipeline extracts, scores, merges and persists one multi-page document.
type Pipeline struct {
	extractor   *Extractor
	recommender *Recommender
	documents   store.DocumentStore
	timeout     time.Duration
}

// NewPipeline 创建处理流水线。recommender 为 nil 时跳过健康建议生成。
func NewPipeline(extractor *Extractor, recommender *Recommender, documents store.DocumentStore, config PipelineConfig) *Pipeline {
	if config.Timeout <= 0 {
		config.Timeout = DefaultPipelineTimeout
	}
	return &Pipeline{
		extractor:   extractor,
		recommender: recommender,
		documents:   documents,
		timeout:     config.Timeout,
	}
}

// Submission is a document ready for extraction. Pages and ImageURLs are in
// page order.
type Submission struct {
	FileName  string
	TenantID  *string
	Pages     []Page
	ImageURLs []string
	// FileSize is the submitted byte size; when zero the page sizes are summed.
	FileSize int64
}

// Run processes s and persists the resulting document. Page calls are not
// cancelled mid-flight; the deadline is checked between pages and before
// the document is stored.
func (p *Pipeline) Run(ctx context.Context, s *Submission) (*model.Document, error) {
	if len(s.Pages) == 0 {
		return nil, errno.ErrNoFileProvided
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("file_name", s.FileName),
		attribute.Int("pages", len(s.Pages)),
	))
	defer span.End()

	start := time.Now()
	pages := make([]model.PageExtraction, 0, len(s.Pages))
	scores := make([]int, 0, len(s.Pages))
	fileSize := s.FileSize
	for _, page := range s.Pages {
		if err := checkDeadline(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		extracted, ok := p.extractor.ExtractPage(context.WithoutCancel(ctx), page)
		pages = append(pages, extracted)
		scores = append(scores, ScorePage(extracted, ok))
		if s.FileSize == 0 {
			fileSize += int64(len(page.Data))
		}
	}

	merged := Merge(pages)
	var recs *model.HealthRecommendations
	if p.recommender != nil {
		if err := checkDeadline(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		recs = p.recommender.Generate(context.WithoutCancel(ctx), merged)
	}

	if err := checkDeadline(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc := &model.Document{
		TenantID:              s.TenantID,
		UserName:              PatientName(merged),
		FileName:              s.FileName,
		FileSize:              fileSize,
		ImageURLs:             model.NewJSONColumn(append([]string{}, s.ImageURLs...)),
		DocumentType:          DocumentType(merged),
		ParsedFields:          model.NewJSONColumn(ProjectFields(merged)),
		StructuredData:        model.NewJSONColumn(merged),
		ConfidenceScore:       ScoreDocument(scores),
		PageScores:            model.NewJSONColumn(scores),
		HealthRecommendations: model.NewJSONColumn(recs),
		SearchText:            SearchText(merged),
	}
	if len(s.ImageURLs) > 0 {
		doc.FileURL = s.ImageURLs[0]
	}
	if err := p.documents.Create(ctx, doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist document")
		return nil, err
	}

	span.SetAttributes(attribute.String("document_id", doc.ID), attribute.Int("confidence_score", doc.ConfidenceScore))
	logger.Infow("document processed",
		"document_id", doc.ID,
		"file_name", s.FileName,
		"pages", len(pages),
		"confidence_score", doc.ConfidenceScore,
		"duration", time.Since(start).String(),
	)
	return doc, nil
}

func checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errno.ErrPipelineTimeout.WithCause(err)
	}
	return nil
}
