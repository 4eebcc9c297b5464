package biz

import (
	"context"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/medextract/internal/medextract/store"
	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// Listing bounds.
const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 100
	MaxSearchResults   = 50
)

var errImagesOnly = errno.ErrUnsupportedFileType.WithMessage("Only PNG, JPG, and JPEG images are supported")

// ParseResult is the synchronous parse response.
type ParseResult struct {
	ID              string   `json:"id"`
	PagesProcessed  int      `json:"pagesProcessed"`
	ImageURLs       []string `json:"imageUrls"`
	ConfidenceScore int      `json:"confidenceScore"`
}

// DocumentDetail is the first-party read projection of a stored document.
type DocumentDetail struct {
	ID                    string                       `json:"id"`
	FileName              string                       `json:"fileName"`
	FileSize              int64                        `json:"fileSize"`
	FileURL               string                       `json:"fileUrl"`
	UploadedAt            time.Time                    `json:"uploadedAt"`
	DocumentType          string                       `json:"documentType"`
	Fields                []model.Field                `json:"fields"`
	StructuredData        *model.MergedDocument        `json:"structuredData"`
	ConfidenceScore       int                          `json:"confidenceScore"`
	PageScores            []int                        `json:"pageScores"`
	HealthRecommendations *model.HealthRecommendations `json:"healthRecommendations"`
}

// TenantDocument is the tenant-scoped read projection of a stored document.
type TenantDocument struct {
	ID              string                `json:"id"`
	PatientName     string                `json:"patient_name"`
	FileName        string                `json:"file_name"`
	DocumentType    string                `json:"document_type"`
	ConfidenceScore int                   `json:"confidence_score"`
	CreatedAt       time.Time             `json:"created_at"`
	Fields          []model.Field         `json:"fields"`
	StructuredData  *model.MergedDocument `json:"structured_data"`
}

// DocumentService runs uploads through the pipeline and reads stored documents.
type DocumentService struct {
	pipeline  *Pipeline
	blobs     BlobStore
	documents store.DocumentStore
	now       func() time.Time
}

// NewDocumentService 创建文档服务。
func NewDocumentService(pipeline *Pipeline, blobs BlobStore, documents store.DocumentStore) *DocumentService {
	return &DocumentService{
		pipeline:  pipeline,
		blobs:     blobs,
		documents: documents,
		now:       time.Now,
	}
}

// ParseImages synchronously processes page images uploaded by a first-party
// user. Only PNG and JPEG pages are accepted.
func (s *DocumentService) ParseImages(ctx context.Context, originalName string, files []Upload) (*ParseResult, error) {
	if len(files) == 0 {
		return nil, errno.ErrNoFileProvided
	}
	for _, f := range files {
		if f.MIMEType != MIMETypePNG && f.MIMEType != MIMETypeJPEG {
			return nil, errImagesOnly
		}
	}

	doc, err := s.Process(ctx, nil, originalName, files)
	if err != nil {
		return nil, err
	}
	return &ParseResult{
		ID:              doc.ID,
		PagesProcessed:  len(files),
		ImageURLs:       doc.ImageURLs.Data,
		ConfidenceScore: doc.ConfidenceScore,
	}, nil
}

// Process uploads every page to blob storage and runs the pipeline. fileName
// defaults to the first page's name.
func (s *DocumentService) Process(ctx context.Context, tenantID *string, fileName string, files []Upload) (*model.Document, error) {
	if len(files) == 0 {
		return nil, errno.ErrNoFileProvided
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = files[0].Name
	}

	urls, err := uploadAll(ctx, s.blobs, files, s.now())
	if err != nil {
		logger.Errorw("page upload failed", "file_name", fileName, "error", err.Error())
		return nil, errno.ErrStorageUpload.WithCause(err)
	}

	var size int64
	pages := make([]Page, len(files))
	for i, f := range files {
		pages[i] = Page{Index: i, Total: len(files), Name: f.Name, MIMEType: f.MIMEType, Data: f.Data}
		size += f.Size()
	}
	return s.pipeline.Run(ctx, &Submission{
		FileName:  fileName,
		TenantID:  tenantID,
		Pages:     pages,
		ImageURLs: urls,
		FileSize:  size,
	})
}

// Get returns the detail view of a document.
func (s *DocumentService) Get(ctx context.Context, id string) (*DocumentDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errno.ErrMissingDocumentID
	}
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		ID:                    doc.ID,
		FileName:              doc.FileName,
		FileSize:              doc.FileSize,
		FileURL:               doc.FileURL,
		UploadedAt:            doc.CreatedAt,
		DocumentType:          doc.DocumentType,
		Fields:                doc.ParsedFields.Data,
		StructuredData:        doc.StructuredData.Data,
		ConfidenceScore:       doc.ConfidenceScore,
		PageScores:            doc.PageScores.Data,
		HealthRecommendations: doc.HealthRecommendations.Data,
	}, nil
}

// GetForTenant returns a document owned by tenantID.
func (s *DocumentService) GetForTenant(ctx context.Context, tenantID, id string) (*TenantDocument, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errno.ErrMissingDocumentID.WithMessage("Missing document id parameter")
	}
	doc, err := s.documents.GetForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &TenantDocument{
		ID:              doc.ID,
		PatientName:     doc.UserName,
		FileName:        doc.FileName,
		DocumentType:    doc.DocumentType,
		ConfidenceScore: doc.ConfidenceScore,
		CreatedAt:       doc.CreatedAt,
		Fields:          doc.ParsedFields.Data,
		StructuredData:  doc.StructuredData.Data,
	}, nil
}

// Recent lists the newest documents. limit defaults to 5 and is capped at 100.
func (s *DocumentService) Recent(ctx context.Context, limit int) ([]*model.DocumentSummary, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)
	return s.documents.ListRecent(ctx, limit)
}

// Search matches query against patient name, file name, document type and
// the search text, newest first.
func (s *DocumentService) Search(ctx context.Context, query string) ([]*model.Document, error) {
	return s.documents.Search(ctx, strings.TrimSpace(query), MaxSearchResults)
}
