package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/pkg/utils/id"
)

// Default display values for a merged document.
const (
	DefaultPatientName  = "Unknown"
	DefaultDocumentType = "Medical Document"
)

// Document is a processed medical document.
type Document struct {
	ID                    string                             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID              *string                            `json:"tenant_id,omitempty" gorm:"type:varchar(36);index:idx_documents_tenant"`
	UserName              string                             `json:"user_name" gorm:"size:255;comment:患者姓名"`
	FileName              string                             `json:"file_name" gorm:"size:512;not null"`
	FileSize              int64                              `json:"file_size" gorm:"default:0"`
	FileURL               string                             `json:"file_url" gorm:"size:1024"`
	ImageURLs             JSONColumn[[]string]               `json:"image_urls"`
	DocumentType          string                             `json:"document_type" gorm:"size:255;index:idx_documents_type"`
	ParsedFields          JSONColumn[[]Field]                `json:"parsed_fields"`
	StructuredData        JSONColumn[*MergedDocument]        `json:"structured_data"`
	ConfidenceScore       int                                `json:"confidence_score" gorm:"default:0"`
	PageScores            JSONColumn[[]int]                  `json:"page_scores"`
	HealthRecommendations JSONColumn[*HealthRecommendations] `json:"health_recommendations"`
	SearchText            string                             `json:"-" gorm:"type:text"`
	CreatedAt             time.Time                          `json:"created_at" gorm:"autoCreateTime;index:idx_documents_created"`
	UpdatedAt             time.Time                          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (*Document) TableName() string {
	return "documents"
}

// BeforeCreate assigns an ID when none is set.
func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = id.NewUUID()
	}
	return nil
}

// DocumentSummary is the list/search projection of a document.
type DocumentSummary struct {
	ID             string                      `json:"id"`
	FileName       string                      `json:"file_name"`
	CreatedAt      time.Time                   `json:"created_at"`
	StructuredData JSONColumn[*MergedDocument] `json:"structured_data"`
}
