package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

var searchColumns = []string{"user_name", "file_name", "document_type", "search_text"}

type documents struct {
	db *gorm.DB
}

func newDocuments(db *gorm.DB) *documents {
	return &documents{db}
}

// Create inserts a document.
func (d *documents) Create(ctx context.Context, doc *model.Document) error {
	return wrap(d.db.WithContext(ctx).Create(doc).Error, nil)
}

// Get retrieves a document by ID.
func (d *documents) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, wrap(err, errno.ErrDocumentNotFound)
	}
	return &doc, nil
}

// GetForTenant retrieves a document owned by tenantID.
func (d *documents) GetForTenant(ctx context.Context, tenantID, id string) (*model.Document, error) {
	var doc model.Document
	err := d.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&doc).Error
	if err != nil {
		return nil, wrap(err, errno.ErrDocumentNotFound.WithMessage("Document not found or access denied"))
	}
	return &doc, nil
}

// ListRecent returns the newest documents.
func (d *documents) ListRecent(ctx context.Context, limit int) ([]*model.DocumentSummary, error) {
	var docs []*model.DocumentSummary
	err := d.db.WithContext(ctx).
		Model(&model.Document{}).
		Select("id", "file_name", "created_at", "structured_data").
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, wrap(err, nil)
	}
	return docs, nil
}

// Search matches query case-insensitively against patient, file name,
// document type and the indexed search text, newest first.
func (d *documents) Search(ctx context.Context, query string, limit int) ([]*model.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Document{}, nil
	}

	op, pattern := "LIKE", "%"+strings.ToLower(query)+"%"
	if d.db.Dialector.Name() == "postgres" {
		op = "ILIKE"
	}

	conds := make([]string, 0, len(searchColumns))
	args := make([]any, 0, len(searchColumns))
	for _, col := range searchColumns {
		if op == "ILIKE" {
			conds = append(conds, col+" ILIKE ?")
		} else {
			conds = append(conds, "LOWER("+col+") LIKE ?")
		}
		args = append(args, pattern)
	}

	docs := []*model.Document{}
	err := d.db.WithContext(ctx).
		Where(strings.Join(conds, " OR "), args...).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, wrap(err, nil)
	}
	return docs, nil
}
