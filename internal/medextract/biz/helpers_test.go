package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/medextract/internal/medextract/store"
	"github.com/kart-io/medextract/pkg/llm"
)

const samplePageJSON = `{
  "patientInfo": {"fullName": "Jane Doe", "age": "45 years"},
  "documentInfo": {"type": "Discharge Summary"},
  "providerInfo": {"hospitalName": "City Hospital", "doctorName": "Dr. Rao"},
  "clinicalData": {
    "diagnosis": "Type 2 Diabetes",
    "medications": [{"name": "Metformin", "dosage": "500mg", "frequency": "BD"}],
    "labResults": [{"test": "HbA1c", "measuredValue": "8.1", "unit": "%", "referenceRange": "4.0-5.6", "status": "High"}]
  },
  "documentSummary": "Discharge after glycaemic control.",
  "extractionMetadata": {"confidenceScore": 88}
}`

type fakeProvider struct {
	mu      sync.Mutex
	respond func(req *llm.GenerateRequest) (string, error)
	calls   []*llm.GenerateRequest
}

func (p *fakeProvider) GenerateContent(_ context.Context, req *llm.GenerateRequest) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()
	return p.respond(req)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func staticProvider(raw string, err error) *fakeProvider {
	return &fakeProvider{respond: func(*llm.GenerateRequest) (string, error) { return raw, err }}
}

// isExtraction reports whether req carries a page image.
func isExtraction(req *llm.GenerateRequest) bool {
	for _, part := range req.Parts {
		if len(part.Data) > 0 {
			return true
		}
	}
	return false
}

type fakeBlobStore struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (b *fakeBlobStore) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	if b.fail {
		return "", fmt.Errorf("bucket unavailable")
	}
	b.mu.Lock()
	b.keys = append(b.keys, key)
	b.mu.Unlock()
	return "https://blobs.example.com/" + key, nil
}

func newTestFactory(t *testing.T) store.Factory {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	f := store.NewFactory(db)
	require.NoError(t, f.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func newTestDocumentService(t *testing.T, provider llm.VisionProvider, blobs BlobStore) (*DocumentService, store.Factory) {
	t.Helper()
	f := newTestFactory(t)
	pipeline := NewPipeline(NewExtractor(provider, ExtractorConfig{}), nil, f.Documents(), PipelineConfig{})
	return NewDocumentService(pipeline, blobs, f.Documents()), f
}

func pngUpload(name string) Upload {
	return Upload{Name: name, MIMEType: MIMETypePNG, Data: []byte("\x89PNG\r\n\x1a\n" + name)}
}
