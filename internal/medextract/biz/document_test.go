package biz

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

func TestParseImages(t *testing.T) {
	blobs := &fakeBlobStore{}
	svc, _ := newTestDocumentService(t, staticProvider(samplePageJSON, nil), blobs)
	svc.now = func() time.Time { return time.UnixMilli(1000) }

	res, err := svc.ParseImages(context.Background(), "Lab Report.pdf", []Upload{pngUpload("p1.png"), pngUpload("p2.png")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.PagesProcessed)
	assert.Equal(t, []string{
		"https://blobs.example.com/documents/1000-p1.png",
		"https://blobs.example.com/documents/1000-p2.png",
	}, res.ImageURLs)
	assert.Equal(t, 100, res.ConfidenceScore)

	detail, err := svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lab Report.pdf", detail.FileName)
	assert.Equal(t, res.ImageURLs[0], detail.FileURL)
	assert.Equal(t, []int{100, 100}, detail.PageScores)
	assert.Nil(t, detail.HealthRecommendations)
	assert.Equal(t, "Discharge Summary", detail.DocumentType)
}

func TestParseImagesRejects(t *testing.T) {
	svc, _ := newTestDocumentService(t, staticProvider(samplePageJSON, nil), &fakeBlobStore{})

	_, err := svc.ParseImages(context.Background(), "", nil)
	assert.ErrorIs(t, err, errno.ErrNoFileProvided)

	pdf := Upload{Name: "a.pdf", MIMEType: MIMETypePDF, Data: []byte("%PDF-1.4")}
	_, err = svc.ParseImages(context.Background(), "", []Upload{pngUpload("a.png"), pdf})
	require.ErrorIs(t, err, errno.ErrUnsupportedFileType)
	assert.Equal(t, "Only PNG, JPG, and JPEG images are supported", errno.FromError(err).Message("en"))
}

func TestParseImagesUploadFailure(t *testing.T) {
	provider := staticProvider(samplePageJSON, nil)
	svc, _ := newTestDocumentService(t, provider, &fakeBlobStore{fail: true})

	_, err := svc.ParseImages(context.Background(), "", []Upload{pngUpload("a.png")})
	assert.ErrorIs(t, err, errno.ErrStorageUpload)
	assert.Zero(t, provider.callCount())
}

func TestDocumentReads(t *testing.T) {
	svc, f := newTestDocumentService(t, staticProvider(samplePageJSON, nil), &fakeBlobStore{})
	ctx := context.Background()

	_, err := svc.Get(ctx, " ")
	assert.ErrorIs(t, err, errno.ErrMissingDocumentID)
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, errno.ErrDocumentNotFound)

	tenantID := "tenant-a"
	doc, err := svc.Process(ctx, &tenantID, "", []Upload{pngUpload("scan.png")})
	require.NoError(t, err)
	assert.Equal(t, "scan.png", doc.FileName)

	view, err := svc.GetForTenant(ctx, tenantID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", view.PatientName)
	_, err = svc.GetForTenant(ctx, "tenant-b", doc.ID)
	assert.ErrorIs(t, err, errno.ErrDocumentNotFound)

	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, doc.ID, recent[0].ID)

	found, err := svc.Search(ctx, "JANE")
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := f.Documents().ListRecent(ctx, MaxRecentLimit)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestExportWorkbook(t *testing.T) {
	svc, _ := newTestDocumentService(t, staticProvider(samplePageJSON, nil), &fakeBlobStore{})
	ctx := context.Background()

	doc, err := svc.Process(ctx, nil, "discharge summary.png", []Upload{pngUpload("scan.png")})
	require.NoError(t, err)

	out, err := svc.Export(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "discharge_summary.xlsx", out.FileName)

	wb, err := excelize.OpenReader(bytes.NewReader(out.Data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Equal(t, []string{SheetFields, SheetLabResults, SheetMedications}, wb.GetSheetList())

	label, err := wb.GetCellValue(SheetFields, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Patient Name", label)
	value, err := wb.GetCellValue(SheetFields, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", value)

	test, err := wb.GetCellValue(SheetLabResults, "A2")
	require.NoError(t, err)
	assert.Equal(t, "HbA1c", test)
	med, err := wb.GetCellValue(SheetMedications, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Metformin", med)

	_, err = svc.Export(ctx, "missing")
	assert.ErrorIs(t, err, errno.ErrDocumentNotFound)
}
