package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kart-io/medextract/internal/model"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

func newTestFactory(t *testing.T) Factory {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	f := NewFactory(db)
	require.NoError(t, f.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func seedTenant(t *testing.T, f Factory, key string, tier model.Tier) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: "Clinic " + key, APIKey: key, IsActive: true, Tier: tier}
	require.NoError(t, f.Tenants().Create(context.Background(), tenant))
	return tenant
}

func TestTenantByAPIKey(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	seeded := seedTenant(t, f, "key-1", model.TierPro)

	got, err := f.Tenants().GetByAPIKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, model.TierPro, got.Tier)

	_, err = f.Tenants().GetByAPIKey(ctx, "missing")
	assert.True(t, errno.IsCode(err, errno.ErrTenantNotFound.Code))
}

func TestDocumentCreateAndGet(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	tenant := seedTenant(t, f, "key-doc", model.TierFree)

	merged := &model.MergedDocument{Summary: "Page 1: discharge"}
	doc := &model.Document{
		TenantID:        &tenant.ID,
		UserName:        "Jane Doe",
		FileName:        "discharge.pdf",
		FileSize:        1024,
		ImageURLs:       model.NewJSONColumn([]string{"https://blob/1.png"}),
		DocumentType:    "Discharge Summary",
		ParsedFields:    model.NewJSONColumn([]model.Field{{Label: "Patient Name", Value: "Jane Doe"}}),
		StructuredData:  model.NewJSONColumn(merged),
		ConfidenceScore: 85,
		PageScores:      model.NewJSONColumn([]int{85}),
	}
	require.NoError(t, f.Documents().Create(ctx, doc))
	require.NotEmpty(t, doc.ID)

	got, err := f.Documents().Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.UserName)
	assert.Equal(t, []string{"https://blob/1.png"}, got.ImageURLs.Data)
	require.NotNil(t, got.StructuredData.Data)
	assert.Equal(t, "Page 1: discharge", got.StructuredData.Data.Summary)
	assert.Nil(t, got.HealthRecommendations.Data)

	_, err = f.Documents().GetForTenant(ctx, tenant.ID, doc.ID)
	require.NoError(t, err)

	_, err = f.Documents().GetForTenant(ctx, "other-tenant", doc.ID)
	assert.True(t, errno.IsCode(err, errno.ErrDocumentNotFound.Code))
	assert.Equal(t, "Document not found or access denied", errno.FromError(err).MessageEN)
}

func TestDocumentListAndSearch(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"Alice Smith", "Bob Jones", "Carol Smith"} {
		doc := &model.Document{
			UserName:     name,
			FileName:     fmt.Sprintf("scan-%d.png", i),
			DocumentType: "Lab Report",
			SearchText:   "hemoglobin " + name,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.Documents().Create(ctx, doc))
	}

	recent, err := f.Documents().ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "scan-2.png", recent[0].FileName)
	assert.Equal(t, "scan-1.png", recent[1].FileName)

	found, err := f.Documents().Search(ctx, "SMITH", 50)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Carol Smith", found[0].UserName)

	found, err = f.Documents().Search(ctx, "  ", 50)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestJobLifecycle(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	tenant := seedTenant(t, f, "key-jobs", model.TierFree)

	first := &model.ProcessingJob{TenantID: tenant.ID, Status: model.JobPending, CallbackURL: "http://cb", CreatedAt: time.Now().Add(-time.Minute)}
	second := &model.ProcessingJob{TenantID: tenant.ID, Status: model.JobPending, CallbackURL: "http://cb", CreatedAt: time.Now()}
	require.NoError(t, f.Jobs().Create(ctx, first))
	require.NoError(t, f.Jobs().Create(ctx, second))

	active, err := f.Jobs().CountActive(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, active)

	pos, err := f.Jobs().QueuePosition(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.NoError(t, f.Jobs().MarkProcessing(ctx, first.ID))
	pos, err = f.Jobs().QueuePosition(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	now := time.Now()
	require.NoError(t, f.Jobs().MarkCompleted(ctx, first.ID, "doc-1", now))
	require.NoError(t, f.Jobs().RecordCallback(ctx, first.ID, now, false, "Webhook callback failed"))

	got, err := f.Jobs().Get(ctx, tenant.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	require.NotNil(t, got.DocumentID)
	assert.Equal(t, "doc-1", *got.DocumentID)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "Webhook callback failed", *got.ErrorMessage)
	assert.Equal(t, 1, got.CallbackAttempts)
	require.NotNil(t, got.CallbackSucceeded)
	assert.False(t, *got.CallbackSucceeded)
	assert.NotNil(t, got.CompletedAt)

	active, err = f.Jobs().CountActive(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)

	require.NoError(t, f.Jobs().MarkFailed(ctx, second.ID, "boom"))
	active, err = f.Jobs().CountActive(ctx, tenant.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, active)
}

func TestJobNotFound(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	_, err := f.Jobs().Get(ctx, "t", "missing")
	assert.True(t, errno.IsCode(err, errno.ErrJobNotFound.Code))

	err = f.Jobs().MarkProcessing(ctx, "missing")
	assert.True(t, errno.IsCode(err, errno.ErrJobNotFound.Code))
}
