package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/medextract/pkg/utils/id"
)

// Tier is a tenant subscription tier.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

var tierQueueLimits = map[Tier]int{
	TierFree:       2,
	TierBasic:      10,
	TierPro:        50,
	TierEnterprise: 1000,
}

// Normalize maps unknown tiers to free.
func (t Tier) Normalize() Tier {
	if _, ok := tierQueueLimits[t]; ok {
		return t
	}
	return TierFree
}

// QueueLimit returns the maximum number of concurrently active jobs for t.
func (t Tier) QueueLimit() int {
	return tierQueueLimits[t.Normalize()]
}

// Tenant is an API customer. The core never writes tenants.
type Tenant struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	APIKey     string    `json:"-" gorm:"size:128;not null;uniqueIndex:uk_tenants_api_key"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	WebhookURL string    `json:"webhook_url" gorm:"size:1024"`
	Tier       Tier      `json:"tier" gorm:"size:32;not null;default:free"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (*Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate assigns an ID when none is set.
func (t *Tenant) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = id.NewUUID()
	}
	return nil
}
