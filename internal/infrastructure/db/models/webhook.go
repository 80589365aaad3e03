package models

import (
	"time"

	"gorm.io/datatypes"
)

type Webhook struct {
	ID           int64             `gorm:"primaryKey"`
	Name         string            `gorm:"size:255;not null"`
	URL          string            `gorm:"column:url;size:2048;not null"`
	Event        string            `gorm:"size:100;not null"`
	Enabled      bool              `gorm:"not null"`
	LastStatus   *int              `gorm:"column:last_status"`
	LastResponse *string           `gorm:"type:text"`
	Deliveries   []WebhookDelivery `gorm:"foreignKey:WebhookID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Webhook) TableName() string {
	return "webhooks"
}

type WebhookDelivery struct {
	ID             int64          `gorm:"primaryKey"`
	WebhookID      int64          `gorm:"index;not null"`
	EventType      string         `gorm:"size:100;not null"`
	Payload        datatypes.JSON `gorm:"type:jsonb"`
	StatusCode     int            `gorm:"not null;default:0"`
	ResponseText   *string        `gorm:"type:text"`
	ResponseTimeMS int            `gorm:"column:response_time_ms;not null;default:0"`
	Error          *string        `gorm:"type:text"`
	CreatedAt      time.Time
}

func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
