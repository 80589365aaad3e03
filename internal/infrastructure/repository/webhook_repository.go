package repository

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/webhook"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) ListEnabledByEvent(ctx context.Context, event string) ([]domain.Subscription, error) {
	var rows []models.Webhook
	err := r.db.WithContext(ctx).
		Where("event = ? AND enabled = ?", event, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list webhooks for %s: %w", event, err)
	}

	subs := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, domain.Subscription{
			ID:      row.ID,
			Name:    row.Name,
			URL:     row.URL,
			Event:   row.Event,
			Enabled: row.Enabled,
		})
	}
	return subs, nil
}

// RecordDelivery stores the attempt and mirrors its outcome onto the
// subscription's last_status / last_response.
func (r *WebhookRepository) RecordDelivery(ctx context.Context, log domain.DeliveryLog) error {
	payload, err := json.Marshal(log.Payload)
	if err != nil {
		return fmt.Errorf("encode delivery payload: %w", err)
	}

	row := models.WebhookDelivery{
		WebhookID:      log.SubscriptionID,
		EventType:      log.EventType,
		Payload:        datatypes.JSON(payload),
		StatusCode:     log.StatusCode,
		ResponseText:   nullableText(log.ResponseText),
		ResponseTimeMS: int(log.ResponseTime.Milliseconds()),
		Error:          nullableText(log.Error),
	}

	lastResponse := log.ResponseText
	if log.Error != "" {
		lastResponse = log.Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create webhook delivery: %w", err)
		}
		if err := tx.Model(&models.Webhook{}).
			Where("id = ?", log.SubscriptionID).
			Updates(map[string]any{
				"last_status":   log.StatusCode,
				"last_response": lastResponse,
			}).Error; err != nil {
			return fmt.Errorf("update webhook last status: %w", err)
		}
		return nil
	})
}
