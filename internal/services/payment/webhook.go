package services

import (
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/lead-forge/internal/paymentprovider"
)

func parseWebhookEvent(body []byte) (*paymentprovider.WebhookEvent, error) {
	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("webhook event without type")
	}
	return &event, nil
}
