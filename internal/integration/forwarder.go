package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/sitesync/sitesync-server/internal/config"
	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/internal/storage"
)

// ForwarderService delivers visit events to the webhook endpoints
// configured in each organization's notification settings
type ForwarderService struct {
	nc    *nats.Conn
	store storage.Store
	cfg   *config.WebhookConfig

	httpClient *http.Client
}

// NewForwarderService creates a webhook forwarder
func NewForwarderService(nc *nats.Conn, store storage.Store, cfg *config.WebhookConfig) *ForwarderService {
	return &ForwarderService{
		nc:    nc,
		store: store,
		cfg:   cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Start subscribes to organization events and blocks until the context
// is canceled
func (s *ForwarderService) Start(ctx context.Context) error {
	sub, err := s.nc.Subscribe("org.*.events.>", s.handleEvent)
	if err != nil {
		return fmt.Errorf("subscribe to org events: %w", err)
	}

	log.Info().Msg("Webhook forwarder service started")

	<-ctx.Done()

	sub.Unsubscribe()

	return nil
}

// handleEvent forwards one event to the owning organization's webhook
func (s *ForwarderService) handleEvent(msg *nats.Msg) {
	// Subject: org.<org_id>.events.<event_type>
	parts := strings.Split(msg.Subject, ".")
	if len(parts) < 4 {
		return
	}

	orgID, err := uuid.Parse(parts[1])
	if err != nil {
		log.Warn().Str("subject", msg.Subject).Msg("Invalid organization ID in event subject")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID.String()).Msg("Failed to load organization for event")
		return
	}

	webhookURL := org.Settings.Notifications.WebhookURL
	if webhookURL == "" {
		return
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal webhook event")
		return
	}

	if err := s.deliver(ctx, webhookURL, msg.Data); err != nil {
		log.Error().
			Err(err).
			Str("org_id", orgID.String()).
			Str("type", event.Type).
			Msg("Webhook delivery failed")
		return
	}

	log.Debug().
		Str("org_id", orgID.String()).
		Str("type", event.Type).
		Msg("Webhook delivered")
}

// deliver POSTs the event payload, retrying transient failures
func (s *ForwarderService) deliver(ctx context.Context, url string, payload []byte) error {
	var lastErr error

	attempts := s.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "sitesync-webhook/1.0")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return lastErr
}
