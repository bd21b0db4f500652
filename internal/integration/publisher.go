package integration

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/sitesync/sitesync-server/internal/models"
)

// Publisher publishes visit events to NATS. It satisfies
// logbook.EventPublisher.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a NATS event publisher
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// subject builds the per-organization event subject
func subject(orgID uuid.UUID, eventType string) string {
	return fmt.Sprintf("org.%s.events.%s", orgID, eventType)
}

// PublishEntryEvent publishes a check-in/check-out event. Failures are
// logged and swallowed; eventing never fails the visit itself.
func (p *Publisher) PublishEntryEvent(eventType string, entry *models.LogEntry) {
	event := models.WebhookEvent{
		ID:             uuid.New(),
		Type:           eventType,
		OrganizationID: entry.OrganizationID,
		Timestamp:      time.Now().UTC(),
		Data:           entry,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal entry event")
		return
	}

	if err := p.nc.Publish(subject(entry.OrganizationID, eventType), data); err != nil {
		log.Error().
			Err(err).
			Str("type", eventType).
			Str("entry_id", entry.ID.String()).
			Msg("Failed to publish entry event")
	}
}

// PublishSiteEvent publishes a site lifecycle event
func (p *Publisher) PublishSiteEvent(eventType string, site *models.Site) {
	event := models.WebhookEvent{
		ID:             uuid.New(),
		Type:           eventType,
		OrganizationID: site.OrganizationID,
		Timestamp:      time.Now().UTC(),
		Data:           site,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal site event")
		return
	}

	if err := p.nc.Publish(subject(site.OrganizationID, eventType), data); err != nil {
		log.Error().
			Err(err).
			Str("type", eventType).
			Str("site_id", site.ID.String()).
			Msg("Failed to publish site event")
	}
}
