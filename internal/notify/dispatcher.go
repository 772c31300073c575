// Package notify delivers accepted notifications to external processors.
// Delivery is fire-and-forget: a publish failure is logged and counted but
// never surfaces to the caller, so persistence is never rolled back for it.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/pkg/logger"
)

// Built-in provider identity for instant-message alerts.
const (
	ComponentMessaging = "messaging"
	NameInstantMessage = "instantmessage"
)

// Publisher is the outbound transport for notification envelopes.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// ProviderRegistry answers whether a notification provider (plugin component
// + event name) is enabled. Notifications from disabled providers are
// dropped before persistence.
type ProviderRegistry interface {
	Enabled(component, name string) bool
	Providers() []Provider
}

// Provider identifies one notification provider with its delivery defaults.
type Provider struct {
	Component        string
	Name             string
	DefaultLoggedIn  bool
	DefaultLoggedOff bool
}

// StaticRegistry is a fixed provider table, the common host configuration.
type StaticRegistry struct {
	Entries []Provider
}

func (r StaticRegistry) Enabled(component, name string) bool {
	for _, p := range r.Entries {
		if p.Component == component && p.Name == name {
			return true
		}
	}
	return false
}

func (r StaticRegistry) Providers() []Provider {
	return r.Entries
}

// Envelope is the wire format published for each accepted notification.
type Envelope struct {
	SchemaVersion int     `json:"schema_version"`
	EventID       string  `json:"event_id"`
	OccurredAt    string  `json:"occurred_at"`
	Service       string  `json:"service"`
	Environment   string  `json:"environment"`
	Component     string  `json:"component"`
	Name          string  `json:"name"`
	SenderID      int     `json:"sender_id"`
	RecipientID   int     `json:"recipient_id"`
	Subject       string  `json:"subject"`
	SmallMessage  string  `json:"small_message"`
}

// Dispatcher publishes persisted notifications to processors.
type Dispatcher struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	log         *logger.Logger
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(publisher Publisher, routingKey, service, environment string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		log:         log,
	}
}

// Dispatch publishes one notification envelope. Failures are swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, n models.Notification) {
	if d == nil || d.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventID:       uuid.NewString(),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       d.service,
		Environment:   d.environment,
		Component:     n.Component,
		Name:          n.EventName,
		SenderID:      n.SenderID,
		RecipientID:   n.RecipientID,
		Subject:       n.Subject,
		SmallMessage:  n.SmallMessage,
	}

	if err := d.publisher.Publish(ctx, d.routingKey, envelope); err != nil {
		observability.IncAMQPPublishError()
		d.log.Warn(ctx, "notification dispatch failed",
			zap.String("component", n.Component),
			zap.String("name", n.EventName),
			zap.Error(err))
	}
}
