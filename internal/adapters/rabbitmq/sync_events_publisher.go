package rabbitmq_adapter

import (
	"context"
	"encoding/json"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"
	"favorites-sync/internal/core/port"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessagePublisher - часть rabbitmq_producer.Publisher, нужная адаптеру.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// SyncEventsPublisher публикует событие "избранное синхронизировано"
// после полного воспроизведения очереди.
type SyncEventsPublisher struct {
	producer   MessagePublisher
	routingKey string
	timeout    time.Duration
}

func NewSyncEventsPublisher(producer MessagePublisher, routingKey string) (*SyncEventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routing key is required")
	}
	return &SyncEventsPublisher{
		producer:   producer,
		routingKey: routingKey,
		timeout:    10 * time.Second,
	}, nil
}

func (a *SyncEventsPublisher) PublishFavoritesSynced(ctx context.Context, report domain.SyncReport) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "SyncEventsPublisher",
		"routing_key": a.routingKey,
		"user_id":     report.UserID,
	})

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal sync report for %s: %w", report.UserID, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Type:         "favorites.synced",
		Headers:      make(amqp.Table),
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish favorites synced event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish sync report for %s: %w", report.UserID, err)
	}

	adapterLogger.Debug("Published favorites synced event", port.Fields{"applied": report.Applied})
	return nil
}
