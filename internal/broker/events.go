package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter writes a keyed event to the change topic
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher publishes row change notifications
type EventPublisher struct {
	writer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

// ChangeKey is the partition key of a change event. Changes to one row stay
// ordered on one partition.
func ChangeKey(event *models.ChangeEvent) string {
	return fmt.Sprintf("%s-%s", event.Table, event.RowID)
}

// PublishChange publishes a ChangeEvent
func (ep *EventPublisher) PublishChange(ctx context.Context, event *models.ChangeEvent) error {
	ctx, span := util.StartSpan(ctx, "EventPublisher.PublishChange")
	defer span.End()

	return ep.writer.PublishEvent(ctx, ChangeKey(event), event)
}

// ChangeFunc receives a decoded change event
type ChangeFunc func(context.Context, *models.ChangeEvent) error

// EventHandler routes incoming change events by table
type EventHandler struct {
	byTable map[string][]ChangeFunc
	logger  *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		byTable: make(map[string][]ChangeFunc),
		logger:  util.GetLogger(),
	}
}

// OnTable registers a handler for changes to one table
func (eh *EventHandler) OnTable(table string, handler ChangeFunc) {
	eh.byTable[table] = append(eh.byTable[table], handler)
}

// HandleMessage decodes a message and routes it to the registered handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.ChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal change event: %w", err)
	}
	if event.Table == "" {
		return fmt.Errorf("change event %s has no table", event.EventID)
	}

	eh.logger.Debug("Handling event",
		zap.String("table", event.Table),
		zap.String("type", event.EventType),
		zap.String("id", event.EventID))

	handlers := eh.byTable[event.Table]
	if len(handlers) == 0 {
		eh.logger.Debug("Unhandled change", zap.String("table", event.Table))
		return nil
	}

	for _, h := range handlers {
		if err := h(ctx, &event); err != nil {
			return err
		}
	}
	return nil
}
