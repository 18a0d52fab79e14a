package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// MessageSource is a stream of change-topic messages
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ChangeFeedWorker relays change events from the topic into the realtime hub.
// Events for tables outside models.ChangeTables are dropped.
type ChangeFeedWorker struct {
	source       MessageSource
	eventHandler *broker.EventHandler
	hub          *realtime.Hub
	logger       *zap.Logger
}

// NewChangeFeedWorker creates a new change feed worker
func NewChangeFeedWorker(source MessageSource, hub *realtime.Hub) *ChangeFeedWorker {
	w := &ChangeFeedWorker{
		source:       source,
		eventHandler: broker.NewEventHandler(),
		hub:          hub,
		logger:       util.GetLogger(),
	}
	for _, table := range models.ChangeTables {
		w.eventHandler.OnTable(table, w.relay)
	}
	return w
}

func (w *ChangeFeedWorker) relay(ctx context.Context, event *models.ChangeEvent) error {
	n := w.hub.Publish(event)
	w.logger.Debug("Relayed change",
		zap.String("table", event.Table),
		zap.String("type", event.EventType),
		zap.String("row_id", event.RowID),
		zap.Int("subscribers", n))
	return nil
}

// Start starts the worker. It blocks until ctx is cancelled.
func (w *ChangeFeedWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting change feed worker")
	return w.source.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ChangeFeedWorker) Stop() error {
	w.logger.Info("Stopping change feed worker")
	return w.source.Close()
}
