package service

import (
	"context"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// changeNotifier publishes best-effort change events. A failed publish is
// logged and counted but never fails the write that triggered it.
type changeNotifier struct {
	publisher ChangePublisher
	logger    *zap.Logger
}

func (n changeNotifier) notify(ctx context.Context, table, eventType string, rowID int64, userID uuid.UUID) {
	if n.publisher == nil {
		return
	}

	event := &models.ChangeEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		Table: table,
		RowID: strconv.FormatInt(rowID, 10),
	}
	if userID != uuid.Nil {
		event.UserID = userID.String()
	}

	if err := n.publisher.PublishChange(ctx, event); err != nil {
		util.ChangeEventsPublishFailedTotal.WithLabelValues(table).Inc()
		n.logger.Error("Failed to publish change event",
			zap.String("table", table),
			zap.String("event_type", eventType),
			zap.Int64("row_id", rowID),
			zap.Error(err))
		return
	}

	util.ChangeEventsPublishedTotal.WithLabelValues(table, eventType).Inc()
}
