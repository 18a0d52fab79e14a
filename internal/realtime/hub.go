// Package realtime fans change events out to in-process subscribers.
// Delivery is fire-and-forget: a subscriber that is not keeping up misses
// notifications and is expected to re-fetch.
package realtime

import (
	"sync"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Wildcard matches any table or event type
const Wildcard = "*"

const defaultBuffer = 16

// Subscription receives change events matching its table and event type
type Subscription struct {
	table     string
	eventType string
	ch        chan *models.ChangeEvent
	hub       *Hub
	once      sync.Once
}

// C returns the delivery channel. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan *models.ChangeEvent {
	return s.ch
}

// Unsubscribe detaches the subscription. Calling it twice is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

func (s *Subscription) matches(e *models.ChangeEvent) bool {
	return (s.table == Wildcard || s.table == e.Table) &&
		(s.eventType == Wildcard || s.eventType == e.EventType)
}

// Hub is the in-process change feed
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	logger *zap.Logger
}

// NewHub creates a hub whose subscriptions buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: util.GetLogger(),
	}
}

// Subscribe registers interest in a table and event type. Empty values
// are treated as the wildcard.
func (h *Hub) Subscribe(table, eventType string) *Subscription {
	if table == "" {
		table = Wildcard
	}
	if eventType == "" {
		eventType = Wildcard
	}

	sub := &Subscription{
		table:     table,
		eventType: eventType,
		ch:        make(chan *models.ChangeEvent, h.buffer),
		hub:       h,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	util.RealtimeSubscribers.Inc()
	h.logger.Debug("Realtime subscription opened",
		zap.String("table", table),
		zap.String("event", eventType))
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	close(sub.ch)
	h.mu.Unlock()

	util.RealtimeSubscribers.Dec()
}

// Publish delivers e to every matching subscription without blocking.
// It returns the number of subscriptions the event reached.
func (h *Hub) Publish(e *models.ChangeEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		if !sub.matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
			delivered++
		default:
			util.ChangeEventsDroppedTotal.WithLabelValues(e.Table).Inc()
		}
	}
	return delivered
}

// Len returns the number of open subscriptions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
