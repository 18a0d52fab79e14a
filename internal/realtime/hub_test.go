package realtime

import (
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(table, eventType string) *models.ChangeEvent {
	return &models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventType: eventType},
		Table:     table,
	}
}

func TestPublishMatchesTableAndEvent(t *testing.T) {
	h := NewHub(4)

	orders := h.Subscribe(models.TableOrders, Wildcard)
	inserts := h.Subscribe(models.TableOrders, models.EventTypeInsert)
	everything := h.Subscribe("", "")
	defer orders.Unsubscribe()
	defer inserts.Unsubscribe()
	defer everything.Unsubscribe()

	assert.Equal(t, 3, h.Publish(change(models.TableOrders, models.EventTypeInsert)))
	assert.Equal(t, 2, h.Publish(change(models.TableOrders, models.EventTypeUpdate)))
	assert.Equal(t, 1, h.Publish(change(models.TableProducts, models.EventTypeDelete)))

	assert.Len(t, orders.C(), 2)
	assert.Len(t, inserts.C(), 1)
	assert.Len(t, everything.C(), 3)
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := NewHub(1)
	sub := h.Subscribe(models.TableCart, Wildcard)
	defer sub.Unsubscribe()

	assert.Equal(t, 1, h.Publish(change(models.TableCart, models.EventTypeUpdate)))
	assert.Equal(t, 0, h.Publish(change(models.TableCart, models.EventTypeUpdate)))

	e := <-sub.C()
	assert.Equal(t, models.TableCart, e.Table)
	assert.Equal(t, 1, h.Publish(change(models.TableCart, models.EventTypeDelete)))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(1)
	sub := h.Subscribe(models.TableOrders, Wildcard)
	require.Equal(t, 1, h.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()

	_, open := <-sub.C()
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Publish(change(models.TableOrders, models.EventTypeInsert)))
}
