package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamRecorder adds the CloseNotifier that gin's Stream expects
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestStreamChangesDeliversMatchingEvents(t *testing.T) {
	s := newTestServer(t)
	admin := s.signIn(t, models.RoleAdmin)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/changes?table=orders&access_token="+admin, nil).WithContext(ctx)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	s.hub.Publish(&models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventID: "skip", EventType: models.EventTypeInsert},
		Table:     models.TableProducts,
		RowID:     "1",
	})
	s.hub.Publish(&models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventID: "want", EventType: models.EventTypeUpdate},
		Table:     models.TableOrders,
		RowID:     "7",
	})

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	body := rec.Body.String()
	assert.Contains(t, body, "event:change")
	assert.Contains(t, body, `"event_id":"want"`)
	assert.NotContains(t, body, `"event_id":"skip"`)
	assert.Equal(t, 0, s.hub.Len())
}
