package models

import "time"

// Change event types
const (
	EventTypeInsert = "INSERT"
	EventTypeUpdate = "UPDATE"
	EventTypeDelete = "DELETE"
)

// Tables that emit change events
const (
	TableProducts        = "products"
	TableCart            = "cart"
	TableOrders          = "orders"
	TableContactMessages = "contact_messages"
)

// ChangeTables lists every table on the change feed
var ChangeTables = []string{TableProducts, TableCart, TableOrders, TableContactMessages}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeEvent notifies subscribers that a row changed.
// It carries no row data; subscribers re-fetch.
type ChangeEvent struct {
	BaseEvent
	Table  string `json:"table"`
	RowID  string `json:"row_id"`
	UserID string `json:"user_id,omitempty"`
}
