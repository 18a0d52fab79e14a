package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an account together with its profile row
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Category    string          `db:"category" json:"category"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Description string          `db:"description" json:"description"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	LowStock    bool            `db:"-" json:"low_stock"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductFilter narrows a catalog listing
type ProductFilter struct {
	Category string
	Query    string
}

// CartLine is a stored cart row
type CartLine struct {
	ID        int64     `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartLineView is a cart row joined with its product
type CartLineView struct {
	ID          int64           `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"-"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Category    string          `db:"category" json:"category"`
	Stock       int             `db:"stock" json:"stock"`
	Description string          `db:"description" json:"description"`
	ImageURL    string          `db:"image_url" json:"image_url"`
}

// LineTotal returns price times quantity
func (l CartLineView) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineItem is a purchased line copied into an order at checkout
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url,omitempty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// LineItems is stored as a jsonb column
type LineItems []LineItem

// Value implements driver.Valuer
func (li LineItems) Value() (driver.Value, error) {
	if li == nil {
		return "[]", nil
	}
	b, err := json.Marshal(li)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (li *LineItems) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*li = LineItems{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported line items source: %T", src)
	}
	return json.Unmarshal(data, li)
}

// Order represents a placed order
type Order struct {
	ID           int64           `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	CustomerName string          `db:"customer_name" json:"customer_name"`
	Email        string          `db:"email" json:"email"`
	Address      string          `db:"address" json:"address"`
	Phone        string          `db:"phone" json:"phone,omitempty"`
	Items        LineItems       `db:"items" json:"items"`
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingFee  decimal.Decimal `db:"shipping_fee" json:"shipping_fee"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	Status       OrderStatus     `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ContactMessage is a message left through the contact form
type ContactMessage struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID   uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	TokenID  string    `json:"-"`
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
