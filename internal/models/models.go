package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const PaymentStatusCompleted PaymentStatus = "completed"

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	Name         string    `gorm:"size:255;not null"           json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null"           json:"-"`
	CreatedAt    time.Time `gorm:"not null"                    json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null"                    json:"updated_at"`
}

type Item struct {
	ID    uint   `gorm:"primaryKey"                 json:"id"`
	Name  string `gorm:"size:255;not null"          json:"name"`
	Price int64  `gorm:"not null;check:price >= 0"  json:"price"`
	Image string `gorm:"size:512"                   json:"image"`
}

type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;index;not null"    json:"user_id"`
	Status    OrderStatus `gorm:"size:16;not null;index"      json:"status"`
	Total     int64       `gorm:"not null"                    json:"total"`
	CreatedAt time.Time   `gorm:"not null"                    json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null"                    json:"updated_at"`

	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
}

// ItemsTotal sums the frozen unit prices of the order lines.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.LineTotal()
	}
	return total
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"      json:"order_id"`
	ItemID    uint      `gorm:"not null"                      json:"item_id"`
	Name      string    `gorm:"size:255;not null"             json:"name"`
	Quantity  int       `gorm:"not null;check:quantity > 0"   json:"quantity"`
	UnitPrice int64     `gorm:"not null"                      json:"unit_price"`
}

func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

type Payment struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"            json:"id"`
	OrderID     uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null"  json:"order_id"`
	Amount      int64         `gorm:"not null"                        json:"amount"`
	Method      string        `gorm:"size:32;not null"                json:"method"`
	Status      PaymentStatus `gorm:"size:16;not null"                json:"status"`
	ProcessedAt time.Time     `gorm:"not null"                        json:"processed_at"`
	CreatedAt   time.Time     `gorm:"not null"                        json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

func (Item) TableName() string {
	return "items"
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (Payment) TableName() string {
	return "payments"
}

// Upper bounds for a single order. They keep line and order totals far
// below the int64 range.
const (
	MaxLineQuantity = 1000
	MaxOrderLines   = 100
)

// LineItem is a requested (item, quantity) pair before prices are snapshotted.
type LineItem struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}
