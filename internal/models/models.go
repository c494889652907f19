package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	CategoryVegetables = "vegetables"
	CategoryFruits     = "fruits"
	CategoryGrains     = "grains"
)

const (
	AvailabilityInStock    = "in-stock"
	AvailabilityLowStock   = "low-stock"
	AvailabilityOutOfStock = "out-of-stock"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

const PaymentMethodKhalti = "khalti"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Product struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name         string    `gorm:"not null"                  json:"name"`
	Description  string    `gorm:"not null"                  json:"description"`
	Category     string    `gorm:"index;not null"            json:"category"`
	Price        float64   `gorm:"not null"                  json:"price"`
	Unit         string    `gorm:"not null"                  json:"unit"`
	Quantity     int       `gorm:"not null;default:0"        json:"quantity"`
	Image        string    `json:"image"`
	Supplier     string    `json:"supplier"`
	Farm         string    `json:"farm"`
	Availability string    `gorm:"not null"                  json:"availability"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OrderItem is a snapshot of the product at the moment the order was
// placed. Later catalog edits never change it.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Name      string  `gorm:"not null"                    json:"name"`
	Price     float64 `gorm:"not null"                    json:"price"`
	Quantity  int     `gorm:"not null;check:quantity>0"   json:"quantity"`
	Total     float64 `gorm:"not null"                    json:"total"`
}

type Order struct {
	ID               uint        `gorm:"primaryKey"               json:"id"`
	UserID           uint        `gorm:"index;not null"           json:"user_id"`
	Items            []OrderItem `gorm:"foreignKey:OrderID"       json:"items"`
	Total            float64     `gorm:"not null"                 json:"total"`
	Status           string      `gorm:"not null;default:pending" json:"status"`
	PaymentMethod    string      `json:"payment_method,omitempty"`
	PaymentStatus    string      `gorm:"index;not null;default:unpaid" json:"payment_status"`
	PaymentPidx      string      `gorm:"index"                    json:"payment_pidx,omitempty"`
	PaymentReference string      `json:"payment_reference,omitempty"`
	PaidAt           *time.Time  `json:"paid_at,omitempty"`
	CustomerName     string      `gorm:"not null"                 json:"customer_name"`
	CustomerEmail    string      `gorm:"not null"                 json:"customer_email"`
	Phone            string      `gorm:"not null"                 json:"phone"`
	Address          string      `gorm:"not null"                 json:"address"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryGrains:
		return true
	}
	return false
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
