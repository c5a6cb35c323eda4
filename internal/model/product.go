package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a shopping list product with its planning and shopping flags.
type Product struct {
	ID        uuid.UUID
	Name      string
	Brand     string
	Category  string
	Aisle     string
	Quantity  float64
	UnitPrice float64
	ToBuy     bool
	InCart    bool
	UpdatedAt time.Time
	CreatedAt time.Time
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// LineTotal returns unit price multiplied by quantity.
func (p Product) LineTotal() float64 {
	return p.UnitPrice * p.Quantity
}

// SameState reports whether both products carry the same user-visible fields.
// Timestamps are ignored.
func (p Product) SameState(other Product) bool {
	return p.ID == other.ID &&
		p.Name == other.Name &&
		p.Brand == other.Brand &&
		p.Category == other.Category &&
		p.Aisle == other.Aisle &&
		p.Quantity == other.Quantity &&
		p.UnitPrice == other.UnitPrice &&
		p.ToBuy == other.ToBuy &&
		p.InCart == other.InCart
}
