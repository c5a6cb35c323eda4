package model

import (
	"errors"
	"fmt"
)

// Field names a writable product column.
type Field string

const (
	NameField      Field = "name"
	BrandField     Field = "brand"
	CategoryField  Field = "category"
	AisleField     Field = "aisle"
	QuantityField  Field = "quantity"
	UnitPriceField Field = "unit_price"
	ToBuyField     Field = "to_buy"
	InCartField    Field = "in_cart"
)

var (
	// ErrUnknownField is returned when a field is not a writable product column.
	ErrUnknownField = errors.New("unknown product field")
	// ErrFieldType is returned when a field value has the wrong type.
	ErrFieldType = errors.New("invalid product field type")
)

// Fields is a partial set of product values keyed by column.
type Fields map[Field]any

// Valid reports whether f is a writable product column.
func (f Field) Valid() bool {
	switch f {
	case NameField, BrandField, CategoryField, AisleField, QuantityField, UnitPriceField, ToBuyField, InCartField:
		return true
	}
	return false
}

// Apply copies the given fields onto the product.
func (p *Product) Apply(fields Fields) error {
	for field, value := range fields {
		if err := p.set(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Product) set(field Field, value any) error {
	switch field {
	case NameField, BrandField, CategoryField, AisleField:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string, got %T", ErrFieldType, field, value)
		}
		switch field {
		case NameField:
			p.Name = s
		case BrandField:
			p.Brand = s
		case CategoryField:
			p.Category = s
		default:
			p.Aisle = s
		}
	case QuantityField, UnitPriceField:
		n, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%w: %s must be a float64, got %T", ErrFieldType, field, value)
		}
		if field == QuantityField {
			p.Quantity = n
		} else {
			p.UnitPrice = n
		}
	case ToBuyField, InCartField:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s must be a bool, got %T", ErrFieldType, field, value)
		}
		if field == ToBuyField {
			p.ToBuy = b
		} else {
			p.InCart = b
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}
