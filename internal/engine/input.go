package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/spf13/cast"
)

var errNotFinite = errors.New("not a finite number")

// ProductInput carries the product form. Numbers may arrive as numbers or strings.
type ProductInput struct {
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	Category  string `json:"category"`
	Aisle     string `json:"aisle"`
	Quantity  any    `json:"quantity"`
	UnitPrice any    `json:"unit_price"`
}

func (e *Engine) formFields(in ProductInput) (model.Fields, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = e.opts.DefaultCategory
	}

	quantity, err := toNumber(in.Quantity, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: quantity: %v", ErrInvalidNumber, err)
	}
	if quantity <= 0 {
		quantity = 1
	}

	price, err := parsePrice(in.UnitPrice)
	if err != nil {
		return nil, err
	}

	return model.Fields{
		model.NameField:      name,
		model.BrandField:     strings.TrimSpace(in.Brand),
		model.CategoryField:  category,
		model.AisleField:     strings.TrimSpace(in.Aisle),
		model.QuantityField:  quantity,
		model.UnitPriceField: price,
	}, nil
}

func parsePrice(value any) (float64, error) {
	price, err := toNumber(value, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: unit price: %v", ErrInvalidNumber, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("%w: unit price must not be negative", ErrInvalidNumber)
	}
	return price, nil
}

// toNumber coerces a form value; nil and blank strings yield def.
func toNumber(value any, def float64) (float64, error) {
	if value == nil {
		return def, nil
	}
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return def, nil
		}
		value = strings.Replace(s, ",", ".", 1)
	}
	n, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotFinite
	}
	return n, nil
}
