package engine

import "github.com/iyhunko/shopping-list/internal/model"

// Totals are the running sums of the list.
type Totals struct {
	Base     float64
	Cart     float64
	MarkedUp float64
}

// ComputeTotals sums line totals over products marked to buy.
func ComputeTotals(products []model.Product, marginPct float64) Totals {
	var t Totals
	for _, p := range products {
		if !p.ToBuy {
			continue
		}
		line := p.LineTotal()
		t.Base += line
		if p.InCart {
			t.Cart += line
		}
	}
	t.MarkedUp = t.Base * (1 + marginPct/100)
	return t
}
