package engine

import (
	"slices"
	"strings"

	"github.com/iyhunko/shopping-list/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Categories merges the defaults with every category seen on a product.
func Categories(defaults []string, products []model.Product, locale language.Tag) []string {
	seen := make(map[string]struct{}, len(defaults))
	out := make([]string, 0, len(defaults))
	add := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range defaults {
		add(c)
	}
	for _, p := range products {
		add(p.Category)
	}

	col := collate.New(locale)
	slices.SortFunc(out, func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
