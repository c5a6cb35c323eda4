package engine

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/iyhunko/shopping-list/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// AllCategories disables the category filter.
	AllCategories = "all"

	unknownAisle = 999
)

// ViewOptions selects which products a view shows and in what order.
type ViewOptions struct {
	Search       string
	Category     string
	ShoppingMode bool
	Locale       language.Tag
}

// Filter derives the visible list from products. The input is never modified.
func Filter(products []model.Product, opts ViewOptions) []model.Product {
	list := make([]model.Product, 0, len(products))

	term := strings.ToLower(opts.Search)
	for _, p := range products {
		if term != "" && !matches(p, term) {
			continue
		}
		if !opts.ShoppingMode && opts.Category != "" && opts.Category != AllCategories && p.Category != opts.Category {
			continue
		}
		if opts.ShoppingMode && !p.ToBuy {
			continue
		}
		list = append(list, p)
	}

	if opts.ShoppingMode {
		slices.SortStableFunc(list, func(a, b model.Product) int {
			if a.InCart != b.InCart {
				if a.InCart {
					return 1
				}
				return -1
			}
			return cmp.Compare(AisleNumber(a.Aisle), AisleNumber(b.Aisle))
		})
		return list
	}

	col := collate.New(opts.Locale)
	slices.SortStableFunc(list, func(a, b model.Product) int {
		return col.CompareString(a.Name, b.Name)
	})
	return list
}

func matches(p model.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Brand), term)
}

// AisleNumber parses the leading integer of an aisle.
// Empty, non-numeric and zero aisles sort last.
func AisleNumber(aisle string) int {
	s := strings.TrimSpace(aisle)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return unknownAisle
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return unknownAisle
	}
	return n
}
