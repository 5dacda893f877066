package pages

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidPrice = errors.New("invalid price")

// ParsePrice reads the amount out of texts like "$29.99" or
// "Item total: $29.99".
func ParsePrice(s string) (float64, error) {
	v := s
	if i := strings.LastIndex(v, ": "); i >= 0 {
		v = v[i+2:]
	}
	v = strings.TrimPrefix(strings.TrimSpace(v), "$")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return f, nil
}

// labelValue returns what follows ": " in a summary label.
func labelValue(s string) (string, error) {
	_, v, ok := strings.Cut(s, ": ")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return strings.TrimSpace(v), nil
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}

// TotalsMatch reports whether total equals subtotal plus tax to the cent.
func TotalsMatch(subtotal float64, tax float64, total float64) bool {
	return math.Abs(total-roundCents(subtotal+tax)) < 0.01
}

type SortOption string

const (
	SortNameAscending   SortOption = "az"
	SortNameDescending  SortOption = "za"
	SortPriceAscending  SortOption = "lohi"
	SortPriceDescending SortOption = "hilo"
)

func ParseSortOption(s string) (SortOption, error) {
	switch o := SortOption(s); o {
	case SortNameAscending, SortNameDescending, SortPriceAscending, SortPriceDescending:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort option: %s", s)
}

type Product struct {
	Name        string
	Price       string
	Description string
}

// IsSorted reports whether products are in the order option produces.
func IsSorted(products []Product, option SortOption) (bool, error) {
	var less func(a, b Product) (bool, error)
	switch option {
	case SortNameAscending:
		less = func(a, b Product) (bool, error) { return a.Name > b.Name, nil }
	case SortNameDescending:
		less = func(a, b Product) (bool, error) { return a.Name < b.Name, nil }
	case SortPriceAscending, SortPriceDescending:
		less = func(a, b Product) (bool, error) {
			pa, err := ParsePrice(a.Price)
			if err != nil {
				return false, err
			}
			pb, err := ParsePrice(b.Price)
			if err != nil {
				return false, err
			}
			if option == SortPriceAscending {
				return pa > pb, nil
			}
			return pa < pb, nil
		}
	default:
		return false, fmt.Errorf("unknown sort option: %s", option)
	}

	for i := 1; i < len(products); i++ {
		outOfOrder, err := less(products[i-1], products[i])
		if err != nil {
			return false, err
		}
		if outOfOrder {
			return false, nil
		}
	}
	return true, nil
}

// MatchingProducts returns the indexes of products whose name or description
// contains text, ignoring case.
func MatchingProducts(products []Product, text string) []int {
	text = strings.ToLower(text)
	indexes := []int{}
	for i, p := range products {
		if strings.Contains(strings.ToLower(p.Name), text) || strings.Contains(strings.ToLower(p.Description), text) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

type CartItem struct {
	Name     string
	Price    string
	Quantity int
}

func CartTotal(items []CartItem) (float64, error) {
	total := 0.0
	for _, item := range items {
		price, err := ParsePrice(item.Price)
		if err != nil {
			return 0, err
		}
		total += price * float64(item.Quantity)
	}
	return roundCents(total), nil
}

// SameItems compares carts regardless of item order.
func SameItems(actual []CartItem, expected []CartItem) bool {
	if len(actual) != len(expected) {
		return false
	}
	byName := func(items []CartItem) []CartItem {
		sorted := append([]CartItem(nil), items...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		return sorted
	}
	a, e := byName(actual), byName(expected)
	for i := range a {
		if a[i] != e[i] {
			return false
		}
	}
	return true
}
