package suppliers

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByName orders suppliers by name using Spanish collation, ignoring case
// and accents. Suppliers with equal names keep their relative order.
func SortByName(list []Supplier) {
	c := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(list, func(i, j int) bool {
		return c.CompareString(list[i].Name, list[j].Name) < 0
	})
}

func sorted(list []Supplier, by string) []Supplier {
	if by == "nombre" {
		SortByName(list)
	}
	return list
}
