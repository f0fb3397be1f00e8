package sandbox

import (
	"sort"
	"strings"

	"github.com/gatewaylabs/payconsole/internal/models"
)

// sortMerchants orders the slice by the requested column. Unknown columns
// fall back to id so the listing stays deterministic.
func sortMerchants(merchants []models.Merchant, column string, dir models.SortDirection) {
	less := merchantLess(column)
	sort.SliceStable(merchants, func(i, j int) bool {
		if dir == models.SortDesc {
			return less(merchants[j], merchants[i])
		}
		return less(merchants[i], merchants[j])
	})
}

func merchantLess(column string) func(a, b models.Merchant) bool {
	switch column {
	case "username":
		return func(a, b models.Merchant) bool { return strings.ToLower(a.Username) < strings.ToLower(b.Username) }
	case "email":
		return func(a, b models.Merchant) bool { return strings.ToLower(a.Email) < strings.ToLower(b.Email) }
	case "name":
		return func(a, b models.Merchant) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "status":
		return func(a, b models.Merchant) bool { return a.Status < b.Status }
	case "totalTransactionSum":
		return func(a, b models.Merchant) bool { return a.TotalTransactionSum.LessThan(b.TotalTransactionSum) }
	default:
		return func(a, b models.Merchant) bool { return a.ID < b.ID }
	}
}
