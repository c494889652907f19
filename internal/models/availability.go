package models

// LowStockThreshold is the single boundary between low-stock and
// in-stock. Quantity at or below it (but above zero) reads low-stock.
const LowStockThreshold = 20

func AvailabilityFor(quantity int) string {
	switch {
	case quantity <= 0:
		return AvailabilityOutOfStock
	case quantity <= LowStockThreshold:
		return AvailabilityLowStock
	default:
		return AvailabilityInStock
	}
}
