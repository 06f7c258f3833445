package cart

// Config carries the pricing knobs the client needs to derive totals
// locally. Values mirror the backend's pricing configuration; the server
// remains authoritative and reconciliation corrects any drift.
type Config struct {
	FreeShippingThresholdCents int64 `env:"CART_FREE_SHIPPING_THRESHOLD_CENTS" envDefault:"5000"` // Subtotal at which shipping becomes free.
	FlatShippingCents          int64 `env:"CART_FLAT_SHIPPING_CENTS" envDefault:"500"`            // Flat shipping charge below the threshold.
	TaxRateBasisPoints         int64 `env:"CART_TAX_RATE_BPS" envDefault:"0"`                     // Tax rate in basis points, e.g. 825 for 8.25%.
}
