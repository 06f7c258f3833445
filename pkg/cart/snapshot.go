package cart

import "github.com/google/uuid"

// Line is one cart position. Prices are integer cents; the unit price is
// zero on freshly added lines until the server confirms it.
type Line struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId"`
	VariantID      string `json:"variantId,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	MaxQuantity    int    `json:"maxQuantity,omitempty"`
}

// local reports whether the line id was generated client-side and not yet
// replaced by a server-assigned one.
func (l Line) local() bool {
	return len(l.ID) > 6 && l.ID[:6] == "local-"
}

// Coupon is an applied discount code.
type Coupon struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discountPercent"`
}

// Snapshot is the cart state at one point in time. All monetary fields are
// derived: subtotal is the sum over lines, and total is
// subtotal + shipping + tax - discount, recomputed after every mutation.
type Snapshot struct {
	Items         []Line  `json:"items"`
	Coupon        *Coupon `json:"coupon,omitempty"`
	SubtotalCents int64   `json:"subtotalCents"`
	DiscountCents int64   `json:"discountCents"`
	ShippingCents int64   `json:"shippingCents"`
	TaxCents      int64   `json:"taxCents"`
	TotalCents    int64   `json:"totalCents"`
}

// Clone returns a deep copy. Mutating the copy never affects the original,
// which is what makes whole-snapshot rollback trivially correct.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Items != nil {
		out.Items = make([]Line, len(s.Items))
		copy(out.Items, s.Items)
	}
	if s.Coupon != nil {
		coupon := *s.Coupon
		out.Coupon = &coupon
	}
	return out
}

// ItemCount is the total quantity across all lines.
func (s Snapshot) ItemCount() int {
	var n int
	for _, l := range s.Items {
		n += l.Quantity
	}
	return n
}

// lineIndex returns the position of the line with the given id, or -1.
func (s Snapshot) lineIndex(id string) int {
	for i, l := range s.Items {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// sameProductIndex locates an existing line for the product/variant pair so
// AddItem can increment instead of appending a duplicate.
func (s Snapshot) sameProductIndex(productID, variantID string) int {
	for i, l := range s.Items {
		if l.ProductID == productID && l.VariantID == variantID {
			return i
		}
	}
	return -1
}

// recompute rederives every monetary field from the lines and coupon.
func (s *Snapshot) recompute(cfg Config) {
	var subtotal int64
	for _, l := range s.Items {
		subtotal += l.UnitPriceCents * int64(l.Quantity)
	}
	s.SubtotalCents = subtotal

	s.DiscountCents = 0
	if s.Coupon != nil {
		s.DiscountCents = subtotal * int64(s.Coupon.DiscountPercent) / 100
	}

	s.ShippingCents = 0
	if len(s.Items) > 0 && subtotal < cfg.FreeShippingThresholdCents {
		s.ShippingCents = cfg.FlatShippingCents
	}

	s.TaxCents = subtotal * cfg.TaxRateBasisPoints / 10000

	s.TotalCents = subtotal + s.ShippingCents + s.TaxCents - s.DiscountCents
}

// localLineID generates an id for a line created before the server assigned
// one, e.g. in a guest cart.
func localLineID() string {
	return "local-" + uuid.NewString()
}
