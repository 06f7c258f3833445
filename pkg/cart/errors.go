package cart

import "errors"

var (
	ErrInvalidProduct     = errors.New("cart: product id is required")
	ErrInvalidQuantity    = errors.New("cart: quantity must be at least 1")
	ErrQuantityExceedsMax = errors.New("cart: quantity exceeds the maximum for this line")
	ErrLineNotFound       = errors.New("cart: line not found")
	ErrEmptyCouponCode    = errors.New("cart: coupon code is required")
	ErrSnapshotNotFound   = errors.New("cart: no stored snapshot for this session")
)
