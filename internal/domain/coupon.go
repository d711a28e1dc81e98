package domain

// DiscountType is how a coupon reduces the booking total.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent" // Value is 0..100
	DiscountFlat    DiscountType = "flat"    // Value is an absolute amount
)

// Coupon is a validated discount returned by the coupon collaborator.
type Coupon struct {
	Code  string
	Type  DiscountType
	Value float64
}
