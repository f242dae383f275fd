package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundBreakdown is the charge/refund split returned for a cancellation
type RefundBreakdown struct {
	OrderAmount     decimal.Decimal
	CancellationFee decimal.Decimal
	RefundAmount    decimal.Decimal
}

// refundSlab maps a minimum notice period before service start to the
// cancellation fee retained, as a percentage of the order amount.
type refundSlab struct {
	minNotice  time.Duration
	feePercent int64
}

// refundSlabs is evaluated top down; the first slab whose notice period is
// satisfied applies. Charges grow as the service start approaches.
var refundSlabs = []refundSlab{
	{48 * time.Hour, 10},
	{24 * time.Hour, 25},
	{0, 50},
}

// defaultFeePercent applies when the time to service start is unknown,
// which is the common case for payloads whose fulfillment block is opaque.
const defaultFeePercent = 25

// ComputeRefund calculates the platform-level charge/refund split used when
// the provider cannot quote cancellation charges itself. timeToService is
// the notice period before the service starts; pass nil when unknown. The
// refund never goes negative and never exceeds the order amount.
func ComputeRefund(orderAmount decimal.Decimal, timeToService *time.Duration) RefundBreakdown {
	if orderAmount.IsNegative() {
		orderAmount = decimal.Zero
	}

	feePercent := int64(defaultFeePercent)
	if timeToService != nil {
		notice := *timeToService
		if notice < 0 {
			notice = 0
		}
		for _, slab := range refundSlabs {
			if notice >= slab.minNotice {
				feePercent = slab.feePercent
				break
			}
		}
	}

	fee := orderAmount.Mul(decimal.NewFromInt(feePercent)).Div(decimal.NewFromInt(100)).Round(2)
	if fee.GreaterThan(orderAmount) {
		fee = orderAmount
	}

	return RefundBreakdown{
		OrderAmount:     orderAmount,
		CancellationFee: fee,
		RefundAmount:    orderAmount.Sub(fee),
	}
}

// ParseAmount parses a wire price value into a decimal, returning zero for
// empty or malformed values rather than failing the cancellation.
func ParseAmount(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}
