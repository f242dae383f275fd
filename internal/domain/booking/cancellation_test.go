package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestComputeRefund(t *testing.T) {
	amount := decimal.NewFromInt(1000)

	tests := []struct {
		name       string
		notice     *time.Duration
		wantFee    string
		wantRefund string
	}{
		{"more than 48h notice", durationPtr(72 * time.Hour), "100", "900"},
		{"exactly 48h notice", durationPtr(48 * time.Hour), "100", "900"},
		{"between 24h and 48h", durationPtr(30 * time.Hour), "250", "750"},
		{"under 24h", durationPtr(2 * time.Hour), "500", "500"},
		{"past service start", durationPtr(-1 * time.Hour), "500", "500"},
		{"unknown notice uses default slab", nil, "250", "750"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRefund(amount, tt.notice)
			assert.True(t, got.CancellationFee.Equal(decimal.RequireFromString(tt.wantFee)),
				"fee = %s", got.CancellationFee)
			assert.True(t, got.RefundAmount.Equal(decimal.RequireFromString(tt.wantRefund)),
				"refund = %s", got.RefundAmount)
		})
	}
}

func TestComputeRefund_Bounds(t *testing.T) {
	t.Run("zero amount", func(t *testing.T) {
		got := ComputeRefund(decimal.Zero, nil)
		assert.True(t, got.RefundAmount.IsZero())
		assert.True(t, got.CancellationFee.IsZero())
	})

	t.Run("negative amount clamps to zero", func(t *testing.T) {
		got := ComputeRefund(decimal.NewFromInt(-50), nil)
		assert.True(t, got.OrderAmount.IsZero())
		assert.True(t, got.RefundAmount.IsZero())
	})

	t.Run("refund stays within the original amount", func(t *testing.T) {
		amount := decimal.RequireFromString("123.45")
		for _, notice := range []*time.Duration{nil, durationPtr(0), durationPtr(100 * time.Hour)} {
			got := ComputeRefund(amount, notice)
			assert.True(t, got.RefundAmount.GreaterThanOrEqual(decimal.Zero))
			assert.True(t, got.RefundAmount.LessThanOrEqual(amount))
			assert.True(t, got.CancellationFee.Add(got.RefundAmount).Equal(amount))
		}
	})
}

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount("199.50").Equal(decimal.RequireFromString("199.50")))
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount("not-a-number").IsZero())
}
