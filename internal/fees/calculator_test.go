package fees_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/peterclermy232/banking-system-backend/internal/fees"
)

func amt(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", v, err)
	}
	return d
}

func TestCalculateInternalTiers(t *testing.T) {
	calc := fees.NewCalculator(fees.DefaultSchedule())

	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"bottom tier", "500", "10.00"},
		{"tier 1 boundary", "10000", "10.00"},
		{"just above tier 1", "10000.01", "20.00"},
		{"mid tier 2", "15000", "20.00"},
		{"tier 2 boundary", "50000", "20.00"},
		{"tier 3", "75000", "30.00"},
		{"tier 3 boundary", "100000", "30.00"},
		{"open tier", "250000", "50.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(fees.ClassInternal, amt(t, tt.amount))
			if !got.Equal(amt(t, tt.want)) {
				t.Errorf("Calculate(INTERNAL, %s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestCalculateExternalClamped(t *testing.T) {
	calc := fees.NewCalculator(fees.DefaultSchedule())

	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"clamped to min", "1000", "50.00"},     // 1.5% = 15.00 -> min 50
		{"percentage applies", "10000", "150.00"},
		{"round half up", "10001", "150.02"},    // 150.015 rounds up
		{"clamped to max", "100000", "500.00"},  // 1.5% = 1500 -> max 500
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(fees.ClassExternal, amt(t, tt.amount))
			if !got.Equal(amt(t, tt.want)) {
				t.Errorf("Calculate(EXTERNAL, %s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestCalculateMobileMoneyBands(t *testing.T) {
	calc := fees.NewCalculator(fees.DefaultSchedule())

	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"free band", "49", "0"},
		{"first paid band", "100", "1.00"},
		{"band applies exactly, no interpolation", "1200", "13.00"},
		{"band boundary", "1500", "13.00"},
		{"mid table", "20000", "55.00"},
		{"top band", "70000", "110.00"},
		{"overflow percentage", "80000", "300.00"}, // 2% = 1600 -> max 300
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(fees.ClassMobileMoney, amt(t, tt.amount))
			if !got.Equal(amt(t, tt.want)) {
				t.Errorf("Calculate(MOBILE_MONEY, %s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestCalculateWithdrawal(t *testing.T) {
	calc := fees.NewCalculator(fees.DefaultSchedule())

	if got := calc.Calculate(fees.ClassWithdrawal, amt(t, "10000")); !got.Equal(amt(t, "100.00")) {
		t.Errorf("withdrawal fee for 10000 = %s, want 100.00", got)
	}
	if got := calc.Calculate(fees.ClassWithdrawal, amt(t, "100")); !got.Equal(amt(t, "25.00")) {
		t.Errorf("withdrawal fee for 100 = %s, want min fee 25.00", got)
	}
	if got := calc.Calculate(fees.ClassWithdrawal, amt(t, "500000")); !got.Equal(amt(t, "200.00")) {
		t.Errorf("withdrawal fee for 500000 = %s, want max fee 200.00", got)
	}
}

func TestCalculateZeroAndSavings(t *testing.T) {
	calc := fees.NewCalculator(fees.DefaultSchedule())

	for _, class := range []fees.Class{
		fees.ClassInternal, fees.ClassExternal, fees.ClassMobileMoney, fees.ClassWithdrawal,
	} {
		if got := calc.Calculate(class, decimal.Zero); !got.IsZero() {
			t.Errorf("Calculate(%s, 0) = %s, want 0", class, got)
		}
		if got := calc.Calculate(class, amt(t, "-5")); !got.IsZero() {
			t.Errorf("Calculate(%s, -5) = %s, want 0", class, got)
		}
	}

	if got := calc.Calculate(fees.ClassSavingsDeposit, amt(t, "10000")); !got.IsZero() {
		t.Errorf("savings deposits should be free, got %s", got)
	}
}

func TestCalculateDeterministicAndMonotonic(t *testing.T) {
	calc := fees.NewCalculator(fees.DefaultSchedule())

	a := amt(t, "12345.67")
	first := calc.Calculate(fees.ClassMobileMoney, a)
	for i := 0; i < 10; i++ {
		if got := calc.Calculate(fees.ClassMobileMoney, a); !got.Equal(first) {
			t.Fatalf("repeated call returned %s, first returned %s", got, first)
		}
	}

	// Fees never decrease as the amount grows within a class.
	for _, class := range []fees.Class{
		fees.ClassInternal, fees.ClassExternal, fees.ClassMobileMoney, fees.ClassWithdrawal,
	} {
		prev := decimal.Zero
		for _, v := range []string{"10", "100", "1000", "5000", "20000", "60000", "90000", "200000"} {
			fee := calc.Calculate(class, amt(t, v))
			if fee.LessThan(prev) {
				t.Errorf("%s: fee decreased from %s to %s at amount %s", class, prev, fee, v)
			}
			prev = fee
		}
	}
}
