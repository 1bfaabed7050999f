package fees

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Class identifies which tariff of the schedule applies to a transfer.
type Class string

const (
	ClassInternal       Class = "INTERNAL"
	ClassExternal       Class = "EXTERNAL"
	ClassMobileMoney    Class = "MOBILE_MONEY"
	ClassWithdrawal     Class = "WITHDRAWAL"
	ClassSavingsDeposit Class = "SAVINGS_DEPOSIT"
)

// Tier maps amounts up to and including UpTo to a flat fee. A nil UpTo
// marks the open-ended tier and must come last.
type Tier struct {
	UpTo *decimal.Decimal `json:"up_to"`
	Fee  decimal.Decimal  `json:"fee"`
}

// ClampedRate is a percentage fee bounded to [MinFee, MaxFee].
type ClampedRate struct {
	Rate   decimal.Decimal `json:"rate"`
	MinFee decimal.Decimal `json:"min_fee"`
	MaxFee decimal.Decimal `json:"max_fee"`
}

// MobileMoneyTariff is a stepped band table mirroring real mobile-money
// pricing; amounts above the highest band fall back to Overflow.
type MobileMoneyTariff struct {
	Bands    []Tier      `json:"bands"`
	Overflow ClampedRate `json:"overflow"`
}

// Schedule is the versioned fee configuration. It is data, not logic:
// tariff changes ship as a new schedule file, never as engine changes.
type Schedule struct {
	Version     string            `json:"version"`
	Internal    []Tier            `json:"internal"`
	External    ClampedRate       `json:"external"`
	MobileMoney MobileMoneyTariff `json:"mobile_money"`
	Withdrawal  ClampedRate       `json:"withdrawal"`
}

// LoadSchedule reads and validates a schedule file.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fee schedule %s: %w", path, err)
	}
	var s Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse fee schedule %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fee schedule %s: %w", path, err)
	}
	return &s, nil
}

func (s *Schedule) Validate() error {
	if s.Version == "" {
		return fmt.Errorf("schedule version is required")
	}
	if err := validateTiers("internal", s.Internal, true); err != nil {
		return err
	}
	if err := validateTiers("mobile_money.bands", s.MobileMoney.Bands, false); err != nil {
		return err
	}
	for name, cr := range map[string]ClampedRate{
		"external":              s.External,
		"withdrawal":            s.Withdrawal,
		"mobile_money.overflow": s.MobileMoney.Overflow,
	} {
		if cr.Rate.IsNegative() {
			return fmt.Errorf("%s: rate must not be negative", name)
		}
		if cr.MinFee.IsNegative() || cr.MaxFee.LessThan(cr.MinFee) {
			return fmt.Errorf("%s: fee bounds must satisfy 0 <= min <= max", name)
		}
	}
	return nil
}

func validateTiers(name string, tiers []Tier, requireOpen bool) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%s: at least one tier is required", name)
	}
	var prev *decimal.Decimal
	for i, t := range tiers {
		if t.Fee.IsNegative() {
			return fmt.Errorf("%s[%d]: fee must not be negative", name, i)
		}
		if t.UpTo == nil {
			if i != len(tiers)-1 {
				return fmt.Errorf("%s[%d]: open-ended tier must be last", name, i)
			}
			continue
		}
		if prev != nil && !t.UpTo.GreaterThan(*prev) {
			return fmt.Errorf("%s[%d]: tier thresholds must be strictly ascending", name, i)
		}
		prev = t.UpTo
	}
	if requireOpen && tiers[len(tiers)-1].UpTo != nil {
		return fmt.Errorf("%s: last tier must be open-ended", name)
	}
	return nil
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

// DefaultSchedule returns the built-in tariff used when no schedule file
// is configured. The numbers mirror the cooperative's published rates.
func DefaultSchedule() *Schedule {
	return &Schedule{
		Version: "2024-01",
		Internal: []Tier{
			{UpTo: dp("10000"), Fee: d("10.00")},
			{UpTo: dp("50000"), Fee: d("20.00")},
			{UpTo: dp("100000"), Fee: d("30.00")},
			{UpTo: nil, Fee: d("50.00")},
		},
		External: ClampedRate{
			Rate:   d("0.015"),
			MinFee: d("50.00"),
			MaxFee: d("500.00"),
		},
		MobileMoney: MobileMoneyTariff{
			Bands: []Tier{
				{UpTo: dp("49"), Fee: d("0")},
				{UpTo: dp("100"), Fee: d("1.00")},
				{UpTo: dp("500"), Fee: d("5.00")},
				{UpTo: dp("1000"), Fee: d("10.00")},
				{UpTo: dp("1500"), Fee: d("13.00")},
				{UpTo: dp("2500"), Fee: d("20.00")},
				{UpTo: dp("3500"), Fee: d("25.00")},
				{UpTo: dp("5000"), Fee: d("30.00")},
				{UpTo: dp("7500"), Fee: d("40.00")},
				{UpTo: dp("10000"), Fee: d("45.00")},
				{UpTo: dp("15000"), Fee: d("50.00")},
				{UpTo: dp("20000"), Fee: d("55.00")},
				{UpTo: dp("25000"), Fee: d("60.00")},
				{UpTo: dp("35000"), Fee: d("75.00")},
				{UpTo: dp("50000"), Fee: d("90.00")},
				{UpTo: dp("70000"), Fee: d("110.00")},
			},
			Overflow: ClampedRate{
				Rate:   d("0.02"),
				MinFee: d("20.00"),
				MaxFee: d("300.00"),
			},
		},
		Withdrawal: ClampedRate{
			Rate:   d("0.01"),
			MinFee: d("25.00"),
			MaxFee: d("200.00"),
		},
	}
}
