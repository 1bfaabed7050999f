package fees_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/peterclermy232/banking-system-backend/internal/fees"
)

func TestLoadScheduleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.json")
	data := []byte(`{
		"version": "2025-07",
		"internal": [
			{"up_to": "1000", "fee": "5.00"},
			{"up_to": null, "fee": "15.00"}
		],
		"external": {"rate": "0.02", "min_fee": "40.00", "max_fee": "400.00"},
		"mobile_money": {
			"bands": [{"up_to": "100", "fee": "2.00"}],
			"overflow": {"rate": "0.03", "min_fee": "10.00", "max_fee": "100.00"}
		},
		"withdrawal": {"rate": "0.01", "min_fee": "20.00", "max_fee": "150.00"}
	}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := fees.LoadSchedule(path)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if s.Version != "2025-07" {
		t.Errorf("version = %q, want 2025-07", s.Version)
	}

	calc := fees.NewCalculator(s)
	if got := calc.Calculate(fees.ClassInternal, amt(t, "999")); !got.Equal(amt(t, "5.00")) {
		t.Errorf("loaded schedule not applied: got fee %s", got)
	}
	if got := calc.Calculate(fees.ClassInternal, amt(t, "2000")); !got.Equal(amt(t, "15.00")) {
		t.Errorf("open tier not applied: got fee %s", got)
	}
}

func TestLoadScheduleRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"missing version", `{"internal": [{"up_to": null, "fee": "1"}]}`},
		{"no internal tiers", `{"version": "v1", "internal": []}`},
		{"non-ascending tiers", `{"version": "v1", "internal": [
			{"up_to": "500", "fee": "1"}, {"up_to": "100", "fee": "2"}, {"up_to": null, "fee": "3"}
		]}`},
		{"no open tier", `{"version": "v1", "internal": [{"up_to": "100", "fee": "1"}]}`},
		{"negative fee", `{"version": "v1", "internal": [{"up_to": null, "fee": "-1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fees.json")
			if err := os.WriteFile(path, []byte(tt.json), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := fees.LoadSchedule(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDefaultScheduleValid(t *testing.T) {
	if err := fees.DefaultSchedule().Validate(); err != nil {
		t.Fatalf("default schedule must validate: %v", err)
	}
}
