package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"10.50", 10.5, false},
		{"R$ 10.50", 10.5, false},
		{"$3", 3, false},
		{"1,234.56", 1234.56, false},
		{"0", 0, false},
		{"  4.20  ", 4.2, false},
		{"", 0, true},
		{"abc", 0, true},
		{".", 0, true},
		{"1.2.3", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSumTotals(t *testing.T) {
	items := []ReceiptItem{
		{ProductName: "a", Total: 10.10, ValidFormat: true},
		{ProductName: "b", Total: 0.20, ValidFormat: false}, // inconsistent lines still count
		{ProductName: "c", Total: 5.55, ValidFormat: true},
	}
	if got := SumTotals(items); got != 15.85 {
		t.Errorf("SumTotals() = %v, want 15.85", got)
	}
	if got := SumTotals(nil); got != 0 {
		t.Errorf("SumTotals(nil) = %v, want 0", got)
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.1 + 0.2, 0.3},
		{10.006, 10.01},
		{10.004, 10.0},
		{25.90 + 9.00, 34.90},
	}
	for _, tt := range tests {
		if got := RoundCents(tt.in); got != tt.want {
			t.Errorf("RoundCents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
