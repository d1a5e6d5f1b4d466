package ari

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestChildAmount(t *testing.T) {
	tests := []struct {
		name         string
		parent       float64
		derivedType  string
		derivedValue float64
		rounding     string
		want         float64
	}{
		{
			name:         "percentage discount with ENDING_99",
			parent:       200.00,
			derivedType:  DerivedPercentage,
			derivedValue: -10,
			rounding:     RoundEnding99,
			want:         180.99,
		},
		{
			name:         "percentage markup no rounding",
			parent:       100,
			derivedType:  DerivedPercentage,
			derivedValue: 15,
			rounding:     RoundNone,
			want:         115,
		},
		{
			name:         "fixed discount",
			parent:       120.50,
			derivedType:  DerivedFixedAmount,
			derivedValue: -20,
			rounding:     RoundNone,
			want:         100.50,
		},
		{
			name:         "fixed markup rounded to whole",
			parent:       99.40,
			derivedType:  DerivedFixedAmount,
			derivedValue: 10.25,
			rounding:     RoundNearestWhole,
			want:         110,
		},
		{
			name:         "large negative fixed clamps at zero",
			parent:       50,
			derivedType:  DerivedFixedAmount,
			derivedValue: -80,
			rounding:     RoundNone,
			want:         0,
		},
		{
			name:         "clamped zero still gets ending rounding",
			parent:       10,
			derivedType:  DerivedFixedAmount,
			derivedValue: -30,
			rounding:     RoundEnding99,
			want:         0.99,
		},
		{
			name:         "unknown derived type passes parent through",
			parent:       75.25,
			derivedType:  "",
			derivedValue: 50,
			rounding:     RoundNone,
			want:         75.25,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChildAmount(tt.parent, tt.derivedType, tt.derivedValue, tt.rounding)
			if !almostEqual(got, tt.want) {
				t.Errorf("ChildAmount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyRounding(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		rule string
		want float64
	}{
		{"none keeps fraction", 123.456, RoundNone, 123.456},
		{"nearest whole rounds up", 99.5, RoundNearestWhole, 100},
		{"nearest whole rounds down", 99.49, RoundNearestWhole, 99},
		{"ending 99", 180.00, RoundEnding99, 180.99},
		{"ending 99 strips fraction first", 180.75, RoundEnding99, 180.99},
		{"ending 90", 64.10, RoundEnding90, 64.90},
		{"multiple of 5 up", 87.60, RoundMultiple5, 90},
		{"multiple of 5 down", 86.99, RoundMultiple5, 85},
		{"multiple of 10", 86.99, RoundMultiple10, 90},
		{"unknown rule is passthrough", 42.42, "WEIRD", 42.42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyRounding(tt.x, tt.rule); !almostEqual(got, tt.want) {
				t.Errorf("ApplyRounding(%v, %s) = %v, want %v", tt.x, tt.rule, got, tt.want)
			}
		})
	}
}

func TestFormula(t *testing.T) {
	got := Formula("BASE", DerivedPercentage, -10, RoundEnding99)
	if got != "BASE-10.00%|ENDING_99" {
		t.Errorf("Formula() = %q", got)
	}
	got = Formula("BAR", DerivedFixedAmount, 15, RoundNone)
	if got != "BAR+15.00|NONE" {
		t.Errorf("Formula() = %q", got)
	}
}
