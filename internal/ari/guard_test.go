package ari

import "testing"

func TestClampAvailability(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		physical  int
		want      int
	}{
		{"over-request truncates to physical count", 25, 5, 5},
		{"within capacity passes through", 3, 5, 3},
		{"exactly at capacity", 5, 5, 5},
		{"negative clamps to zero", -2, 5, 0},
		{"zero capacity", 4, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampAvailability(tt.requested, tt.physical); got != tt.want {
				t.Errorf("ClampAvailability(%d, %d) = %d, want %d", tt.requested, tt.physical, got, tt.want)
			}
		})
	}
}

func TestResolveAvailability(t *testing.T) {
	three := 3
	seven := 7
	tests := []struct {
		name       string
		updateType string
		value      int
		existing   *int
		physical   int
		want       int
	}{
		{"set clamps over-request", UpdateSet, 25, &three, 5, 5},
		{"set on missing row", UpdateSet, 2, nil, 5, 2},
		{"increment from existing", UpdateIncrement, 2, &three, 10, 5},
		{"increment from missing row starts at zero", UpdateIncrement, 2, nil, 10, 2},
		{"increment clamps at physical", UpdateIncrement, 9, &seven, 10, 10},
		{"decrement from existing", UpdateDecrement, 1, &three, 10, 2},
		{"decrement from missing row starts at physical", UpdateDecrement, 4, nil, 10, 6},
		{"decrement floors at zero", UpdateDecrement, 9, &three, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAvailability(tt.updateType, tt.value, tt.existing, tt.physical)
			if got != tt.want {
				t.Errorf("ResolveAvailability(%s, %d) = %d, want %d", tt.updateType, tt.value, got, tt.want)
			}
		})
	}
}
