package build

import "testing"

func TestAvailableMemoryFraction_InRange(t *testing.T) {
	frac := availableMemoryFraction()
	if frac < 0 || frac > 1 {
		t.Errorf("availableMemoryFraction() = %f, want a value in [0, 1]", frac)
	}
}
