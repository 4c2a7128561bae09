package enums

import "fmt"

// AllocationStatus represents the lifecycle of a stock allocation.
type AllocationStatus string

const (
	AllocationStatusActive   AllocationStatus = "active"
	AllocationStatusReleased AllocationStatus = "released"
	AllocationStatusConsumed AllocationStatus = "consumed"
)

var validAllocationStatuses = []AllocationStatus{
	AllocationStatusActive,
	AllocationStatusReleased,
	AllocationStatusConsumed,
}

// String implements fmt.Stringer.
func (s AllocationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AllocationStatus.
func (s AllocationStatus) IsValid() bool {
	for _, candidate := range validAllocationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
// Released and consumed allocations are never reactivated; a new allocation
// is created instead.
func (s AllocationStatus) IsTerminal() bool {
	return s == AllocationStatusReleased || s == AllocationStatusConsumed
}

// ParseAllocationStatus converts raw input into an AllocationStatus.
func ParseAllocationStatus(value string) (AllocationStatus, error) {
	for _, candidate := range validAllocationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation status %q", value)
}
