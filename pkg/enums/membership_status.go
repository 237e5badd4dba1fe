package enums

import "fmt"

// MembershipStatus gates whether a member can be attached to a sale.
type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusInactive MembershipStatus = "inactive"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusActive,
	MembershipStatusInactive,
}

// String implements fmt.Stringer.
func (m MembershipStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipStatus.
func (m MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(value string) (MembershipStatus, error) {
	for _, candidate := range validMembershipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership status %q", value)
}
