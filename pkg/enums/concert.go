package enums

import "fmt"

// ConcertStatus represents the canonical concert_status enum.
type ConcertStatus string

const (
	ConcertStatusProposed         ConcertStatus = "Proposed"
	ConcertStatusInArrangement    ConcertStatus = "InArrangement"
	ConcertStatusAwaitingApproval ConcertStatus = "AwaitingApproval"
	ConcertStatusConfirmed        ConcertStatus = "Confirmed"
	ConcertStatusCancelled        ConcertStatus = "Cancelled"
)

var validConcertStatuses = []ConcertStatus{
	ConcertStatusProposed,
	ConcertStatusInArrangement,
	ConcertStatusAwaitingApproval,
	ConcertStatusConfirmed,
	ConcertStatusCancelled,
}

// String implements fmt.Stringer.
func (s ConcertStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConcertStatus.
func (s ConcertStatus) IsValid() bool {
	for _, candidate := range validConcertStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConcertStatus converts raw input into a ConcertStatus.
func ParseConcertStatus(value string) (ConcertStatus, error) {
	for _, candidate := range validConcertStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid concert status %q", value)
}
