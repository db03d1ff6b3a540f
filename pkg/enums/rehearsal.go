package enums

import "fmt"

// RehearsalStatus represents the canonical rehearsal_status enum.
type RehearsalStatus string

const (
	RehearsalStatusPlanned   RehearsalStatus = "Planned"
	RehearsalStatusConfirmed RehearsalStatus = "Confirmed"
	RehearsalStatusCancelled RehearsalStatus = "Cancelled"
)

var validRehearsalStatuses = []RehearsalStatus{
	RehearsalStatusPlanned,
	RehearsalStatusConfirmed,
	RehearsalStatusCancelled,
}

// String implements fmt.Stringer.
func (s RehearsalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RehearsalStatus.
func (s RehearsalStatus) IsValid() bool {
	for _, candidate := range validRehearsalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRehearsalStatus converts raw input into a RehearsalStatus.
func ParseRehearsalStatus(value string) (RehearsalStatus, error) {
	for _, candidate := range validRehearsalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rehearsal status %q", value)
}

// RehearsalType distinguishes the kinds of rehearsal sessions.
type RehearsalType string

const (
	RehearsalTypeRegular   RehearsalType = "Regular"
	RehearsalTypeIntensive RehearsalType = "Intensive"
	RehearsalTypeExtra     RehearsalType = "Extra"
)

var validRehearsalTypes = []RehearsalType{
	RehearsalTypeRegular,
	RehearsalTypeIntensive,
	RehearsalTypeExtra,
}

// String implements fmt.Stringer.
func (t RehearsalType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known RehearsalType.
func (t RehearsalType) IsValid() bool {
	for _, candidate := range validRehearsalTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRehearsalType converts raw input into a RehearsalType.
func ParseRehearsalType(value string) (RehearsalType, error) {
	for _, candidate := range validRehearsalTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rehearsal type %q", value)
}
