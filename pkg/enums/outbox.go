package enums

import "fmt"

// EntityKind identifies which planning table an outbox event refers to.
type EntityKind string

const (
	KindConcert   EntityKind = "concert"
	KindRehearsal EntityKind = "rehearsal"
)

var validEntityKinds = []EntityKind{
	KindConcert,
	KindRehearsal,
}

// String implements fmt.Stringer.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known EntityKind.
func (k EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}

// Operation records which mutation produced a change event.
type Operation string

const (
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
	OperationDeleted Operation = "deleted"
)

var validOperations = []Operation{
	OperationCreated,
	OperationUpdated,
	OperationDeleted,
}

// String implements fmt.Stringer.
func (o Operation) String() string {
	return string(o)
}

// IsValid reports whether the value is a known Operation.
func (o Operation) IsValid() bool {
	for _, candidate := range validOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOperation converts raw input into an Operation.
func ParseOperation(value string) (Operation, error) {
	for _, candidate := range validOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation %q", value)
}

// OutboxDLQErrorReason explains why an event was parked in the DLQ.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

// IsValid reports whether the value is a known OutboxDLQErrorReason.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason converts raw input into an OutboxDLQErrorReason.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	for _, candidate := range validOutboxDLQErrorReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dlq error reason %q", value)
}
