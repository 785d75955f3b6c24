package models

import (
	"fmt"
	"time"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// FailureKind enumerates ledger invariant failures.
type FailureKind string

const (
	FailRecurrenceExtended         FailureKind = "recurrence_extended"
	FailCancellationTargetMismatch FailureKind = "cancellation_target_mismatch"
)

// Failure is a broken ledger invariant. It always aborts the transaction.
type Failure struct {
	Kind      FailureKind
	Event     id.BillingEventID
	Current   time.Time
	Requested time.Time
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailRecurrenceExtended:
		return fmt.Sprintf("recurring %s: end time %s cannot move later to %s",
			f.Event, f.Current.Format(time.RFC3339), f.Requested.Format(time.RFC3339))
	default:
		return fmt.Sprintf("billing event %s: %s", f.Event, f.Kind)
	}
}

func (f *Failure) ErrorCode() dErrors.Code { return dErrors.CodeInvariantViolation }
